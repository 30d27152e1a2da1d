// SPDX-License-Identifier: EPL-2.0

package bank

import "encoding/binary"

const (
	Magic   = "AMXB"
	Version = 1

	headerSize = 8
	entrySize  = 32

	// FlagLoop marks an asset that loops unless told otherwise.
	FlagLoop = 1 << 0

	maxAssets = 1<<16 - 1
)

// entry is the on-disk asset descriptor.
type entry struct {
	offset     uint32
	size       uint32
	loopStart  uint32
	loopEnd    uint32
	nameOff    uint32
	nameLen    uint16
	bitrate    uint16
	sampleRate uint32
	channels   uint8
	flags      uint8
}

func readEntry(b []byte) entry {
	le := binary.LittleEndian
	return entry{
		offset:     le.Uint32(b[0:4]),
		size:       le.Uint32(b[4:8]),
		loopStart:  le.Uint32(b[8:12]),
		loopEnd:    le.Uint32(b[12:16]),
		nameOff:    le.Uint32(b[16:20]),
		nameLen:    le.Uint16(b[20:22]),
		bitrate:    le.Uint16(b[22:24]),
		sampleRate: le.Uint32(b[24:28]),
		channels:   b[28],
		flags:      b[29],
	}
}

func (e *entry) put(b []byte) {
	le := binary.LittleEndian
	le.PutUint32(b[0:4], e.offset)
	le.PutUint32(b[4:8], e.size)
	le.PutUint32(b[8:12], e.loopStart)
	le.PutUint32(b[12:16], e.loopEnd)
	le.PutUint32(b[16:20], e.nameOff)
	le.PutUint16(b[20:22], e.nameLen)
	le.PutUint16(b[22:24], e.bitrate)
	le.PutUint32(b[24:28], e.sampleRate)
	b[28] = e.channels
	b[29] = e.flags
	le.PutUint16(b[30:32], 0)
}

// inRange reports whether [off, off+n) lies within size bytes.
func inRange(off, n uint32, size int) bool {
	end := uint64(off) + uint64(n)
	return end <= uint64(size)
}
