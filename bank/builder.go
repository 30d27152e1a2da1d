// SPDX-License-Identifier: EPL-2.0

package bank

import (
	"fmt"

	"github.com/ik5/audmix/utils"
)

// Entry describes one asset to add to a Builder.
type Entry struct {
	Name       string
	Data       []byte
	Bitrate    int
	SampleRate int
	Channels   int
	Loop       bool
	// LoopStart and LoopEnd are byte offsets into Data. A zero LoopEnd
	// means the end of the data.
	LoopStart int
	LoopEnd   int
}

// Builder assembles bank images.
type Builder struct {
	entries []Entry
	names   map[string]struct{}
}

func NewBuilder() *Builder {
	return &Builder{names: make(map[string]struct{})}
}

// Add queues an asset. Data is referenced, not copied, until Bytes is called.
func (b *Builder) Add(e Entry) error {
	if len(b.entries) == maxAssets {
		return fmt.Errorf("%w: more than %d assets", ErrBadAsset, maxAssets)
	}
	if len(e.Name) > 1<<16-1 {
		return fmt.Errorf("%w: name too long", ErrBadAsset)
	}
	if _, dup := b.names[e.Name]; dup && e.Name != "" {
		return fmt.Errorf("%w: duplicate name %q", ErrBadAsset, e.Name)
	}
	if e.Channels != 1 && e.Channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrBadAsset, e.Channels)
	}
	if e.Bitrate != 8 && e.Bitrate != 16 {
		return fmt.Errorf("%w: bitrate %d", ErrBadAsset, e.Bitrate)
	}
	if e.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrBadAsset, e.SampleRate)
	}
	frame := e.Channels * e.Bitrate / 8
	if len(e.Data) == 0 || len(e.Data)%frame != 0 {
		return fmt.Errorf("%w: %d bytes is not whole frames", ErrBadAsset, len(e.Data))
	}

	b.entries = append(b.entries, e)
	b.names[e.Name] = struct{}{}
	return nil
}

// AddPCM encodes interleaved float samples as 16-bit data and adds them.
func (b *Builder) AddPCM(name string, samples []float32, sampleRate, channels int, loop bool) error {
	data := make([]byte, 2*len(samples))
	utils.PutPCM16(data, samples)

	return b.Add(Entry{
		Name:       name,
		Data:       data,
		Bitrate:    16,
		SampleRate: sampleRate,
		Channels:   channels,
		Loop:       loop,
	})
}

// Len is the number of queued assets.
func (b *Builder) Len() int { return len(b.entries) }

// Bytes lays out the image: header, entry table, names, then data.
func (b *Builder) Bytes() ([]byte, error) {
	size := headerSize + len(b.entries)*entrySize
	for _, e := range b.entries {
		size += len(e.Name) + len(e.Data)
	}
	if uint64(size) > 1<<32-1 {
		return nil, fmt.Errorf("%w: image exceeds 4 GiB", ErrBadRange)
	}

	img := make([]byte, size)
	copy(img, Magic)
	img[4], img[5] = Version, 0
	img[6], img[7] = byte(len(b.entries)), byte(len(b.entries)>>8)

	cursor := headerSize + len(b.entries)*entrySize
	for i, e := range b.entries {
		nameOff := cursor
		cursor += copy(img[cursor:], e.Name)
		dataOff := cursor
		cursor += copy(img[cursor:], e.Data)

		rec := entry{
			offset:     uint32(dataOff),
			size:       uint32(len(e.Data)),
			loopStart:  uint32(e.LoopStart),
			loopEnd:    uint32(e.LoopEnd),
			nameOff:    uint32(nameOff),
			nameLen:    uint16(len(e.Name)),
			bitrate:    uint16(e.Bitrate),
			sampleRate: uint32(e.SampleRate),
			channels:   uint8(e.Channels),
		}
		if e.Loop {
			rec.flags |= FlagLoop
		}
		off := headerSize + i*entrySize
		rec.put(img[off : off+entrySize])
	}

	return img, nil
}
