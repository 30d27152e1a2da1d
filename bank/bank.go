// SPDX-License-Identifier: EPL-2.0

package bank

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
)

// Asset is an immutable sound inside a Bank.
type Asset struct {
	Name       string
	Bitrate    int // bits per sample
	SampleRate int
	Channels   int
	// Loop is the default loop flag.
	Loop bool
	// LoopStart and LoopEnd are byte offsets into Data.
	LoopStart int
	LoopEnd   int

	data []byte
	bank *Bank
}

// Data is the encoded sample data. It aliases the bank arena and must not
// be modified.
func (a *Asset) Data() []byte { return a.data }

// Bank returns the owning bank.
func (a *Asset) Bank() *Bank { return a.bank }

// FrameBytes is the size of one encoded frame.
func (a *Asset) FrameBytes() int { return a.Channels * a.Bitrate / 8 }

// Frames is the asset length in frames.
func (a *Asset) Frames() int { return len(a.data) / a.FrameBytes() }

// Bank owns the memory of a set of assets.
type Bank struct {
	arena  []byte
	assets []Asset
	byName map[string]int

	mtx      sync.Mutex
	unloaded bool
	refs     atomic.Int32
}

// Load copies image into a new bank and validates every asset.
func Load(image []byte) (*Bank, error) {
	if len(image) < headerSize {
		return nil, ErrTruncated
	}
	if string(image[:4]) != Magic {
		return nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint16(image[4:6]); v != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}

	count := int(binary.LittleEndian.Uint16(image[6:8]))
	if len(image) < headerSize+count*entrySize {
		return nil, fmt.Errorf("%w: %d entries", ErrTruncated, count)
	}

	b := &Bank{
		arena:  make([]byte, len(image)),
		assets: make([]Asset, count),
		byName: make(map[string]int, count),
	}
	copy(b.arena, image)

	for i := range count {
		off := headerSize + i*entrySize
		e := readEntry(b.arena[off : off+entrySize])
		if err := b.bind(i, &e); err != nil {
			return nil, fmt.Errorf("asset %d: %w", i, err)
		}
	}

	return b, nil
}

func (b *Bank) bind(i int, e *entry) error {
	if !inRange(e.offset, e.size, len(b.arena)) || !inRange(e.nameOff, uint32(e.nameLen), len(b.arena)) {
		return ErrBadRange
	}
	if e.channels != 1 && e.channels != 2 {
		return fmt.Errorf("%w: %d channels", ErrBadAsset, e.channels)
	}
	if e.bitrate != 8 && e.bitrate != 16 {
		return fmt.Errorf("%w: bitrate %d", ErrBadAsset, e.bitrate)
	}
	if e.sampleRate == 0 {
		return fmt.Errorf("%w: zero sample rate", ErrBadAsset)
	}

	frame := uint32(e.channels) * uint32(e.bitrate) / 8
	if e.size == 0 || e.size%frame != 0 {
		return fmt.Errorf("%w: size %d is not whole frames", ErrBadAsset, e.size)
	}

	loopStart, loopEnd := e.loopStart, e.loopEnd
	if loopEnd == 0 {
		loopEnd = e.size
	}
	if loopStart >= loopEnd || loopEnd > e.size || loopStart%frame != 0 || loopEnd%frame != 0 {
		return fmt.Errorf("%w: loop %d..%d", ErrBadAsset, loopStart, loopEnd)
	}

	name := string(b.arena[e.nameOff : e.nameOff+uint32(e.nameLen)])
	if _, dup := b.byName[name]; dup && name != "" {
		return fmt.Errorf("%w: duplicate name %q", ErrBadAsset, name)
	}

	b.assets[i] = Asset{
		Name:       name,
		Bitrate:    int(e.bitrate),
		SampleRate: int(e.sampleRate),
		Channels:   int(e.channels),
		Loop:       e.flags&FlagLoop != 0,
		LoopStart:  int(loopStart),
		LoopEnd:    int(loopEnd),
		data:       b.arena[e.offset : e.offset+e.size : e.offset+e.size],
		bank:       b,
	}
	if name != "" {
		b.byName[name] = i
	}
	return nil
}

// Len is the number of assets.
func (b *Bank) Len() int { return len(b.assets) }

// Asset returns the asset at index i.
func (b *Bank) Asset(i int) (*Asset, error) {
	if i < 0 || i >= len(b.assets) {
		return nil, fmt.Errorf("%w: index %d", ErrNoAsset, i)
	}
	return &b.assets[i], nil
}

// Lookup finds an asset by name.
func (b *Bank) Lookup(name string) (*Asset, error) {
	i, ok := b.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoAsset, name)
	}
	return &b.assets[i], nil
}

// Names lists asset names in table order.
func (b *Bank) Names() []string {
	out := make([]string, len(b.assets))
	for i := range b.assets {
		out[i] = b.assets[i].Name
	}
	return out
}

// Acquire records a new live reference.
func (b *Bank) Acquire() error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.unloaded {
		return ErrBankUnloaded
	}
	b.refs.Add(1)
	return nil
}

// Release drops a live reference. It never blocks and is safe to call from
// the audio callback.
func (b *Bank) Release() {
	b.refs.Add(-1)
}

// Refs is the number of live references.
func (b *Bank) Refs() int { return int(b.refs.Load()) }

// Unload frees the arena. It fails with ErrBankInUse while referenced.
// Unloading twice is a no-op.
func (b *Bank) Unload() error {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if b.unloaded {
		return nil
	}
	if n := b.refs.Load(); n > 0 {
		return fmt.Errorf("%w: %d live references", ErrBankInUse, n)
	}

	b.unloaded = true
	b.arena = nil
	for i := range b.assets {
		b.assets[i].data = nil
	}
	return nil
}

// Unloaded reports whether Unload has succeeded.
func (b *Bank) Unloaded() bool {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	return b.unloaded
}
