// SPDX-License-Identifier: EPL-2.0

package bank

import (
	"encoding/binary"
	"errors"
	"slices"
	"sync"
	"testing"
)

func buildImage(t *testing.T, entries ...Entry) []byte {
	t.Helper()

	b := NewBuilder()
	for _, e := range entries {
		if err := b.Add(e); err != nil {
			t.Fatalf("Add(%q) error = %v", e.Name, err)
		}
	}
	img, err := b.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	return img
}

func pcm(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}

func TestLoad(t *testing.T) {
	t.Parallel()

	img := buildImage(t,
		Entry{Name: "kick", Data: pcm(400), Bitrate: 16, SampleRate: 48000, Channels: 2},
		Entry{Name: "hum", Data: pcm(100), Bitrate: 8, SampleRate: 48000, Channels: 1,
			Loop: true, LoopStart: 20, LoopEnd: 80},
	)

	b, err := Load(img)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
	if !slices.Equal(b.Names(), []string{"kick", "hum"}) {
		t.Errorf("Names() = %v", b.Names())
	}

	kick, err := b.Lookup("kick")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if kick.Frames() != 100 || kick.FrameBytes() != 4 {
		t.Errorf("kick frames = %d x %d bytes", kick.Frames(), kick.FrameBytes())
	}
	if kick.Loop || kick.LoopStart != 0 || kick.LoopEnd != 400 {
		t.Errorf("kick loop = %v %d..%d, want default full range", kick.Loop, kick.LoopStart, kick.LoopEnd)
	}
	if kick.Bank() != b {
		t.Error("Bank() does not point at owner")
	}

	hum, _ := b.Asset(1)
	if !hum.Loop || hum.LoopStart != 20 || hum.LoopEnd != 80 {
		t.Errorf("hum loop = %v %d..%d", hum.Loop, hum.LoopStart, hum.LoopEnd)
	}
	if !slices.Equal(hum.Data(), pcm(100)) {
		t.Error("hum data mismatch")
	}

	// The bank owns a copy.
	img[len(img)-1] ^= 0xFF
	if hum.Data()[99] != 99 {
		t.Error("asset data aliases the caller's image")
	}

	if _, err := b.Lookup("snare"); !errors.Is(err, ErrNoAsset) {
		t.Errorf("Lookup(snare) error = %v, want ErrNoAsset", err)
	}
	if _, err := b.Asset(2); !errors.Is(err, ErrNoAsset) {
		t.Errorf("Asset(2) error = %v, want ErrNoAsset", err)
	}
}

func TestLoad_Rejects(t *testing.T) {
	t.Parallel()

	good := buildImage(t, Entry{Name: "a", Data: pcm(64), Bitrate: 16, SampleRate: 8000, Channels: 1})
	entry := headerSize

	mutate := func(f func(img []byte)) []byte {
		img := slices.Clone(good)
		f(img)
		return img
	}
	le := binary.LittleEndian

	tests := []struct {
		name string
		img  []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"magic", mutate(func(b []byte) { b[0] = 'X' }), ErrBadMagic},
		{"version", mutate(func(b []byte) { b[4] = 9 }), ErrBadVersion},
		{"count past end", mutate(func(b []byte) { b[6] = 200 }), ErrTruncated},
		{"data past end", mutate(func(b []byte) { le.PutUint32(b[entry+4:], 1<<20) }), ErrBadRange},
		{"offset overflow", mutate(func(b []byte) { le.PutUint32(b[entry:], 0xFFFFFFF0) }), ErrBadRange},
		{"name past end", mutate(func(b []byte) { le.PutUint16(b[entry+20:], 5000) }), ErrBadRange},
		{"bitrate", mutate(func(b []byte) { le.PutUint16(b[entry+22:], 12) }), ErrBadAsset},
		{"channels", mutate(func(b []byte) { b[entry+28] = 6 }), ErrBadAsset},
		{"rate", mutate(func(b []byte) { le.PutUint32(b[entry+24:], 0) }), ErrBadAsset},
		{"odd size", mutate(func(b []byte) { le.PutUint32(b[entry+4:], 63) }), ErrBadAsset},
		{"loop reversed", mutate(func(b []byte) {
			le.PutUint32(b[entry+8:], 40)
			le.PutUint32(b[entry+12:], 20)
		}), ErrBadAsset},
		{"loop past data", mutate(func(b []byte) { le.PutUint32(b[entry+12:], 66) }), ErrBadAsset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Load(tt.img); !errors.Is(err, tt.want) {
				t.Fatalf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBank_Unload(t *testing.T) {
	t.Parallel()

	b, err := Load(buildImage(t, Entry{Name: "a", Data: pcm(8), Bitrate: 16, SampleRate: 8000, Channels: 2}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := b.Acquire(); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := b.Unload(); !errors.Is(err, ErrBankInUse) {
		t.Fatalf("Unload() error = %v, want ErrBankInUse", err)
	}

	b.Release()
	if b.Refs() != 0 {
		t.Fatalf("Refs() = %d, want 0", b.Refs())
	}
	if err := b.Unload(); err != nil {
		t.Fatalf("Unload() error = %v", err)
	}
	if !b.Unloaded() {
		t.Error("Unloaded() = false")
	}
	if err := b.Unload(); err != nil {
		t.Errorf("second Unload() error = %v", err)
	}
	if err := b.Acquire(); !errors.Is(err, ErrBankUnloaded) {
		t.Errorf("Acquire() after unload error = %v, want ErrBankUnloaded", err)
	}
}

func TestBank_ConcurrentRefs(t *testing.T) {
	t.Parallel()

	b, _ := Load(buildImage(t, Entry{Data: pcm(2), Bitrate: 16, SampleRate: 8000, Channels: 1}))

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 1000 {
				if err := b.Acquire(); err != nil {
					t.Error(err)
					return
				}
				b.Release()
			}
		})
	}
	wg.Wait()

	if b.Refs() != 0 {
		t.Fatalf("Refs() = %d, want 0", b.Refs())
	}
}

func TestBuilder_Rejects(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	ok := Entry{Name: "x", Data: pcm(4), Bitrate: 16, SampleRate: 8000, Channels: 1}
	if err := b.Add(ok); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	bad := []Entry{
		ok, // duplicate
		{Name: "y", Data: pcm(4), Bitrate: 24, SampleRate: 8000, Channels: 1},
		{Name: "y", Data: pcm(4), Bitrate: 16, SampleRate: 8000, Channels: 3},
		{Name: "y", Data: pcm(3), Bitrate: 16, SampleRate: 8000, Channels: 1},
		{Name: "y", Data: nil, Bitrate: 16, SampleRate: 8000, Channels: 1},
		{Name: "y", Data: pcm(4), Bitrate: 16, SampleRate: 0, Channels: 1},
	}
	for i, e := range bad {
		if err := b.Add(e); !errors.Is(err, ErrBadAsset) {
			t.Errorf("case %d: Add() error = %v, want ErrBadAsset", i, err)
		}
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
}

func TestBuilder_AddPCM(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	if err := b.AddPCM("tone", []float32{0.5, -0.5, 0.25, -0.25}, 48000, 2, true); err != nil {
		t.Fatalf("AddPCM() error = %v", err)
	}
	img, err := b.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	bk, err := Load(img)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	a, _ := bk.Lookup("tone")
	if a.Frames() != 2 || a.Bitrate != 16 || !a.Loop {
		t.Errorf("asset = %+v", a)
	}
	if got := int16(binary.LittleEndian.Uint16(a.Data()[0:2])); got != 16383 {
		t.Errorf("first sample = %d, want 16383", got)
	}
}
