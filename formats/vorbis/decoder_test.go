// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ik5/audmix/audio"
)

type fakeOgg struct {
	rate, channels int
	data           []float32
	pos            int
	err            error
}

func (f *fakeOgg) SampleRate() int { return f.rate }
func (f *fakeOgg) Channels() int   { return f.channels }

func (f *fakeOgg) Read(p []float32) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.pos >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.pos:])
	f.pos += n
	return n, nil
}

func TestDecoder_Invalid(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, []byte("OggS but not really a stream")} {
		if _, err := (Decoder{}).Decode(bytes.NewReader(data)); err == nil {
			t.Errorf("Decode(%q) error = nil", data)
		}
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	src := &source{dec: &fakeOgg{rate: 48000, channels: 2, data: []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}}}
	if src.BufSize()%2 != 0 {
		t.Errorf("BufSize() = %d, not frame aligned", src.BufSize())
	}

	dst := make([]float32, 4)
	if n, err := src.ReadSamples(dst); n != 4 || err != nil {
		t.Fatalf("first read = %d, %v", n, err)
	}
	if n, err := src.ReadSamples(dst); n != 2 || err != nil {
		t.Fatalf("second read = %d, %v", n, err)
	}
	if dst[0] != 0.3 || dst[1] != -0.3 {
		t.Errorf("dst = %v", dst[:2])
	}
	if n, err := src.ReadSamples(dst); n != 0 || !errors.Is(err, io.EOF) {
		t.Fatalf("third read = %d, %v, want 0, EOF", n, err)
	}
}

func TestSource_Errors(t *testing.T) {
	t.Parallel()

	src := &source{dec: &fakeOgg{rate: 48000, channels: 2}}
	if _, err := src.ReadSamples(make([]float32, 3)); !errors.Is(err, audio.ErrInvalidDstSize) {
		t.Fatalf("error = %v, want ErrInvalidDstSize", err)
	}

	boom := errors.New("corrupt page")
	src = &source{dec: &fakeOgg{rate: 48000, channels: 1, err: boom}}
	if _, err := src.ReadSamples(make([]float32, 4)); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}
