// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/audmix/internal/audiotest"
)

func drain(t *testing.T, src Source, chunk int) []float32 {
	t.Helper()

	buf := make([]float32, chunk)
	var out []float32
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
}

func TestResampler_Metadata(t *testing.T) {
	t.Parallel()

	r, err := NewResampler(audiotest.Silence(44100, 2, 1000), 8000)
	if err != nil {
		t.Fatalf("NewResampler() error = %v", err)
	}
	if r.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", r.SampleRate())
	}
	if r.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", r.Channels())
	}
}

func TestResampler_InvalidRate(t *testing.T) {
	t.Parallel()

	_, err := NewResampler(audiotest.Silence(44100, 1, 10), 0)
	if !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("NewResampler() error = %v, want ErrInvalidRate", err)
	}
}

func TestResampler_SameRateIsIdentity(t *testing.T) {
	t.Parallel()

	src := audiotest.Ramp(8000, 1, 100)
	r, err := NewResampler(src, 8000)
	if err != nil {
		t.Fatalf("NewResampler() error = %v", err)
	}

	got := drain(t, r, 64)
	if len(got) != 100 {
		t.Fatalf("len = %d, want 100", len(got))
	}
	for i, v := range got {
		want := float32(i) / 100
		if math.Abs(float64(v-want)) > 1e-6 {
			t.Fatalf("got[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestResampler_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		srcRate   int
		dstRate   int
		channels  int
		wantFrame int
	}{
		{"down 44.1k to 8k", 44100, 8000, 1, 8000},
		{"up 8k to 16k", 8000, 16000, 1, 16000},
		{"down stereo 48k to 44.1k", 48000, 44100, 2, 44100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.Sine(tt.srcRate, tt.channels, tt.srcRate, 440)
			r, err := NewResampler(src, tt.dstRate)
			if err != nil {
				t.Fatalf("NewResampler() error = %v", err)
			}

			frames := len(drain(t, r, 1024)) / tt.channels
			if diff := frames - tt.wantFrame; diff < -10 || diff > 10 {
				t.Errorf("frames = %d, want ≈%d", frames, tt.wantFrame)
			}
		})
	}
}

func TestResampler_StaysInRange(t *testing.T) {
	t.Parallel()

	r, err := NewResampler(audiotest.Sine(44100, 1, 4410, 1000), 22050)
	if err != nil {
		t.Fatalf("NewResampler() error = %v", err)
	}
	for i, v := range drain(t, r, 256) {
		if v < -1.1 || v > 1.1 {
			t.Fatalf("sample %d = %v out of range", i, v)
		}
	}
}

func TestResampler_EmptySource(t *testing.T) {
	t.Parallel()

	r, err := NewResampler(audiotest.Silence(8000, 1, 0), 16000)
	if err != nil {
		t.Fatalf("NewResampler() error = %v", err)
	}
	n, err := r.ReadSamples(make([]float32, 16))
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Fatalf("ReadSamples() = %d, %v, want 0, EOF", n, err)
	}
}

func TestResampler_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := audiotest.Constant(8000, 1, 1000, 0.25)
	src.Err, src.FailAt = boom, 10
	src.SetBufSize(8)

	r, err := NewResampler(src, 8000)
	if err != nil {
		t.Fatalf("NewResampler() error = %v", err)
	}

	buf := make([]float32, 64)
	for range 10 {
		if _, err = r.ReadSamples(buf); err != nil {
			break
		}
	}
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}

func TestResampler_InvalidDst(t *testing.T) {
	t.Parallel()

	r, err := NewResampler(audiotest.Silence(8000, 2, 100), 8000)
	if err != nil {
		t.Fatalf("NewResampler() error = %v", err)
	}
	if _, err := r.ReadSamples(make([]float32, 3)); !errors.Is(err, ErrInvalidDstSize) {
		t.Fatalf("error = %v, want ErrInvalidDstSize", err)
	}
}

func TestResampler_Close(t *testing.T) {
	t.Parallel()

	src := audiotest.Silence(8000, 1, 1)
	r, _ := NewResampler(src, 16000)
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if src.Closed() != 1 {
		t.Errorf("source closed %d times, want 1", src.Closed())
	}
}

func BenchmarkResampler(b *testing.B) {
	buf := make([]float32, 4096)
	for b.Loop() {
		r, _ := NewResampler(audiotest.Sine(44100, 2, 44100, 440), 48000)
		for {
			if _, err := r.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
