// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"testing"

	"github.com/ik5/audmix/internal/audiotest"
)

func TestChannelFolder(t *testing.T) {
	t.Parallel()

	perChannel := func(i, ch int) float32 { return float32(ch + 1) }

	tests := []struct {
		name string
		in   int
		out  int
		want []float32 // first frame
	}{
		{"mono to stereo", 1, 2, []float32{1, 1}},
		{"stereo to mono", 2, 1, []float32{1.5}},
		{"quad to stereo", 4, 2, []float32{2, 3}},
		{"5.1 to stereo", 6, 2, []float32{3, 4}},
		{"5.1 to mono", 6, 1, []float32{3.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, err := NewChannelFolder(audiotest.New(48000, tt.in, 16, perChannel), tt.out)
			if err != nil {
				t.Fatalf("NewChannelFolder() error = %v", err)
			}
			if f.Channels() != tt.out {
				t.Fatalf("Channels() = %d, want %d", f.Channels(), tt.out)
			}

			got := drain(t, f, 8*tt.out)
			if len(got) != 16*tt.out {
				t.Fatalf("len = %d, want %d", len(got), 16*tt.out)
			}
			for c, w := range tt.want {
				if got[c] != w {
					t.Errorf("ch %d = %v, want %v", c, got[c], w)
				}
			}
		})
	}
}

func TestChannelFolder_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := NewChannelFolder(audiotest.Silence(8000, 2, 1), 3); !errors.Is(err, ErrInvalidChannels) {
		t.Fatalf("error = %v, want ErrInvalidChannels", err)
	}

	f, _ := NewChannelFolder(audiotest.Silence(8000, 4, 10), 2)
	if _, err := f.ReadSamples(make([]float32, 3)); !errors.Is(err, ErrInvalidDstSize) {
		t.Fatalf("error = %v, want ErrInvalidDstSize", err)
	}
}
