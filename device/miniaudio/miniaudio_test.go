// SPDX-License-Identifier: EPL-2.0

package miniaudio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/ik5/audmix/device"
)

func ramp() device.Callback {
	next := float32(0)
	return func(out []float32) {
		for i := range out {
			out[i] = next
			next++
		}
	}
}

func TestData_EncodesAcrossPeriods(t *testing.T) {
	t.Parallel()

	cfg := device.Config{SampleRate: 48000, Channels: 2, PeriodFrames: 3}
	d := newDevice(cfg, ramp(), zap.NewNop())

	want := float32(0)
	for _, frames := range []uint32{1, 5, 3, 8} {
		out := make([]byte, frames*2*4)
		d.data(out, nil, frames)
		for i := 0; i < len(out); i += 4 {
			if got := math.Float32frombits(binary.LittleEndian.Uint32(out[i:])); got != want {
				t.Fatalf("sample %v = %v", want, got)
			}
			want++
		}
	}
}

func TestData_ZeroAllocs(t *testing.T) {
	cfg := device.Config{SampleRate: 48000, Channels: 2, PeriodFrames: 256}
	d := newDevice(cfg, ramp(), zap.NewNop())
	out := make([]byte, 441*2*4)

	allocs := testing.AllocsPerRun(50, func() {
		d.data(out, nil, 441)
	})
	if allocs != 0 {
		t.Fatalf("allocs = %f, want 0", allocs)
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	t.Parallel()

	if _, err := Open(device.Config{}, ramp(), nil); !errors.Is(err, device.ErrInvalidConfig) {
		t.Fatalf("Open() error = %v, want ErrInvalidConfig", err)
	}
}
