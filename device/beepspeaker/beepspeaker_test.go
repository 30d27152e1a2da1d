// SPDX-License-Identifier: EPL-2.0

package beepspeaker

import (
	"errors"
	"testing"

	"github.com/gopxl/beep"
	"go.uber.org/zap"

	"github.com/ik5/audmix/device"
)

var _ beep.Streamer = (*Device)(nil)

func TestStream_SplitsChannels(t *testing.T) {
	t.Parallel()

	cfg := device.Config{SampleRate: 48000, Channels: 2, PeriodFrames: 3}
	d := newDevice(cfg, func(out []float32) {
		for i := 0; i < len(out); i += 2 {
			out[i], out[i+1] = 0.5, -0.5
		}
	}, zap.NewNop())

	samples := make([][2]float64, 7)
	n, ok := d.Stream(samples)
	if n != 7 || !ok {
		t.Fatalf("Stream() = %d, %v", n, ok)
	}
	for i, s := range samples {
		if s != [2]float64{0.5, -0.5} {
			t.Fatalf("frame %d = %v", i, s)
		}
	}
	if d.Err() != nil {
		t.Errorf("Err() = %v", d.Err())
	}
}

func TestOpen_RejectsMono(t *testing.T) {
	t.Parallel()

	cfg := device.Config{SampleRate: 48000, Channels: 1, PeriodFrames: 256}
	if _, err := Open(cfg, func([]float32) {}, nil); !errors.Is(err, device.ErrInvalidConfig) {
		t.Fatalf("Open() error = %v, want ErrInvalidConfig", err)
	}
}

func TestPause_BeforeStart(t *testing.T) {
	t.Parallel()

	d := newDevice(device.Config{SampleRate: 48000, Channels: 2, PeriodFrames: 8}, func([]float32) {}, zap.NewNop())
	if err := d.Pause(true); !errors.Is(err, device.ErrNotStarted) {
		t.Errorf("Pause() error = %v, want ErrNotStarted", err)
	}
}
