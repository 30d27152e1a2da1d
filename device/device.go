// SPDX-License-Identifier: EPL-2.0

package device

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config is the output format. Channels is 1 or 2.
type Config struct {
	SampleRate   int
	Channels     int
	PeriodFrames int
}

func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.Channels != 1 && c.Channels != 2:
		return fmt.Errorf("%w: %d channels", ErrInvalidConfig, c.Channels)
	case c.PeriodFrames <= 0:
		return fmt.Errorf("%w: period %d frames", ErrInvalidConfig, c.PeriodFrames)
	}
	return nil
}

// PeriodSamples is the length of the slice a Callback receives.
func (c Config) PeriodSamples() int { return c.PeriodFrames * c.Channels }

// Period is the wall-clock length of one period.
func (c Config) Period() time.Duration {
	return time.Duration(c.PeriodFrames) * time.Second / time.Duration(c.SampleRate)
}

// Callback fills out, which is always PeriodSamples long. It runs on the
// device thread and must not block.
type Callback func(out []float32)

// Device is an opened audio output.
type Device interface {
	// Start begins calling the callback.
	Start() error
	// Pause stops or restarts the callback without releasing the device.
	Pause(paused bool) error
	Close() error
	Config() Config
}

// Opener opens a device that drives cb.
type Opener func(cfg Config, cb Callback, log *zap.Logger) (Device, error)
