// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/audmix/dsp"
)

// MaxVoices is the largest supported voice pool.
const MaxVoices = 64

// Codec block sizes per quality mode.
const (
	NormalBlockFrames = 1024
	LowBlockFrames    = 512
)

// Auto-downgrade halves the codec bandwidth after this many consecutive
// callbacks that used more than downgradeLoad of the period.
const (
	downgradeAfter = 8
	downgradeLoad  = 0.75
)

// StreamBlockPeriods is the size of a stream transfer block in codec blocks.
const StreamBlockPeriods = 4

// Quality selects the codec block size and downgrade behaviour.
type Quality int

const (
	QualityNormal Quality = iota
	QualityAutoDowngrade
	QualityLow
)

func (q Quality) String() string {
	switch q {
	case QualityNormal:
		return "normal"
	case QualityAutoDowngrade:
		return "auto_downgrade"
	case QualityLow:
		return "low_quality"
	}
	return fmt.Sprintf("quality(%d)", int(q))
}

// Config sizes and tunes an Engine. Start from DefaultConfig; zero sizes,
// timings and AlwaysAdmit are filled in from it, other fields are taken
// as given. Use AlwaysAdmitLowest for a ceiling of PriorityLowest.
type Config struct {
	SampleRate int
	Voices     int
	// Streams is the number of stream channels; each playing stream also
	// holds one voice.
	Streams int
	// ReservedHeadroom voices are kept for requests above AlwaysAdmit.
	ReservedHeadroom int
	AlwaysAdmit      Priority
	Quality          Quality

	// FadeOutTicks is the stop fade applied by Pause.
	FadeOutTicks int32
	// PauseTimeoutPeriods bounds how long Pause waits for the fade.
	PauseTimeoutPeriods int

	SwapChannels bool
	// MasterEQ is applied to the final mix; nil is flat.
	MasterEQ *dsp.Curve

	CommandQueue int
	SegmentQueue int

	// Codec overrides the FFT codec built from SampleRate and Quality.
	Codec dsp.Codec
	// Logger receives lifecycle and deferred callback events.
	Logger *zap.Logger
	// Now is the clock used to measure callback load.
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		SampleRate:          48000,
		Voices:              32,
		Streams:             4,
		ReservedHeadroom:    2,
		AlwaysAdmit:         PriorityHigh,
		Quality:             QualityNormal,
		FadeOutTicks:        8,
		PauseTimeoutPeriods: 16,
		CommandQueue:        256,
		SegmentQueue:        8,
	}
}

// BlockFrames is the codec block, and device period, for q.
func (q Quality) BlockFrames() int {
	if q == QualityLow {
		return LowBlockFrames
	}
	return NormalBlockFrames
}

func (c *Config) withDefaults() {
	def := DefaultConfig()
	if c.SampleRate == 0 {
		c.SampleRate = def.SampleRate
	}
	if c.Voices == 0 {
		c.Voices = def.Voices
	}
	if c.Streams == 0 {
		c.Streams = def.Streams
	}
	switch c.AlwaysAdmit {
	case 0:
		c.AlwaysAdmit = def.AlwaysAdmit
	case AlwaysAdmitLowest:
		c.AlwaysAdmit = PriorityLowest
	}
	if c.FadeOutTicks == 0 {
		c.FadeOutTicks = def.FadeOutTicks
	}
	if c.PauseTimeoutPeriods == 0 {
		c.PauseTimeoutPeriods = def.PauseTimeoutPeriods
	}
	if c.CommandQueue == 0 {
		c.CommandQueue = def.CommandQueue
	}
	if c.SegmentQueue == 0 {
		c.SegmentQueue = def.SegmentQueue
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

func (c *Config) validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.Voices < 1 || c.Voices > MaxVoices:
		return fmt.Errorf("%w: voices %d outside 1..%d", ErrInvalidConfig, c.Voices, MaxVoices)
	case c.Streams < 0:
		return fmt.Errorf("%w: streams %d", ErrInvalidConfig, c.Streams)
	case c.ReservedHeadroom < 0 || c.ReservedHeadroom >= c.Voices:
		return fmt.Errorf("%w: headroom %d must be below voices", ErrInvalidConfig, c.ReservedHeadroom)
	case c.Quality < QualityNormal || c.Quality > QualityLow:
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Quality)
	case c.AlwaysAdmit < PriorityLowest || c.AlwaysAdmit > PriorityCritical:
		return fmt.Errorf("%w: always-admit priority %d", ErrInvalidConfig, c.AlwaysAdmit)
	case c.FadeOutTicks < 0 || c.PauseTimeoutPeriods < 1:
		return fmt.Errorf("%w: fade/pause timing", ErrInvalidConfig)
	case int(c.FadeOutTicks) > c.PauseTimeoutPeriods:
		return fmt.Errorf("%w: fade of %d ticks outlasts the %d period pause timeout",
			ErrInvalidConfig, c.FadeOutTicks, c.PauseTimeoutPeriods)
	case c.CommandQueue < 2 || c.SegmentQueue < 1:
		return fmt.Errorf("%w: queue sizes", ErrInvalidConfig)
	}
	if c.Codec != nil && c.Codec.SampleRate() != c.SampleRate {
		return fmt.Errorf("%w: codec rate %d differs from %d", ErrInvalidConfig, c.Codec.SampleRate(), c.SampleRate)
	}
	return nil
}
