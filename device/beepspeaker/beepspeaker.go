// SPDX-License-Identifier: EPL-2.0

// Package beepspeaker plays through the gopxl/beep speaker. The speaker
// is process-wide, so only one Device may be open at a time.
package beepspeaker

import (
	"fmt"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"github.com/ik5/audmix/device"
)

// Device streams the callback into the speaker. The speaker is always
// stereo; mono configs are rejected.
type Device struct {
	cfg device.Config
	log *zap.Logger
	blk *device.Blocker
	buf []float32

	mtx     sync.Mutex
	started bool
	closed  bool
}

// Open initializes the speaker with one period of buffering. It is a
// device.Opener.
func Open(cfg device.Config, cb device.Callback, log *zap.Logger) (device.Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Channels != 2 {
		return nil, fmt.Errorf("%w: speaker is stereo only", device.ErrInvalidConfig)
	}
	if log == nil {
		log = zap.NewNop()
	}

	if err := speaker.Init(beep.SampleRate(cfg.SampleRate), cfg.PeriodFrames); err != nil {
		return nil, fmt.Errorf("speaker init: %w", err)
	}
	return newDevice(cfg, cb, log.Named("beep")), nil
}

func newDevice(cfg device.Config, cb device.Callback, log *zap.Logger) *Device {
	return &Device{
		cfg: cfg,
		log: log,
		blk: device.NewBlocker(cfg, cb),
		buf: make([]float32, cfg.PeriodSamples()),
	}
}

// Stream implements beep.Streamer. It never drains.
func (d *Device) Stream(samples [][2]float64) (int, bool) {
	for off := 0; off < len(samples); {
		s := d.buf[:min(len(d.buf), 2*(len(samples)-off))]
		d.blk.Fill(s)
		for i := 0; i < len(s); i += 2 {
			samples[off][0] = float64(s[i])
			samples[off][1] = float64(s[i+1])
			off++
		}
	}
	return len(samples), true
}

func (d *Device) Err() error { return nil }

func (d *Device) Config() device.Config { return d.cfg }

func (d *Device) Start() error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if d.closed {
		return device.ErrClosed
	}
	if !d.started {
		speaker.Play(d)
		d.started = true
	}
	return nil
}

func (d *Device) Pause(paused bool) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if d.closed {
		return device.ErrClosed
	}
	if !d.started {
		return device.ErrNotStarted
	}
	d.log.Debug("state", zap.Bool("playing", !paused))
	if paused {
		return speaker.Suspend()
	}
	return speaker.Resume()
}

func (d *Device) Close() error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	speaker.Clear()
	speaker.Close()
	return nil
}
