// SPDX-License-Identifier: EPL-2.0

// Package miniaudio plays through the system default output with
// miniaudio, via malgo.
package miniaudio

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/ik5/audmix/device"
)

// Device is a miniaudio playback device.
type Device struct {
	cfg device.Config
	log *zap.Logger
	blk *device.Blocker
	buf []float32

	mtx     sync.Mutex
	ctx     *malgo.AllocatedContext
	dev     *malgo.Device
	running bool
	closed  bool
}

// Open initializes the default playback device. It is a device.Opener.
func Open(cfg device.Config, cb device.Callback, log *zap.Logger) (device.Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	d := newDevice(cfg, cb, log.Named("miniaudio"))

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		d.log.Debug(strings.TrimSpace(msg))
	})
	if err != nil {
		return nil, fmt.Errorf("miniaudio context: %w", err)
	}

	dc := malgo.DefaultDeviceConfig(malgo.Playback)
	dc.Playback.Format = malgo.FormatF32
	dc.Playback.Channels = uint32(cfg.Channels)
	dc.SampleRate = uint32(cfg.SampleRate)
	dc.PeriodSizeInFrames = uint32(cfg.PeriodFrames)

	dev, err := malgo.InitDevice(ctx.Context, dc, malgo.DeviceCallbacks{Data: d.data})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("miniaudio device: %w", err)
	}
	d.ctx, d.dev = ctx, dev
	return d, nil
}

func newDevice(cfg device.Config, cb device.Callback, log *zap.Logger) *Device {
	return &Device{
		cfg: cfg,
		log: log,
		blk: device.NewBlocker(cfg, cb),
		buf: make([]float32, cfg.PeriodSamples()),
	}
}

// data is the malgo callback. Periods rarely line up with what miniaudio
// asks for, so output goes through the blocker one buffer at a time.
func (d *Device) data(out, _ []byte, frames uint32) {
	n := min(int(frames)*d.cfg.Channels, len(out)/4)
	for off := 0; off < n; {
		s := d.buf[:min(len(d.buf), n-off)]
		d.blk.Fill(s)
		for i, v := range s {
			binary.LittleEndian.PutUint32(out[(off+i)*4:], math.Float32bits(v))
		}
		off += len(s)
	}
}

func (d *Device) Config() device.Config { return d.cfg }

func (d *Device) Start() error {
	return d.Pause(false)
}

func (d *Device) Pause(paused bool) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if d.closed {
		return device.ErrClosed
	}
	if paused == !d.running {
		return nil
	}
	var err error
	if paused {
		err = d.dev.Stop()
	} else {
		err = d.dev.Start()
	}
	if err != nil {
		return fmt.Errorf("miniaudio pause(%v): %w", paused, err)
	}
	d.running = !paused
	d.log.Debug("state", zap.Bool("running", d.running))
	return nil
}

func (d *Device) Close() error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.dev.Uninit()
	err := d.ctx.Uninit()
	d.ctx.Free()
	return err
}
