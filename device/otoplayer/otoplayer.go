// SPDX-License-Identifier: EPL-2.0

// Package otoplayer plays through an oto v3 player. oto allows one
// context per process, so only one Device may be open at a time.
package otoplayer

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/ik5/audmix/device"
)

type Device struct {
	cfg device.Config
	log *zap.Logger
	blk *device.Blocker
	buf []float32

	mtx    sync.Mutex
	ctx    *oto.Context
	player *oto.Player
	closed bool
}

// Open creates the oto context and a player pulling from cb. It is a
// device.Opener.
func Open(cfg device.Config, cb device.Callback, log *zap.Logger) (device.Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	d := newDevice(cfg, cb, log.Named("oto"))

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   cfg.Period(),
	})
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready

	d.ctx = ctx
	d.player = ctx.NewPlayer(d)
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

// Read implements io.Reader for the oto player. It never ends the stream.
func (d *Device) Read(p []byte) (int, error) {
	n := len(p) / 4
	for off := 0; off < n; {
		s := d.buf[:min(len(d.buf), n-off)]
		d.blk.Fill(s)
		for i, v := range s {
			binary.LittleEndian.PutUint32(p[(off+i)*4:], math.Float32bits(v))
		}
		off += len(s)
	}
	return n * 4, nil
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
	if paused {
		d.player.Pause()
	} else {
		d.player.Play()
	}
	d.log.Debug("state", zap.Bool("playing", !paused))
	return d.player.Err()
}

func (d *Device) Close() error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.player.Close(); err != nil {
		return fmt.Errorf("oto player: %w", err)
	}
	return d.ctx.Suspend()
}
