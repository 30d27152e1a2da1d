// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/audmix/config"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/device/beepspeaker"
	"github.com/ik5/audmix/device/miniaudio"
	"github.com/ik5/audmix/device/otoplayer"
	"github.com/ik5/audmix/device/wavfile"
	"github.com/ik5/audmix/mixer"
)

// System is an engine bound to a running output device.
type System struct {
	log    *zap.Logger
	engine *mixer.Engine
	dev    device.Device
}

// Option customizes Open.
type Option func(*options)

type options struct {
	opener device.Opener
}

// WithOpener overrides the backend named in the configuration.
func WithOpener(o device.Opener) Option {
	return func(opts *options) { opts.opener = o }
}

// Opener returns the device opener for cfg.Backend.
func Opener(cfg config.Config) (device.Opener, error) {
	switch cfg.Backend {
	case config.BackendMiniaudio:
		return miniaudio.Open, nil
	case config.BackendOto:
		return otoplayer.Open, nil
	case config.BackendBeep:
		return beepspeaker.Open, nil
	case config.BackendWav:
		return wavfile.Opener(cfg.Output, false), nil
	case config.BackendHeadless:
		return device.OpenHeadless, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}

// Open builds the engine from cfg, opens the output and starts playback.
// The refill worker does not run until Run is called.
func Open(cfg config.Config, log *zap.Logger, opts ...Option) (*System, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.opener == nil {
		op, err := Opener(cfg)
		if err != nil {
			return nil, err
		}
		o.opener = op
	}

	e, err := mixer.New(cfg.Mixer(log.Named("mixer")))
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	dcfg := device.Config{
		SampleRate:   e.SampleRate(),
		Channels:     2,
		PeriodFrames: e.BlockFrames(),
	}
	dev, err := o.opener(dcfg, e.Mix, log.Named("device"))
	if err != nil {
		return nil, fmt.Errorf("open %s output: %w", cfg.Backend, err)
	}
	if got := dev.Config(); got != dcfg {
		dev.Close()
		return nil, fmt.Errorf("%w: device opened as %+v", mixer.ErrDeviceConfigMismatch, got)
	}

	e.AttachDevice(dev)
	if err := e.Start(); err != nil {
		dev.Close()
		return nil, err
	}
	if err := dev.Start(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("start %s output: %w", cfg.Backend, err)
	}

	log.Info("audio system open",
		zap.String("backend", cfg.Backend),
		zap.Int("rate", dcfg.SampleRate),
		zap.Int("period_frames", dcfg.PeriodFrames),
	)
	return &System{log: log, engine: e, dev: dev}, nil
}

func (s *System) Engine() *mixer.Engine { return s.engine }

// Run hosts the refill worker until ctx ends or the engine fails. A
// cancelled ctx is not an error; a fatal engine error is returned.
func (s *System) Run(ctx context.Context) error {
	if err := s.engine.Err(); err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.engine.Run(gctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		select {
		case err := <-s.engine.Fatal():
			s.log.Error("audio subsystem failed", zap.Error(err))
			return err
		case <-gctx.Done():
			return nil
		}
	})

	return g.Wait()
}

// Close fades out, pauses and closes the device.
func (s *System) Close(ctx context.Context) error {
	err := s.engine.Shutdown(ctx)
	s.log.Info("audio system closed", zap.Error(err))
	return err
}
