// SPDX-License-Identifier: EPL-2.0

// Package wavfile is a headless device that records its output to a
// 16-bit WAV file.
package wavfile

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/formats/wav"
)

type Device struct {
	*device.Headless

	file   *os.File
	w      *wav.Writer
	log    *zap.Logger
	closed bool
}

// Opener returns a device.Opener that records to path. Output is paced in
// real time unless fast is set.
func Opener(path string, fast bool) device.Opener {
	return func(cfg device.Config, cb device.Callback, log *zap.Logger) (device.Device, error) {
		return Open(path, fast, cfg, cb, log)
	}
}

func Open(path string, fast bool, cfg device.Config, cb device.Callback, log *zap.Logger) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wav output: %w", err)
	}
	d := &Device{
		file: f,
		w:    wav.NewWriter(f, cfg.SampleRate, cfg.Channels),
		log:  log.Named("wavfile").With(zap.String("path", path)),
	}

	opts := []device.HeadlessOption{device.WithSink(d.w.Write)}
	if fast {
		opts = append(opts, device.Unpaced())
	}
	d.Headless, err = device.NewHeadless(cfg, cb, log, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return d, nil
}

// Close stops rendering and finalizes the file header.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	errs := []error{d.Headless.Close(), d.w.Close(), d.file.Close()}
	d.log.Info("recorded", zap.Int("frames", d.w.Frames()))
	return errors.Join(errs...)
}
