// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// EngineState is the output lifecycle.
type EngineState int32

const (
	// EngineFree is a new engine that has not been started.
	EngineFree EngineState = iota
	EnginePlaying
	// EngineStopping is fading every voice out before the device pauses.
	EngineStopping
	EngineStopped
)

func (s EngineState) String() string {
	switch s {
	case EngineFree:
		return "free"
	case EnginePlaying:
		return "playing"
	case EngineStopping:
		return "stopping"
	case EngineStopped:
		return "stopped"
	}
	return fmt.Sprintf("engine(%d)", int32(s))
}

// State is the current lifecycle state.
func (e *Engine) State() EngineState { return EngineState(e.state.Load()) }

// AttachDevice sets the device Pause, Resume and Shutdown drive. The
// device must call Mix from its callback.
func (e *Engine) AttachDevice(d Device) {
	e.mu.Lock()
	e.dev = d
	e.mu.Unlock()
}

// Start moves a new engine to Playing.
func (e *Engine) Start() error {
	if !e.state.CompareAndSwap(int32(EngineFree), int32(EnginePlaying)) {
		return fmt.Errorf("%w: start from %v", ErrInvalidState, e.State())
	}
	e.log.Info("engine started",
		zap.Int("rate", e.cfg.SampleRate),
		zap.Int("block", e.blockFrames),
		zap.Int("voices", len(e.slots)),
		zap.Stringer("quality", e.cfg.Quality),
	)
	return nil
}

// Pause fades every voice out over FadeOutTicks and pauses the device. It
// waits at most PauseTimeoutPeriods periods for the callback, then stops
// regardless.
func (e *Engine) Pause(ctx context.Context) error {
	e.mu.Lock()
	if e.State() != EnginePlaying {
		st := e.State()
		e.mu.Unlock()
		return fmt.Errorf("%w: pause from %v", ErrInvalidState, st)
	}
	if !e.cmds.push(&command{kind: cmdStopAll, ticks: e.cfg.FadeOutTicks}) {
		e.mu.Unlock()
		return ErrCommandQueueFull
	}
	select {
	case <-e.stopped:
	default:
	}
	e.deadline.Store(e.tick.Load() + int64(e.cfg.FadeOutTicks))
	e.state.Store(int32(EngineStopping))
	dev := e.dev
	e.mu.Unlock()

	timer := time.NewTimer(time.Duration(e.cfg.PauseTimeoutPeriods) * e.period)
	defer timer.Stop()

	select {
	case <-e.stopped:
	case <-timer.C:
		e.log.Warn("pause fade timed out, stopping now")
		e.state.Store(int32(EngineStopped))
	case <-ctx.Done():
		e.log.Warn("pause cancelled, stopping now", zap.Error(ctx.Err()))
		e.state.Store(int32(EngineStopped))
	}

	if dev != nil {
		if err := dev.Pause(true); err != nil {
			return fmt.Errorf("pause device: %w", err)
		}
	}
	e.log.Info("engine paused")
	return nil
}

// Deactivate stops output at once, without a fade.
func (e *Engine) Deactivate() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.Store(int32(EngineStopped))
	if e.dev != nil {
		if err := e.dev.Pause(true); err != nil {
			return fmt.Errorf("pause device: %w", err)
		}
	}
	e.log.Info("engine deactivated")
	return nil
}

// Resume restarts output after Pause or Deactivate. Voices faded out by
// Pause are gone; anything started since plays on.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fatalErr.Load() != nil {
		return e.Err()
	}
	if !e.state.CompareAndSwap(int32(EngineStopped), int32(EnginePlaying)) {
		return fmt.Errorf("%w: resume from %v", ErrInvalidState, e.State())
	}
	if e.dev != nil {
		if err := e.dev.Pause(false); err != nil {
			return fmt.Errorf("resume device: %w", err)
		}
	}
	e.log.Info("engine resumed")
	return nil
}

// Shutdown pauses a playing engine and closes the device.
func (e *Engine) Shutdown(ctx context.Context) error {
	var errs []error
	if e.State() == EnginePlaying {
		errs = append(errs, e.Pause(ctx))
	}

	e.mu.Lock()
	e.state.Store(int32(EngineStopped))
	dev := e.dev
	e.dev = nil
	e.mu.Unlock()

	if dev != nil {
		errs = append(errs, dev.Close())
	}
	e.log.Info("engine shut down")
	return errors.Join(errs...)
}

// Fatal delivers the first unrecoverable callback error.
func (e *Engine) Fatal() <-chan error { return e.fatal }

// Err returns the first unrecoverable callback error, if any.
func (e *Engine) Err() error {
	if p := e.fatalErr.Load(); p != nil {
		return *p
	}
	return nil
}
