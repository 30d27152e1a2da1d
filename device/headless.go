// SPDX-License-Identifier: EPL-2.0

package device

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Headless renders periods on a timer with no audio hardware. Each period
// goes to an optional sink.
type Headless struct {
	cfg  Config
	cb   Callback
	log  *zap.Logger
	sink func([]float32) error
	pace bool
	buf  []float32

	paused atomic.Bool

	mtx     sync.Mutex
	started bool
	closed  bool
	stop    chan struct{}
	done    chan struct{}
	err     error
}

type HeadlessOption func(*Headless)

// WithSink receives every rendered period. An error stops rendering and
// is returned by Close.
func WithSink(fn func([]float32) error) HeadlessOption {
	return func(h *Headless) { h.sink = fn }
}

// Unpaced renders as fast as the callback allows instead of in real time.
func Unpaced() HeadlessOption {
	return func(h *Headless) { h.pace = false }
}

func NewHeadless(cfg Config, cb Callback, log *zap.Logger, opts ...HeadlessOption) (*Headless, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	h := &Headless{
		cfg:  cfg,
		cb:   cb,
		log:  log.Named("headless"),
		pace: true,
		buf:  make([]float32, cfg.PeriodSamples()),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, o := range opts {
		o(h)
	}
	return h, nil
}

// OpenHeadless is an Opener for a paced headless device.
func OpenHeadless(cfg Config, cb Callback, log *zap.Logger) (Device, error) {
	return NewHeadless(cfg, cb, log)
}

func (h *Headless) Config() Config { return h.cfg }

func (h *Headless) Start() error {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	if h.closed {
		return ErrClosed
	}
	if h.started {
		return nil
	}
	h.started = true
	go h.loop()
	h.log.Debug("started", zap.Duration("period", h.cfg.Period()), zap.Bool("paced", h.pace))
	return nil
}

func (h *Headless) loop() {
	defer close(h.done)

	var tick <-chan time.Time
	if h.pace {
		t := time.NewTicker(h.cfg.Period())
		defer t.Stop()
		tick = t.C
	}

	for {
		if tick != nil {
			select {
			case <-h.stop:
				return
			case <-tick:
			}
		} else {
			select {
			case <-h.stop:
				return
			default:
			}
			if h.paused.Load() {
				time.Sleep(h.cfg.Period())
				continue
			}
		}

		if h.paused.Load() {
			continue
		}
		if err := h.Render(1); err != nil {
			h.log.Error("sink failed, rendering stopped", zap.Error(err))
			h.mtx.Lock()
			h.err = err
			h.mtx.Unlock()
			return
		}
	}
}

// Render runs n periods synchronously. It must not be mixed with Start.
func (h *Headless) Render(n int) error {
	for range n {
		h.cb(h.buf)
		if h.sink != nil {
			if err := h.sink(h.buf); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Headless) Pause(paused bool) error {
	h.paused.Store(paused)
	return nil
}

// Close stops rendering. It returns the sink error that stopped it early,
// if any.
func (h *Headless) Close() error {
	h.mtx.Lock()
	if h.closed {
		h.mtx.Unlock()
		return nil
	}
	h.closed = true
	started := h.started
	h.mtx.Unlock()

	if started {
		close(h.stop)
		<-h.done
	}

	h.mtx.Lock()
	defer h.mtx.Unlock()
	return h.err
}
