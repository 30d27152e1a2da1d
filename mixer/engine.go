// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/audmix/bank"
	"github.com/ik5/audmix/dsp"
)

// Device is the part of an output device the lifecycle drives.
type Device interface {
	Pause(paused bool) error
	Close() error
}

// Engine mixes a fixed pool of voices into one stereo output block per
// device callback.
//
// Control methods may be called from any goroutine; they are serialized
// internally and never block on the callback. Mix must only be called by
// the device callback. Run hosts the refill worker that feeds streams.
type Engine struct {
	cfg         Config
	log         *zap.Logger
	codec       dsp.Codec
	blockFrames int
	period      time.Duration

	mu          sync.Mutex
	gen         uint32
	dev         Device
	slotStreams []int // stream index per slot as last claimed, -1 for none

	slots   []voiceSlot
	streams []streamChannel
	inUse   atomic.Int32
	cmds    ring

	state    atomic.Int32
	tick     atomic.Int64
	deadline atomic.Int64
	stopped  chan struct{}
	fatal    chan error
	fatalErr atomic.Pointer[error]
	wake     chan struct{}
	swap     atomic.Bool

	stats counters

	// callback owned
	now      int64
	masterL  dsp.Spectrum
	masterR  dsp.Spectrum
	masterEQ dsp.Curve
	scratch  []byte
	overload int

	// refill owned
	srcBuf []float32
	logged loggedCounters
}

// New allocates every buffer the engine will use.
func New(cfg Config) (*Engine, error) {
	cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	codec := cfg.Codec
	if codec == nil {
		c, err := dsp.NewFFTCodec(cfg.SampleRate, cfg.Quality.BlockFrames())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		codec = c
	}
	frames := codec.BlockFrames()

	e := &Engine{
		cfg:         cfg,
		log:         cfg.Logger.Named("mixer"),
		codec:       codec,
		blockFrames: frames,
		period:      time.Duration(frames) * time.Second / time.Duration(cfg.SampleRate),
		gen:         1,
		slotStreams: make([]int, cfg.Voices),
		slots:       make([]voiceSlot, cfg.Voices),
		streams:     make([]streamChannel, cfg.Streams),
		cmds:        newRing(cfg.CommandQueue),
		stopped:     make(chan struct{}, 1),
		fatal:       make(chan error, 1),
		wake:        make(chan struct{}, 1),
		masterL:     codec.NewSpectrum(),
		masterR:     codec.NewSpectrum(),
		masterEQ:    dsp.Flat(),
		scratch:     make([]byte, codec.BlockBytes(2, 16)),
		srcBuf:      make([]float32, StreamBlockPeriods*frames*2),
	}
	if cfg.MasterEQ != nil {
		e.masterEQ = *cfg.MasterEQ
	}
	e.swap.Store(cfg.SwapChannels)

	for i := range e.slots {
		s := &e.slots[i]
		s.stream = -1
		s.l = codec.NewSpectrum()
		s.r = codec.NewSpectrum()
		e.slotStreams[i] = -1
	}
	blockBytes := StreamBlockPeriods * codec.BlockBytes(2, 16)
	for i := range e.streams {
		e.streams[i].init(cfg.SegmentQueue, blockBytes, codec.NewDelayLine())
	}

	return e, nil
}

// BlockFrames is the number of frames Mix produces per call.
func (e *Engine) BlockFrames() int { return e.blockFrames }

// SampleRate of the output.
func (e *Engine) SampleRate() int { return e.cfg.SampleRate }

// Period is the wall-clock length of one block; one envelope tick.
func (e *Engine) Period() time.Duration { return e.period }

// Voices is the size of the voice pool.
func (e *Engine) Voices() int { return len(e.slots) }

// ActiveVoices is the number of slots past Free.
func (e *Engine) ActiveVoices() int { return int(e.inUse.Load()) }

// mint issues the next generation for slot idx. Callers hold e.mu.
func (e *Engine) mint(idx int) Handle {
	g := e.gen
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	e.slots[idx].gen.Store(g)
	return Handle{Generation: g, Index: uint16(idx)}
}

// validate returns the slot for h. Callers hold e.mu.
func (e *Engine) validate(h Handle) (*voiceSlot, error) {
	if h.IsZero() || int(h.Index) >= len(e.slots) || !e.slots[h.Index].matches(h.Generation) {
		e.stats.invalidHandles.Add(1)
		e.log.Debug("invalid handle", zap.Stringer("handle", h))
		return nil, fmt.Errorf("%w: %v", ErrInvalidHandle, h)
	}
	return &e.slots[h.Index], nil
}

// Valid reports whether h still refers to a live voice.
func (e *Engine) Valid(h Handle) bool {
	return !h.IsZero() && int(h.Index) < len(e.slots) && e.slots[h.Index].matches(h.Generation)
}

// Status returns the state of the voice behind h.
func (e *Engine) Status(h Handle) (Status, error) {
	if !e.Valid(h) {
		return StatusFree, fmt.Errorf("%w: %v", ErrInvalidHandle, h)
	}
	return e.slots[h.Index].load(), nil
}

// Play starts asset on a new voice.
func (e *Engine) Play(asset *bank.Asset, p PlayParams) (Handle, error) {
	if asset == nil || asset.SampleRate != e.cfg.SampleRate {
		return Handle{}, e.unsupported(asset)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmds.space() < 1 {
		return Handle{}, ErrCommandQueueFull
	}
	if err := asset.Bank().Acquire(); err != nil {
		return Handle{}, fmt.Errorf("play %q: %w", asset.Name, err)
	}

	idx, err := e.admit(p.Priority)
	if err != nil {
		asset.Bank().Release()
		return Handle{}, err
	}
	e.slotStreams[idx] = -1

	h := e.start(idx, p)
	e.cmds.push(&command{kind: cmdPlay, slot: h.Index, gen: h.Generation, asset: asset, play: p})
	return h, nil
}

func (e *Engine) unsupported(asset *bank.Asset) error {
	if asset == nil {
		return fmt.Errorf("%w: nil asset", ErrUnsupportedAsset)
	}
	return fmt.Errorf("%w: %q is %d Hz, engine runs at %d Hz",
		ErrUnsupportedAsset, asset.Name, asset.SampleRate, e.cfg.SampleRate)
}

// admit claims a slot and updates the counters. Callers hold e.mu.
func (e *Engine) admit(prio Priority) (int, error) {
	idx, stolen, err := e.claim(prio)
	if err != nil {
		e.stats.dropped.Add(1)
		return 0, err
	}
	if stolen {
		e.stats.stolen.Add(1)
	}
	e.stats.played.Add(1)
	return idx, nil
}

// start mints a handle for a freshly claimed slot and seeds the atomics
// the allocator reads before the callback picks the voice up.
func (e *Engine) start(idx int, p PlayParams) Handle {
	s := &e.slots[idx]
	s.priority.Store(int32(max(p.Priority, PriorityLowest)))
	if p.FadeIn > 0 {
		s.volume.Store(VolumeMin)
		s.fade.Store(p.FadeIn)
	} else {
		s.volume.Store(volumeEnvelope(p.Volume).Current)
		s.fade.Store(0)
	}
	return e.mint(idx)
}

// send validates h and queues c for its voice.
func (e *Engine) send(h Handle, c command) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.validate(h); err != nil {
		return err
	}
	c.slot, c.gen = h.Index, h.Generation
	if !e.cmds.push(&c) {
		return ErrCommandQueueFull
	}
	return nil
}

// Stop fades the voice out over ticks periods and frees it. A zero
// duration frees it on the next callback.
func (e *Engine) Stop(h Handle, ticks int32) error {
	return e.send(h, command{kind: cmdStop, ticks: max(ticks, 0)})
}

// SetVolume ramps the volume to v over ticks periods. It is ignored while
// the voice is stopping.
func (e *Engine) SetVolume(h Handle, v, ticks int32) error {
	return e.send(h, command{kind: cmdVolume, value: v, ticks: ticks})
}

// SetPan ramps the pan angle, taking the shorter way round.
func (e *Engine) SetPan(h Handle, pan, ticks int32) error {
	return e.send(h, command{kind: cmdPan, value: pan, ticks: ticks})
}

// SetPitch ramps the pitch ratio, in thousandths.
func (e *Engine) SetPitch(h Handle, pitch, ticks int32) error {
	return e.send(h, command{kind: cmdPitch, value: pitch, ticks: ticks})
}

func (e *Engine) SetMute(h Handle, mute bool) error {
	return e.send(h, command{kind: cmdMute, flag: mute})
}

// SetEQ sets the voice equalizer; nil removes it.
func (e *Engine) SetEQ(h Handle, c *dsp.Curve) error {
	cmd := command{kind: cmdEQ}
	if c != nil {
		cmd.curve, cmd.flag = *c, true
	}
	return e.send(h, cmd)
}

// SetDirectional sets the directional filter; nil disables it.
func (e *Engine) SetDirectional(h Handle, c *dsp.Curve) error {
	cmd := command{kind: cmdDirectional}
	if c != nil {
		cmd.curve, cmd.flag = *c, true
	}
	return e.send(h, cmd)
}

// EndLoop lets a looping voice run on to the end of its data.
func (e *Engine) EndLoop(h Handle) error {
	return e.send(h, command{kind: cmdEndLoop})
}

// Restart moves the play cursor back to the start of the asset.
func (e *Engine) Restart(h Handle) error {
	return e.send(h, command{kind: cmdRestart})
}

// SetMasterEQ replaces the master equalizer; nil is flat.
func (e *Engine) SetMasterEQ(c *dsp.Curve) error {
	cmd := command{kind: cmdMasterEQ, curve: dsp.Flat()}
	if c != nil {
		cmd.curve = *c
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.cmds.push(&cmd) {
		return ErrCommandQueueFull
	}
	return nil
}

// SetSwapChannels swaps left and right on output.
func (e *Engine) SetSwapChannels(swap bool) {
	e.swap.Store(swap)
}
