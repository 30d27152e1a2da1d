// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"sync/atomic"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/dsp"
)

// StreamState is the playback state of a stream channel.
type StreamState int32

const (
	StreamIdle StreamState = iota
	// StreamStarting is waiting for its first block.
	StreamStarting
	StreamPlaying
	StreamStopping
)

func (s StreamState) String() string {
	switch s {
	case StreamIdle:
		return "idle"
	case StreamStarting:
		return "starting"
	case StreamPlaying:
		return "playing"
	case StreamStopping:
		return "stopping"
	}
	return fmt.Sprintf("stream(%d)", int32(s))
}

// Segment is one unit of stream content: encoded bytes at the engine rate,
// or a Source the refill worker reads and encodes.
type Segment struct {
	Data     []byte
	Bitrate  int
	Channels int
	// Source, when set, replaces Data. It must already run at the engine
	// sample rate; the stream closes it.
	Source audio.Source

	EQ     *dsp.Curve
	Delay  *dsp.DelayModel
	Effect *dsp.Effect
	// Overlay names a voice started with PlayParams.Overlay to mix under
	// this segment, at OverlayLevel.
	Overlay      Handle
	OverlayLevel int32
}

// StreamParams configures the voice a stream plays on.
type StreamParams struct {
	Priority Priority
	Volume   int32
	Pan      int32
	FadeIn   int32
	// Delay is the default delay line for segments without their own.
	Delay *dsp.DelayModel
}

// segmentParams is the per-segment processing, held by value so the
// callback never follows a caller's pointer.
type segmentParams struct {
	eq           dsp.Curve
	hasEQ        bool
	delay        dsp.DelayModel
	hasDelay     bool
	effect       dsp.Effect
	hasEffect    bool
	overlay      Handle
	overlayLevel int32
}

type queuedSegment struct {
	data     []byte
	src      audio.Source
	bitrate  int
	channels int
	params   segmentParams
}

type blockStatus int32

const (
	blockEmpty blockStatus = iota
	blockFilled
	blockInUse
)

// transferBlock hands encoded audio from the refill worker to the
// callback. The refill worker writes it only while Empty; the callback
// reads it only while Filled or InUse.
type transferBlock struct {
	status atomic.Int32

	data     []byte
	n        int
	seq      uint64
	last     bool
	bitrate  int
	channels int
	params   segmentParams

	cursor int // callback owned
}

// voiceRef names a slot at a given generation; slot -1 is none. level is
// the mix level of an adopted overlay.
type voiceRef struct {
	slot  int
	gen   uint32
	level int32
}

var noVoice = voiceRef{slot: -1}

func (r voiceRef) handle() Handle {
	if r.slot < 0 {
		return Handle{}
	}
	return Handle{Generation: r.gen, Index: uint16(r.slot)}
}

// streamChannel is one streaming source bound to a voice slot.
//
// Segments flow from the control side through segs, counted by write
// (control), queue (refill) and play (callback), with
// play <= queue <= write and write-play <= len(segs).
type streamChannel struct {
	state atomic.Int32
	live  atomic.Bool
	flush atomic.Bool
	write atomic.Uint64
	play  atomic.Uint64

	segs   []queuedSegment
	blocks [2]transferBlock

	// control owned, under Engine.mu
	claimed bool
	slot    int

	// refill owned
	queue     uint64
	fillBlock int
	cur       *queuedSegment
	curOff    int

	// callback owned
	readBlock int
	seq       uint64
	begun     bool
	params    segmentParams
	defDelay  dsp.DelayModel
	hasDefDly bool
	line      *dsp.DelayLine
	fx        dsp.EffectState
	overlay   voiceRef
	fading    voiceRef
}

func (st *streamChannel) init(queue, blockBytes int, line *dsp.DelayLine) {
	st.segs = make([]queuedSegment, queue)
	for i := range st.blocks {
		st.blocks[i].data = make([]byte, blockBytes)
	}
	st.line = line
	st.slot = -1
	st.overlay, st.fading = noVoice, noVoice
}

// enqueue appends q. Callers hold Engine.mu and have checked capacity.
func (st *streamChannel) enqueue(q queuedSegment) {
	w := st.write.Load()
	st.segs[w%uint64(len(st.segs))] = q
	st.write.Store(w + 1)
}

func (st *streamChannel) full() bool {
	return st.write.Load()-st.play.Load() >= uint64(len(st.segs))
}

// prepare validates seg and copies what the callback needs.
func (e *Engine) prepare(seg *Segment) (queuedSegment, error) {
	q := queuedSegment{
		data:     seg.Data,
		src:      seg.Source,
		bitrate:  seg.Bitrate,
		channels: seg.Channels,
	}

	if q.src != nil {
		if q.src.SampleRate() != e.cfg.SampleRate {
			return q, fmt.Errorf("%w: segment source is %d Hz", ErrUnsupportedAsset, q.src.SampleRate())
		}
		if c := q.src.Channels(); c != 1 && c != 2 {
			return q, fmt.Errorf("%w: segment source has %d channels", ErrUnsupportedAsset, c)
		}
		q.data, q.bitrate, q.channels = nil, 16, q.src.Channels()
	} else {
		if q.channels != 1 && q.channels != 2 || q.bitrate != 8 && q.bitrate != 16 {
			return q, fmt.Errorf("%w: segment %d ch %d bit", ErrUnsupportedAsset, q.channels, q.bitrate)
		}
		if len(q.data)%(q.channels*q.bitrate/8) != 0 {
			return q, fmt.Errorf("%w: segment is not whole frames", ErrUnsupportedAsset)
		}
	}

	if seg.EQ != nil {
		q.params.eq, q.params.hasEQ = *seg.EQ, true
	}
	if seg.Delay != nil {
		if err := seg.Delay.Validate(); err != nil {
			return q, err
		}
		q.params.delay, q.params.hasDelay = *seg.Delay, true
	}
	if seg.Effect != nil && seg.Effect.Kind != dsp.EffectNone {
		q.params.effect, q.params.hasEffect = *seg.Effect, true
	}
	q.params.overlay = seg.Overlay
	q.params.overlayLevel = max(VolumeMin, min(seg.OverlayLevel, VolumeMax))
	return q, nil
}

// StartStream claims a stream channel and a voice for it and queues its
// first segment.
func (e *Engine) StartStream(p StreamParams, first Segment) (Handle, error) {
	q, err := e.prepare(&first)
	if err != nil {
		return Handle{}, err
	}
	if p.Delay != nil {
		if err := p.Delay.Validate(); err != nil {
			return Handle{}, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmds.space() < 1 {
		return Handle{}, ErrCommandQueueFull
	}
	si := -1
	for i := range e.streams {
		if !e.streams[i].claimed {
			si = i
			break
		}
	}
	if si < 0 {
		return Handle{}, ErrNoStreamAvailable
	}

	idx, err := e.admit(p.Priority)
	if err != nil {
		return Handle{}, err
	}
	e.slotStreams[idx] = si

	st := &e.streams[si]
	st.claimed = true
	st.slot = idx
	st.hasDefDly = p.Delay != nil
	if p.Delay != nil {
		st.defDelay = *p.Delay
	}
	st.state.Store(int32(StreamStarting))
	st.enqueue(q)

	play := PlayParams{Priority: p.Priority, Volume: p.Volume, Pan: p.Pan, Pitch: PitchUnity, FadeIn: p.FadeIn}
	h := e.start(idx, play)
	e.cmds.push(&command{kind: cmdStream, slot: h.Index, gen: h.Generation, stream: si, play: play})
	st.live.Store(true)
	e.signal()
	return h, nil
}

// QueueSegment appends seg to the stream playing on h. On error the
// caller keeps ownership of seg.Source.
func (e *Engine) QueueSegment(h Handle, seg Segment) error {
	q, err := e.prepare(&seg)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.validate(h); err != nil {
		return err
	}
	si := e.slotStreams[h.Index]
	if si < 0 {
		return fmt.Errorf("%w: %v", ErrNotStream, h)
	}
	st := &e.streams[si]
	if st.full() {
		return ErrSegmentQueueFull
	}
	st.enqueue(q)
	e.signal()
	return nil
}

// StreamState reports the state of the stream on h.
func (e *Engine) StreamState(h Handle) (StreamState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.validate(h); err != nil {
		return StreamIdle, err
	}
	si := e.slotStreams[h.Index]
	if si < 0 {
		return StreamIdle, fmt.Errorf("%w: %v", ErrNotStream, h)
	}
	return StreamState(e.streams[si].state.Load()), nil
}

// Queued is the number of segments of the stream on h not yet played out.
func (e *Engine) Queued(h Handle) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.validate(h); err != nil {
		return 0, err
	}
	si := e.slotStreams[h.Index]
	if si < 0 {
		return 0, fmt.Errorf("%w: %v", ErrNotStream, h)
	}
	st := &e.streams[si]
	return int(st.write.Load() - st.play.Load()), nil
}
