// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"sync/atomic"

	"github.com/ik5/audmix/bank"
	"github.com/ik5/audmix/dsp"
)

// voiceSlot is one mixing channel.
//
// The atomics are shared with the control side. Everything below them is
// owned by the callback and only touched while draining commands or mixing.
type voiceSlot struct {
	status   atomic.Int32
	gen      atomic.Uint32
	priority atomic.Int32
	// mirrors of vol.Current and vol.Ticks for the allocator
	volume atomic.Int32
	fade   atomic.Int32

	asset     *bank.Asset
	cursor    int
	loop      bool
	loopStart int
	loopEnd   int
	finished  bool

	stream int // stream channel index, -1 for asset voices

	mute  bool
	vol   Envelope
	pan   Envelope
	pitch Envelope
	eq    dsp.Curve
	eqOn  bool
	dir   dsp.Curve
	dirOn bool

	// held voices wait for a stream to adopt them as its overlay.
	held    bool
	adopted bool
	heldFor int32

	ticked int64 // tick the envelopes last advanced on

	l, r dsp.Spectrum
}

func (s *voiceSlot) load() Status { return Status(s.status.Load()) }

func (s *voiceSlot) cas(from, to Status) bool {
	return s.status.CompareAndSwap(int32(from), int32(to))
}

// matches reports whether the slot still belongs to generation gen and is
// past Free.
func (s *voiceSlot) matches(gen uint32) bool {
	return s.gen.Load() == gen && s.load() > StatusFree
}

func (s *voiceSlot) syncMirrors() {
	s.volume.Store(s.vol.Current)
	s.fade.Store(s.vol.Ticks)
}
