// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"fmt"
	"time"

	"github.com/ik5/audmix/dsp"
	"github.com/ik5/audmix/utils"
)

// Mix renders one block of interleaved stereo into out. It is the device
// callback: it never blocks, allocates or logs.
func (e *Engine) Mix(out []float32) {
	if len(out) != e.blockFrames*2 {
		e.fail(out)
		return
	}

	e.stats.callbacks.Add(1)
	e.drain()
	tick := e.tick.Add(1)
	e.now = tick

	state := EngineState(e.state.Load())
	if state != EnginePlaying && state != EngineStopping {
		clear(out)
		return
	}

	timed := e.cfg.Quality == QualityAutoDowngrade && !e.stats.downgraded.Load()
	var began time.Time
	if timed {
		began = e.cfg.Now()
	}

	e.masterL.Clear()
	e.masterR.Clear()
	for i := range e.slots {
		e.mixSlot(i)
	}

	e.codec.Equalize(e.masterL, &e.masterEQ)
	e.codec.Equalize(e.masterR, &e.masterEQ)
	if e.swap.Load() {
		e.codec.InverseTransform(out, e.masterR, e.masterL)
	} else {
		e.codec.InverseTransform(out, e.masterL, e.masterR)
	}
	for i, v := range out {
		out[i] = utils.ClampFloat32(v)
	}

	if state == EngineStopping && tick >= e.deadline.Load() {
		e.state.Store(int32(EngineStopped))
		select {
		case e.stopped <- struct{}{}:
		default:
		}
	}
	if timed {
		e.measure(e.cfg.Now().Sub(began))
	}
	e.signal()
}

func (e *Engine) fail(out []float32) {
	err := fmt.Errorf("%w: got %d samples, want %d", ErrDeviceConfigMismatch, len(out), e.blockFrames*2)
	if e.fatalErr.CompareAndSwap(nil, &err) {
		select {
		case e.fatal <- err:
		default:
		}
	}
	e.state.Store(int32(EngineStopped))
	clear(out)
}

// measure tracks callback load and halves the codec bandwidth once after
// sustained overload.
func (e *Engine) measure(spent time.Duration) {
	if float64(spent) > downgradeLoad*float64(e.period) {
		e.overload++
	} else {
		e.overload = 0
	}
	if e.overload >= downgradeAfter {
		e.codec.SetBandwidth(e.codec.Bandwidth() / 2)
		e.stats.downgraded.Store(true)
	}
}

func (e *Engine) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Engine) drain() {
	for c := e.cmds.peek(); c != nil; c = e.cmds.peek() {
		e.apply(c)
		e.cmds.pop()
	}
}

func (e *Engine) apply(c *command) {
	switch c.kind {
	case cmdPlay, cmdStream:
		e.startVoice(c)
		return
	case cmdStopAll:
		for i := range e.slots {
			if st := e.slots[i].load(); st.audible() || st == StatusStopping {
				e.stopVoice(i, c.ticks)
			}
		}
		return
	case cmdMasterEQ:
		e.masterEQ = c.curve
		return
	}

	i := int(c.slot)
	s := &e.slots[i]
	st := s.load()
	if s.gen.Load() != c.gen || st <= StatusInUse {
		return
	}

	switch c.kind {
	case cmdStop:
		e.stopVoice(i, c.ticks)
	case cmdVolume:
		if st != StatusStopping {
			s.vol.StartRamp(c.value, c.ticks)
			s.syncMirrors()
		}
	case cmdPan:
		s.pan.StartRamp(c.value, c.ticks)
	case cmdPitch:
		s.pitch.StartRamp(c.value, c.ticks)
	case cmdMute:
		s.mute = c.flag
	case cmdEQ:
		s.eq, s.eqOn = c.curve, c.flag
	case cmdDirectional:
		s.dir, s.dirOn = c.curve, c.flag
	case cmdEndLoop:
		s.loop = false
		s.cas(StatusPlaying, StatusLoopEnd)
	case cmdRestart:
		if s.stream < 0 && st.audible() {
			s.cas(st, StatusRestart)
		}
	}
}

func (e *Engine) startVoice(c *command) {
	s := &e.slots[c.slot]
	if s.gen.Load() != c.gen {
		// Stolen again before it started.
		if c.asset != nil {
			c.asset.Bank().Release()
		}
		return
	}
	e.detach(int(c.slot))

	p := &c.play
	s.asset = c.asset
	s.cursor = 0
	s.finished = false
	s.stream = -1
	s.loop = false
	if a := c.asset; a != nil {
		s.loop = p.Loop == LoopOn || (p.Loop == LoopDefault && a.Loop)
		s.loopStart, s.loopEnd = a.LoopStart, a.LoopEnd
	}

	s.mute = p.Mute
	if p.FadeIn > 0 {
		s.vol = volumeEnvelope(VolumeMin)
		s.vol.StartRamp(p.Volume, p.FadeIn)
	} else {
		s.vol = volumeEnvelope(p.Volume)
	}
	s.pan = panEnvelope(p.Pan)
	pitch := p.Pitch
	if pitch == 0 {
		pitch = PitchUnity
	}
	s.pitch = pitchEnvelope(pitch)
	s.eqOn, s.dirOn = false, false
	s.held, s.adopted, s.heldFor = p.Overlay, false, 0

	if c.kind == cmdStream {
		s.stream = c.stream
		e.beginStream(c.stream)
	}

	s.syncMirrors()
	s.status.Store(int32(StatusPlaying))
}

// stopVoice fades slot i to silence over ticks; zero retires it at once.
func (e *Engine) stopVoice(i int, ticks int32) {
	s := &e.slots[i]
	if ticks <= 0 {
		e.retire(i)
		return
	}
	for {
		st := s.load()
		if st == StatusStopping {
			break
		}
		if !st.audible() {
			return
		}
		if s.cas(st, StatusStopping) {
			break
		}
	}
	s.vol.StartRamp(VolumeMin, ticks)
	s.syncMirrors()
	if s.stream >= 0 {
		e.streams[s.stream].state.Store(int32(StreamStopping))
	}
}

// retire frees slot i unless the allocator has already taken it.
func (e *Engine) retire(i int) {
	s := &e.slots[i]
	for {
		st := s.load()
		if st <= StatusInUse {
			return
		}
		if s.cas(st, StatusFree) {
			break
		}
	}
	e.inUse.Add(-1)
	e.detach(i)
}

// detach drops whatever the slot was playing.
func (e *Engine) detach(i int) {
	s := &e.slots[i]
	if s.asset != nil {
		s.asset.Bank().Release()
		s.asset = nil
	}
	if s.stream >= 0 {
		e.endStream(s.stream)
		s.stream = -1
	}
	s.held, s.adopted, s.finished = false, false, false
}

func (e *Engine) mixSlot(i int) {
	s := &e.slots[i]
	if s.load() <= StatusInUse || s.adopted {
		return
	}
	if !e.advance(i) {
		return
	}
	if s.held {
		if s.heldFor++; s.heldFor >= OverlayHoldTicks {
			e.retire(i)
		}
		return
	}

	var ok bool
	if s.stream >= 0 {
		ok = e.renderStream(s)
	} else {
		ok = e.renderAsset(i)
	}
	if ok && !s.mute {
		v := float64(s.vol.Current) / float64(VolumeMax)
		gl, gr := panGain(s.pan.Current)
		e.codec.Mix(e.masterL, s.l, v*gl)
		e.codec.Mix(e.masterR, s.r, v*gr)
	}
	if s.finished {
		e.retire(i)
	}
}

// advance ticks the envelopes of slot i. It reports false when the voice
// finished its stop fade and was retired.
func (e *Engine) advance(i int) bool {
	s := &e.slots[i]
	if s.ticked == e.now {
		return true
	}
	s.ticked = e.now
	s.vol.Tick()
	s.pan.Tick()
	s.pitch.Tick()
	s.syncMirrors()

	switch s.load() {
	case StatusStopping:
		if !s.vol.Active() && s.vol.Current == VolumeMin {
			e.retire(i)
			return false
		}
	case StatusRestart:
		s.cursor = 0
		s.finished = false
		s.cas(StatusRestart, StatusPlaying)
	}
	return true
}

// renderAsset decodes the next block of slot i into its spectra. It
// reports false when nothing was decoded.
func (e *Engine) renderAsset(i int) bool {
	s := &e.slots[i]
	a := s.asset
	if a == nil {
		s.finished = true
		return false
	}

	data := a.Data()
	want := e.codec.BlockBytes(a.Channels, a.Bitrate)
	var chunk []byte

	switch {
	case s.loop && s.cursor < s.loopEnd && s.cursor+want <= s.loopEnd:
		chunk = data[s.cursor : s.cursor+want]
		s.cursor += want
		if s.cursor == s.loopEnd {
			s.cursor = s.loopStart
		}
	case s.loop && s.cursor < s.loopEnd:
		n := copy(e.scratch[:want], data[s.cursor:s.loopEnd])
		cur := s.loopStart
		for n < want {
			k := copy(e.scratch[n:want], data[cur:s.loopEnd])
			n += k
			cur += k
			if cur >= s.loopEnd {
				cur = s.loopStart
			}
		}
		s.cursor = cur
		chunk = e.scratch[:want]
	default:
		end := min(s.cursor+want, len(data))
		chunk = data[s.cursor:end]
		s.cursor = end
		s.finished = end >= len(data)
	}

	if err := e.codec.DecodeBlock(s.l, s.r, chunk, a.Channels, a.Bitrate); err != nil {
		e.stats.decodeFailures.Add(1)
		s.finished = true
		return false
	}
	e.voiceFilters(s, nil)
	return true
}

// voiceFilters applies pitch, equalizer and directional filter. eq, when
// set, replaces the voice equalizer.
func (e *Engine) voiceFilters(s *voiceSlot, eq *dsp.Curve) {
	if s.pitch.Current != PitchUnity {
		ratio := float64(s.pitch.Current) / float64(PitchUnity)
		e.codec.PitchShift(s.l, ratio)
		e.codec.PitchShift(s.r, ratio)
	}
	if eq == nil && s.eqOn {
		eq = &s.eq
	}
	if eq != nil {
		e.codec.Equalize(s.l, eq)
		e.codec.Equalize(s.r, eq)
	}
	if s.dirOn {
		e.codec.Equalize(s.l, &s.dir)
		e.codec.Equalize(s.r, &s.dir)
	}
}
