// SPDX-License-Identifier: EPL-2.0

package mixer

// beginStream resets the callback side of stream si for a new voice.
func (e *Engine) beginStream(si int) {
	st := &e.streams[si]
	st.readBlock = 0
	st.begun = false
	st.seq = 0
	st.params = segmentParams{}
	st.overlay, st.fading = noVoice, noVoice
	st.line.Reset()
	st.state.Store(int32(StreamStarting))
}

// endStream detaches stream si from its voice. Adopted overlays go back
// to the main mix with a short fade, and the refill worker is asked to
// flush whatever is still queued.
func (e *Engine) endStream(si int) {
	st := &e.streams[si]
	st.state.Store(int32(StreamIdle))
	for _, ref := range [2]voiceRef{st.overlay, st.fading} {
		if e.live(ref) {
			ov := &e.slots[ref.slot]
			ov.adopted, ov.held = false, false
			e.stopVoice(ref.slot, OverlayHandoffTicks)
		}
	}
	st.overlay, st.fading = noVoice, noVoice
	st.flush.Store(true)
}

// live reports whether ref still names the voice it was taken from.
func (e *Engine) live(ref voiceRef) bool {
	if ref.slot < 0 {
		return false
	}
	s := &e.slots[ref.slot]
	st := s.load()
	return s.gen.Load() == ref.gen && (st.audible() || st == StatusStopping)
}

// renderStream decodes the next period of the stream on s. It reports
// false on silence.
func (e *Engine) renderStream(s *voiceSlot) bool {
	st := &e.streams[s.stream]
	blk := &st.blocks[st.readBlock]

	switch blockStatus(blk.status.Load()) {
	case blockFilled:
		blk.status.Store(int32(blockInUse))
		blk.cursor = 0
		if !st.begun || blk.seq != st.seq {
			e.beginSegment(st, blk)
		}
		st.state.CompareAndSwap(int32(StreamStarting), int32(StreamPlaying))
	case blockInUse:
	default:
		if StreamState(st.state.Load()) == StreamPlaying {
			e.stats.underruns.Add(1)
		}
		return false
	}

	last := blk.last
	end := min(blk.cursor+e.codec.BlockBytes(blk.channels, blk.bitrate), blk.n)
	err := e.codec.DecodeBlock(s.l, s.r, blk.data[blk.cursor:end], blk.channels, blk.bitrate)
	blk.cursor = end
	done := end >= blk.n
	if done {
		blk.status.Store(int32(blockEmpty))
		st.readBlock ^= 1
	}
	if err != nil {
		e.stats.decodeFailures.Add(1)
		s.finished = true
		return false
	}

	if st.params.hasEQ {
		e.voiceFilters(s, &st.params.eq)
	} else {
		e.voiceFilters(s, nil)
	}
	e.mixOverlays(st, s)

	switch {
	case st.params.hasDelay:
		e.codec.ApplyDelay(s.l, s.r, st.line, &st.params.delay)
	case st.hasDefDly:
		e.codec.ApplyDelay(s.l, s.r, st.line, &st.defDelay)
	}
	if st.params.hasEffect {
		e.codec.ApplyEffect(s.l, s.r, &st.params.effect, &st.fx)
	}

	if done && last && st.play.Add(1) == st.write.Load() {
		// Queue ran dry on a segment boundary.
		st.state.Store(int32(StreamStopping))
		s.finished = true
	}
	return true
}

// beginSegment switches to the parameters of the segment blk starts and
// hands the overlay over.
func (e *Engine) beginSegment(st *streamChannel, blk *transferBlock) {
	prevEffect := st.params.effect
	st.seq = blk.seq
	st.begun = true
	st.params = blk.params
	if st.params.hasEffect && st.params.effect != prevEffect {
		st.fx.Reset(blk.seq + 1)
	}

	if e.live(st.overlay) && st.overlay.handle() == blk.params.overlay {
		st.overlay.level = blk.params.overlayLevel
		return
	}
	if e.live(st.fading) {
		e.retire(st.fading.slot)
	}
	st.fading = noVoice
	if e.live(st.overlay) {
		e.stopVoice(st.overlay.slot, OverlayHandoffTicks)
		st.fading = st.overlay
	}
	st.overlay = noVoice

	h := blk.params.overlay
	if h.IsZero() || int(h.Index) >= len(e.slots) {
		return
	}
	ov := &e.slots[h.Index]
	ref := voiceRef{slot: int(h.Index), gen: h.Generation, level: blk.params.overlayLevel}
	if e.live(ref) && ov.held && !ov.adopted {
		ov.adopted = true
		st.overlay = ref
	}
}

// mixOverlays renders the adopted overlays of st into the stream voice.
func (e *Engine) mixOverlays(st *streamChannel, s *voiceSlot) {
	for _, ref := range [2]*voiceRef{&st.overlay, &st.fading} {
		if !e.live(*ref) {
			*ref = noVoice
			continue
		}
		i := ref.slot
		ov := &e.slots[i]
		if !e.advance(i) {
			*ref = noVoice
			continue
		}
		if e.renderAsset(i) && !ov.mute {
			g := float64(ref.level) / float64(VolumeMax) * float64(ov.vol.Current) / float64(VolumeMax)
			e.codec.Mix(s.l, ov.l, g)
			e.codec.Mix(s.r, ov.r, g)
		}
		if ov.finished {
			e.retire(i)
			*ref = noVoice
		}
	}
}
