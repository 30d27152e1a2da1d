// SPDX-License-Identifier: EPL-2.0

package dsp

import "fmt"

// MaxDelayBlocks bounds DelayModel.Blocks and the history a DelayLine keeps.
const MaxDelayBlocks = 16

// DelayModel is a block-granular feedback echo used as a cheap room model.
type DelayModel struct {
	// Blocks is the echo distance in codec blocks; 0 disables the model.
	Blocks int
	// Feedback is the share of the delayed signal fed back, in [0, 1).
	Feedback float64
	// Wet is the level of the delayed signal added to the output.
	Wet float64
}

func (m *DelayModel) Validate() error {
	switch {
	case m.Blocks < 0 || m.Blocks > MaxDelayBlocks:
		return fmt.Errorf("%w: blocks %d outside 0..%d", ErrInvalidDelay, m.Blocks, MaxDelayBlocks)
	case m.Feedback < 0 || m.Feedback >= 1:
		return fmt.Errorf("%w: feedback %v outside [0,1)", ErrInvalidDelay, m.Feedback)
	case m.Wet < 0:
		return fmt.Errorf("%w: negative wet level", ErrInvalidDelay)
	}
	return nil
}

// DelayLine is the history a DelayModel reads from. It is sized once and
// reused; Reset clears it between streams.
type DelayLine struct {
	l, r []Spectrum
	pos  int
}

func newDelayLine(bins int) *DelayLine {
	d := &DelayLine{
		l: make([]Spectrum, MaxDelayBlocks),
		r: make([]Spectrum, MaxDelayBlocks),
	}
	for i := range MaxDelayBlocks {
		d.l[i] = make(Spectrum, bins)
		d.r[i] = make(Spectrum, bins)
	}
	return d
}

func (d *DelayLine) Reset() {
	for i := range d.l {
		d.l[i].Clear()
		d.r[i].Clear()
	}
	d.pos = 0
}

// apply runs one block through the line over the first active bins.
func (d *DelayLine) apply(l, r Spectrum, m *DelayModel, active int) {
	if m == nil || m.Blocks <= 0 {
		return
	}

	blocks := min(m.Blocks, MaxDelayBlocks)
	read := (d.pos + MaxDelayBlocks - blocks) % MaxDelayBlocks
	hl, hr := d.l[read], d.r[read]
	wl, wr := d.l[d.pos], d.r[d.pos]

	fb := complex(m.Feedback, 0)
	wet := complex(m.Wet, 0)
	for k := range active {
		el, er := hl[k], hr[k]
		wl[k] = l[k] + fb*el
		wr[k] = r[k] + fb*er
		l[k] += wet * el
		r[k] += wet * er
	}
	d.pos = (d.pos + 1) % MaxDelayBlocks
}
