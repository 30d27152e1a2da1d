// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"math"
	"math/rand/v2"
)

// EffectKind selects a procedural effect.
type EffectKind uint8

const (
	EffectNone EffectKind = iota
	// EffectTone adds a steady sine at Freq with amplitude Level.
	EffectTone
	// EffectNoise adds white noise at Level.
	EffectNoise
	// EffectBreak gates the signal off for Period blocks out of every
	// 2*Period, like a breaking radio link.
	EffectBreak
	// EffectLimiter scales blocks whose estimated peak exceeds Level.
	EffectLimiter
	// EffectFilter applies Curve.
	EffectFilter
)

func (k EffectKind) String() string {
	switch k {
	case EffectNone:
		return "none"
	case EffectTone:
		return "tone"
	case EffectNoise:
		return "noise"
	case EffectBreak:
		return "break"
	case EffectLimiter:
		return "limiter"
	case EffectFilter:
		return "filter"
	}
	return "unknown"
}

// Effect describes one procedural effect applied to a stream segment.
type Effect struct {
	Kind   EffectKind
	Freq   float64
	Level  float64
	Period int
	Curve  Curve
}

// EffectState carries what an effect needs between blocks.
type EffectState struct {
	block int
	rng   rand.PCG
}

// Reset restarts the effect with a fresh noise sequence.
func (st *EffectState) Reset(seed uint64) {
	st.block = 0
	st.rng.Seed(seed, seed^0x9e3779b97f4a7c15)
}

func (c *FFTCodec) ApplyEffect(l, r Spectrum, e *Effect, st *EffectState) {
	if e == nil {
		return
	}

	switch e.Kind {
	case EffectTone:
		k := int(math.Round(e.Freq * float64(c.n) / float64(c.rate)))
		if k <= 0 || k >= c.active {
			return
		}
		// A sine of amplitude A lands as -i*A*N/2 in bin k.
		v := complex(0, -e.Level*float64(c.n)/2)
		l[k] += v
		r[k] += v

	case EffectNoise:
		// Random phase per bin at a magnitude that sums to Level RMS.
		mag := e.Level * float64(c.n) / math.Sqrt(2*float64(c.active))
		for k := 1; k < c.active; k++ {
			l[k] += randomPhase(&st.rng, mag)
			r[k] += randomPhase(&st.rng, mag)
		}

	case EffectBreak:
		period := max(e.Period, 1)
		if (st.block/period)%2 == 1 {
			l[:c.active].Clear()
			r[:c.active].Clear()
		}

	case EffectLimiter:
		// The time-domain peak is bounded by 2/N times the bin magnitudes.
		var sl, sr float64
		for k := range c.active {
			sl += cmplxAbs(l[k])
			sr += cmplxAbs(r[k])
		}
		peak := 2 * max(sl, sr) / float64(c.n)
		if e.Level > 0 && peak > e.Level {
			g := complex(e.Level/peak, 0)
			for k := range c.active {
				l[k] *= g
				r[k] *= g
			}
		}

	case EffectFilter:
		c.Equalize(l, &e.Curve)
		c.Equalize(r, &e.Curve)
	}

	st.block++
}

func randomPhase(rng *rand.PCG, mag float64) complex128 {
	phi := float64(rng.Uint64()>>11) / (1 << 53) * 2 * math.Pi
	s, co := math.Sincos(phi)
	return complex(mag*co, mag*s)
}

func cmplxAbs(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}
