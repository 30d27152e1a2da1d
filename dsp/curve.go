// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// NumBands is the number of octave bands in a Curve.
const NumBands = 10

// BandBase is the lower edge of band 0 in Hz. Band b spans
// [BandBase*2^b, BandBase*2^(b+1)); band 0 also takes everything below and
// the last band everything above.
const BandBase = 31.25

// Curve is a set of linear per-band gains. The zero value silences
// everything; use Flat for a neutral curve.
type Curve [NumBands]float64

func Flat() Curve {
	var c Curve
	for i := range c {
		c[i] = 1
	}
	return c
}

// IsFlat reports whether every band has unity gain.
func (c *Curve) IsFlat() bool {
	for _, g := range c {
		if g != 1 {
			return false
		}
	}
	return true
}

// DB builds a Curve from per-band gains in decibels.
func DB(gains [NumBands]float64) Curve {
	var c Curve
	for i, g := range gains {
		c[i] = math.Pow(10, g/20)
	}
	return c
}

// Cardioid approximates the high-frequency loss of a source facing away
// from the listener. angle is in degrees, 0 meaning the source faces the
// listener.
func Cardioid(angle float64) Curve {
	// 0.5*(1+cos) is 1 in front and 0 behind.
	facing := 0.5 * (1 + math.Cos(angle*math.Pi/180))

	var c Curve
	for b := range c {
		depth := float64(b) / (NumBands - 1) // lows are omnidirectional
		c[b] = 1 - depth*(1-facing)*0.9
	}
	return c
}

// bandOf maps a frequency to its band index.
func bandOf(hz float64) int {
	if hz < 2*BandBase {
		return 0
	}
	b := int(math.Log2(hz / BandBase))
	return min(b, NumBands-1)
}
