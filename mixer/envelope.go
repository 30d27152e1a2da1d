// SPDX-License-Identifier: EPL-2.0

package mixer

import "math"

// Envelope is a linear integer ramp within [Min, Max]. A circular envelope
// treats Min and Max as the same point and always ramps the short way
// round.
type Envelope struct {
	Current  int32
	Target   int32
	Delta    int32
	Ticks    int32
	Min      int32
	Max      int32
	Circular bool
}

func newEnvelope(v, lo, hi int32, circular bool) Envelope {
	e := Envelope{Min: lo, Max: hi, Circular: circular}
	e.Set(v)
	return e
}

func volumeEnvelope(v int32) Envelope { return newEnvelope(v, VolumeMin, VolumeMax, false) }
func panEnvelope(v int32) Envelope    { return newEnvelope(v, PanLeft, PanRight, true) }
func pitchEnvelope(v int32) Envelope  { return newEnvelope(v, PitchMin, PitchMax, false) }

func (e *Envelope) fit(v int32) int32 {
	if e.Circular {
		w := e.Max - e.Min
		v = (v - e.Min) % w
		if v < 0 {
			v += w
		}
		return v + e.Min
	}
	return max(e.Min, min(v, e.Max))
}

// shortest returns target-current along the shorter arc for circular
// envelopes.
func (e *Envelope) shortest(target int32) int32 {
	d := target - e.Current
	if e.Circular {
		w := e.Max - e.Min
		if d > w/2 {
			d -= w
		} else if d < -w/2 {
			d += w
		}
	}
	return d
}

// Set jumps to v and cancels any ramp.
func (e *Envelope) Set(v int32) {
	e.Current = e.fit(v)
	e.Target = e.Current
	e.Delta = 0
	e.Ticks = 0
}

// Active reports whether a ramp is in progress.
func (e *Envelope) Active() bool { return e.Ticks > 0 }

// StartRamp moves towards target over ticks ticks.
func (e *Envelope) StartRamp(target, ticks int32) {
	e.Target = e.fit(target)
	ticks = max(ticks, MinRampTicks)

	d := e.shortest(e.Target)
	if d == 0 {
		e.Set(e.Target)
		return
	}

	e.Delta = d / ticks
	if e.Delta == 0 {
		e.Delta = 1
		if d < 0 {
			e.Delta = -1
		}
	}
	e.Ticks = ticks
}

// Tick advances one step. It reports true on the tick the ramp completes,
// which is always the last of its ticks: a ramp that reaches the target
// early holds there until its duration runs out.
func (e *Envelope) Tick() bool {
	if e.Ticks == 0 {
		return false
	}
	e.Ticks--
	if e.Ticks == 0 {
		e.Set(e.Target)
		return true
	}

	rem := e.shortest(e.Target)
	if (e.Delta > 0 && e.Delta >= rem) || (e.Delta < 0 && e.Delta <= rem) {
		e.Current = e.Target
		return false
	}
	e.Current = e.fit(e.Current + e.Delta)
	return false
}

// panGains holds constant-power left/right gains for every whole degree
// from PanLeft to PanRight.
var panGains = func() [2][PanRight - PanLeft + 1]float64 {
	var t [2][PanRight - PanLeft + 1]float64
	for i := range t[0] {
		deg := float64(int32(i) + PanLeft)
		// Fold the circle onto the left-right axis: behind sounds centred.
		x := math.Sin(deg * math.Pi / 180)
		theta := (x + 1) * math.Pi / 4
		t[0][i] = math.Cos(theta)
		t[1][i] = math.Sin(theta)
	}
	return t
}()

func panGain(pan int32) (l, r float64) {
	i := pan - PanLeft
	return panGains[0][i], panGains[1][i]
}
