// SPDX-License-Identifier: EPL-2.0

package mixer

// Parameter ranges. All envelopes are integer so ramps land exactly.
const (
	VolumeMin int32 = 0
	VolumeMax int32 = 10000

	// Pan is in degrees on a circle: 0 centre, -90 hard left, +90 hard
	// right, ±180 behind.
	PanLeft   int32 = -180
	PanCentre int32 = 0
	PanRight  int32 = 180

	// Pitch is a ratio in thousandths.
	PitchMin   int32 = 250
	PitchUnity int32 = 1000
	PitchMax   int32 = 4000

	// MinRampTicks is the shortest ramp; a zero duration still takes one
	// tick.
	MinRampTicks int32 = 1

	// OverlayHandoffTicks is the fade given to an overlay replaced at a
	// segment boundary.
	OverlayHandoffTicks int32 = 2

	// OverlayHoldTicks is how long a held overlay waits to be adopted by
	// a stream segment before it is released.
	OverlayHoldTicks int32 = 64
)

// Priority orders voices for eviction; higher wins.
type Priority int32

const (
	PriorityLowest   Priority = 0
	PriorityLow      Priority = 25
	PriorityNormal   Priority = 50
	PriorityHigh     Priority = 75
	PriorityCritical Priority = 100

	// AlwaysAdmitLowest sets Config.AlwaysAdmit to PriorityLowest, which
	// a zero value cannot express since zero selects the default.
	AlwaysAdmitLowest Priority = -1
)

// LoopMode overrides an asset's default loop flag.
type LoopMode uint8

const (
	LoopDefault LoopMode = iota
	LoopOn
	LoopOff
)

// PlayParams configures a one-shot or looping voice.
type PlayParams struct {
	Priority Priority
	Volume   int32
	Pan      int32
	// Pitch of zero means PitchUnity.
	Pitch int32
	// FadeIn ramps the volume up from VolumeMin over this many ticks.
	FadeIn int32
	Loop   LoopMode
	Mute   bool
	// Overlay holds the voice back from the master mix until a stream
	// segment names it as its overlay. A held voice no segment adopts
	// within OverlayHoldTicks periods is released.
	Overlay bool
}

// DefaultPlayParams is full volume, centred, unity pitch, normal priority.
func DefaultPlayParams() PlayParams {
	return PlayParams{
		Priority: PriorityNormal,
		Volume:   VolumeMax,
		Pan:      PanCentre,
		Pitch:    PitchUnity,
	}
}
