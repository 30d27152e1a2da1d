// SPDX-License-Identifier: EPL-2.0

package mixer

import "fmt"

// Handle refers to one voice. A handle stays valid until its voice ends or
// is stolen; after that the slot's generation moves on and the handle is
// rejected. The zero Handle never refers to a voice.
type Handle struct {
	Generation uint32
	Index      uint16
}

func (h Handle) IsZero() bool { return h.Generation == 0 }

func (h Handle) String() string {
	return fmt.Sprintf("voice %d#%d", h.Index, h.Generation)
}

// Status is the lifecycle state of a voice slot.
type Status int32

const (
	StatusFree Status = iota
	// StatusInUse is a claimed slot whose start has not reached the
	// callback yet.
	StatusInUse
	StatusPlaying
	// StatusLoopEnd is Playing with the loop released: the voice plays on
	// to the end of its data.
	StatusLoopEnd
	// StatusRestart is Playing with a cursor reset pending.
	StatusRestart
	// StatusStopping is fading out; the slot is freed when the fade ends.
	StatusStopping
)

// audible reports whether s is in the Playing family, the only states the
// allocator may evict.
func (s Status) audible() bool {
	return s >= StatusPlaying && s <= StatusRestart
}

func (s Status) String() string {
	switch s {
	case StatusFree:
		return "free"
	case StatusInUse:
		return "in-use"
	case StatusPlaying:
		return "playing"
	case StatusLoopEnd:
		return "loop-end"
	case StatusRestart:
		return "restart"
	case StatusStopping:
		return "stopping"
	}
	return fmt.Sprintf("status(%d)", int32(s))
}
