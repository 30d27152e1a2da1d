// SPDX-License-Identifier: EPL-2.0

// Package mixer is a real-time voice mixer.
//
// An Engine owns a fixed pool of voice slots. Control calls (Play, Stop,
// SetVolume, StartStream and the rest) may come from any goroutine; they
// claim slots and queue commands without ever waiting on the audio
// callback. The device callback calls Mix once per period, which applies
// queued commands, advances every envelope one tick, renders each voice
// through the codec and writes one clamped stereo block.
//
// Voices are addressed by Handle. A handle carries the slot generation it
// was issued for, so once a voice ends or its slot is stolen, old handles
// are rejected with ErrInvalidHandle instead of touching the new voice.
//
// When the pool is nearly full, a request may steal the quietest voice of
// lower priority. ReservedHeadroom slots are kept free for requests above
// AlwaysAdmit.
//
// Streams are voices fed from a queue of segments. Run hosts the refill
// worker that reads and encodes segments ahead of the callback; a stream
// that runs dry counts an underrun and plays silence.
package mixer
