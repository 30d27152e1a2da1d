// SPDX-License-Identifier: EPL-2.0

// Package device defines the audio output the mixer renders into.
//
// A Device calls its Callback with exactly one period of interleaved
// float32 samples at a time. Backends whose native callbacks ask for
// arbitrary amounts use a Blocker to cut the stream into periods.
//
// Backends live in subpackages: miniaudio, otoplayer, beepspeaker and
// wavfile. Headless, in this package, renders on a timer without any
// audio hardware.
package device
