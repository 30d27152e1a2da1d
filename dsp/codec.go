// SPDX-License-Identifier: EPL-2.0

package dsp

// Spectrum holds the BlockFrames/2+1 complex bins of one channel of a block.
type Spectrum []complex128

// Clear zeroes every bin.
func (s Spectrum) Clear() {
	clear(s)
}

// Codec is the frequency-domain block codec used by the mixer.
//
// Implementations must not allocate in any method other than the
// constructors of spectra and delay lines.
type Codec interface {
	SampleRate() int
	BlockFrames() int
	// BlockBytes is the size of one full encoded block.
	BlockBytes(channels, bitrate int) int

	NewSpectrum() Spectrum
	NewDelayLine() *DelayLine

	// DecodeBlock decodes up to one block from src into l and r. A short
	// src is zero padded. Mono input is copied to both sides.
	DecodeBlock(l, r Spectrum, src []byte, channels, bitrate int) error
	// Mix adds gain*src into dst.
	Mix(dst, src Spectrum, gain float64)
	Equalize(buf Spectrum, c *Curve)
	// PitchShift scales every frequency in buf by ratio.
	PitchShift(buf Spectrum, ratio float64)
	ApplyDelay(l, r Spectrum, line *DelayLine, m *DelayModel)
	ApplyEffect(l, r Spectrum, e *Effect, st *EffectState)
	// InverseTransform writes BlockFrames interleaved stereo frames to dst.
	InverseTransform(dst []float32, l, r Spectrum)

	// SetBandwidth limits processing to the lowest bins bins.
	SetBandwidth(bins int)
	Bandwidth() int
}
