// SPDX-License-Identifier: EPL-2.0

// Package dsp is the frequency-domain codec the mixer drives.
//
// A codec block is BlockFrames frames. Encoded blocks are little-endian
// signed PCM whose bitrate is the number of bits per sample (8 or 16).
// DecodeBlock turns one block into a left and right Spectrum; every other
// stage (mixing, equalization, pitch shift, delay, procedural effects)
// operates on spectra until InverseTransform produces interleaved stereo
// float32 samples for the device.
//
// FFTCodec implements Codec with the real FFT from
// gonum.org/v1/gonum/dsp/fourier. All of its scratch space is allocated by
// NewFFTCodec; none of the per-block methods allocate. A codec instance is
// not safe for concurrent use and is meant to be owned by the audio
// callback.
package dsp
