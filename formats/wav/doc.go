// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes RIFF/WAVE files through
// github.com/go-audio/wav.
//
// The Decoder accepts integer PCM at 8, 16, 24 or 32 bits, any channel
// count and any sample rate, and yields float32 samples in [-1, 1]. Inputs
// that are not an io.ReadSeeker are buffered in memory first.
//
//	src, err := wav.Decoder{}.Decode(file)
//
// The Writer streams interleaved float32 frames as 16-bit PCM. It backs the
// wav file output device:
//
//	w := wav.NewWriter(f, 48000, 2)
//	err := w.Write(block)
//	err = w.Close()
package wav
