// SPDX-License-Identifier: EPL-2.0

// Package audio provides the pull-based PCM plumbing shared by the decoders,
// the bank importer and streamed segments.
//
// # Source Interface
//
// Every decoder and processing stage implements Source:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// Samples are interleaved float32 in [-1, 1]. A read may return n > 0
// together with io.EOF; callers must consume the n samples before stopping.
//
// # Conforming
//
// The mixer only accepts mono or stereo material at its own sample rate.
// Conform chains a ChannelFolder and a Resampler as needed:
//
//	src, err := audio.Conform(decoded, 48000, 2)
//	pcm, err := audio.ReadAll(src)
//
// The Resampler uses Catmull-Rom interpolation and a one-pole low-pass when
// downsampling. The ChannelFolder averages wide layouts into mono or stereo.
//
// # Format Registry
//
// A Registry maps file extensions to decoders:
//
//	reg := audio.NewRegistry()
//	reg.Register("wav", wav.Decoder{})
//	src, err := reg.DecodeFile("kick.wav")
//
// Lookups are case-insensitive and ignore a leading dot.
package audio
