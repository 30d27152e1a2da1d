// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds synthetic sources for tests. It does not import
// the audio package so any package may use it.
package audiotest

import (
	"io"
	"math"
)

// Wave returns the value of channel ch at frame i.
type Wave func(i, ch int) float32

// Source is a deterministic in-memory PCM source.
type Source struct {
	rate     int
	channels int
	frames   int
	pos      int
	wave     Wave
	bufSize  int

	// Err, when set, is returned once FailAt frames have been produced.
	Err    error
	FailAt int

	closed int
}

func New(rate, channels, frames int, wave Wave) *Source {
	return &Source{
		rate:     rate,
		channels: channels,
		frames:   frames,
		wave:     wave,
		bufSize:  4096,
		FailAt:   -1,
	}
}

func Silence(rate, channels, frames int) *Source {
	return New(rate, channels, frames, func(int, int) float32 { return 0 })
}

func Constant(rate, channels, frames int, v float32) *Source {
	return New(rate, channels, frames, func(int, int) float32 { return v })
}

func Sine(rate, channels, frames int, hz float64) *Source {
	w := 2 * math.Pi * hz / float64(rate)
	return New(rate, channels, frames, func(i, _ int) float32 {
		return float32(math.Sin(w * float64(i)))
	})
}

// Ramp produces i/frames on every channel, useful for checking ordering.
func Ramp(rate, channels, frames int) *Source {
	return New(rate, channels, frames, func(i, _ int) float32 {
		return float32(i) / float32(frames)
	})
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BufSize() int    { return s.bufSize }

// SetBufSize overrides the preferred read size.
func (s *Source) SetBufSize(n int) { s.bufSize = n }

func (s *Source) Close() error {
	s.closed++
	return nil
}

// Closed reports how many times Close was called.
func (s *Source) Closed() int { return s.closed }

// Rewind restarts the source from frame zero.
func (s *Source) Rewind() { s.pos = 0 }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.Err != nil && s.FailAt >= 0 && s.pos >= s.FailAt {
		return 0, s.Err
	}
	if s.pos >= s.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/s.channels, s.frames-s.pos)
	if s.Err != nil && s.FailAt >= 0 {
		n = min(n, s.FailAt-s.pos)
	}
	for f := range n {
		for c := range s.channels {
			dst[f*s.channels+c] = s.wave(s.pos+f, c)
		}
	}
	s.pos += n

	if s.pos >= s.frames {
		return n * s.channels, io.EOF
	}
	return n * s.channels, nil
}
