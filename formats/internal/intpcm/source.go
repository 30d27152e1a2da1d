// SPDX-License-Identifier: EPL-2.0

// Package intpcm adapts go-audio integer PCM decoders to audio.Source.
package intpcm

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/audmix/audio"
)

// ErrBitDepth is returned for depths other than 8, 16, 24 and 32.
var ErrBitDepth = errors.New("unsupported bit depth")

// Reader is the subset of the go-audio wav and aiff decoders used here.
type Reader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source converts integer PCM from a Reader to float32 samples.
type Source struct {
	dec    Reader
	format *goaudio.Format
	scale  float32
	offset int
	buf    *goaudio.IntBuffer
	done   bool
}

// New wraps dec. When unsigned8 is set, 8-bit samples are treated as
// unsigned with a bias of 128, as in WAV files.
func New(dec Reader, format *goaudio.Format, depth int, unsigned8 bool) (*Source, error) {
	if format == nil || format.NumChannels < 1 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: bad format", audio.ErrInvalidChannels)
	}

	s := &Source{
		dec:    dec,
		format: format,
		buf: &goaudio.IntBuffer{
			Data:   make([]int, 4096-4096%format.NumChannels),
			Format: format,
		},
	}

	switch depth {
	case 8, 16, 24, 32:
		s.scale = 1 / float32(int64(1)<<(depth-1))
	default:
		return nil, fmt.Errorf("%w: %d", ErrBitDepth, depth)
	}
	if depth == 8 && unsigned8 {
		s.offset = 128
	}

	return s, nil
}

func (s *Source) SampleRate() int { return s.format.SampleRate }
func (s *Source) Channels() int   { return s.format.NumChannels }
func (s *Source) BufSize() int    { return cap(s.buf.Data) }
func (s *Source) Close() error    { return nil }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.done {
		return 0, io.EOF
	}
	if len(dst) == 0 {
		return 0, nil
	}

	if cap(s.buf.Data) < len(dst) {
		s.buf.Data = make([]int, len(dst))
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.buf)
	for i, v := range s.buf.Data[:n] {
		dst[i] = float32(v-s.offset) * s.scale
	}

	switch {
	case err != nil && !errors.Is(err, io.EOF):
		return n, fmt.Errorf("%w", err)
	case n < len(dst) || err != nil:
		// go-audio signals the end with a short read.
		s.done = true
		return n, io.EOF
	}
	return n, nil
}
