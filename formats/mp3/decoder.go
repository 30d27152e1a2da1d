// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/utils"
)

// pcmReader is the part of gomp3.Decoder the source needs.
type pcmReader interface {
	io.Reader
	SampleRate() int
}

// go-mp3 always produces 16-bit little-endian stereo.
const channels = 2

type source struct {
	dec pcmReader
	raw []byte
}

func newSource(dec pcmReader) *source {
	return &source{dec: dec, raw: make([]byte, 8192)}
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return channels }
func (s *source) BufSize() int    { return len(s.raw) / 2 }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	need := len(dst) * 2
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	raw := s.raw[:need]

	n, err := s.dec.Read(raw)
	if n%2 == 1 && err == nil {
		// Keep samples whole.
		var m int
		m, err = io.ReadFull(s.dec, raw[n:n+1])
		n += m
	}

	samples := n / 2
	for i := range samples {
		dst[i] = float32(utils.PCM16At(raw, 2*i))
	}

	if err != nil && !errors.Is(err, io.EOF) {
		return samples, fmt.Errorf("%w", err)
	}
	return samples, err
}

// Decoder decodes MPEG-1/2 layer III streams.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return newSource(dec), nil
}
