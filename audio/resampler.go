// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audmix/utils"
)

// Resampler converts a Source to another sample rate with Catmull-Rom
// interpolation over a four frame window. Channel count is preserved.
//
// When downsampling, input frames first pass through a one-pole low-pass
// whose coefficient follows the rate ratio.
type Resampler struct {
	src      Source
	dstRate  int
	step     float64 // source frames per output frame
	channels int

	// hist holds frames t-1, t0, t+1, t+2 back to back.
	hist   []float32
	primed bool
	pos    float64

	in     []float32
	inPos  int
	inLen  int
	srcErr error
	tail   int // frames synthesized past the end of the source

	lp     []float32
	seeded bool
	alpha  float32
}

func NewResampler(src Source, dstRate int) (*Resampler, error) {
	if dstRate <= 0 || src.SampleRate() <= 0 {
		return nil, ErrInvalidRate
	}
	ch := src.Channels()
	if ch < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, ch)
	}

	step := float64(src.SampleRate()) / float64(dstRate)
	alpha := float32(1)
	if step > 1 {
		alpha = float32(1 / step)
	}

	size := src.BufSize()
	if size < ch {
		size = 4096
	}
	size -= size % ch

	return &Resampler{
		src:      src,
		dstRate:  dstRate,
		step:     step,
		channels: ch,
		hist:     make([]float32, 4*ch),
		in:       make([]float32, size),
		lp:       make([]float32, ch),
		alpha:    alpha,
	}, nil
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// nextFrame copies the next filtered source frame into dst. After the source
// ends it repeats the last frame twice so the window can drain, then
// reports io.EOF.
func (r *Resampler) nextFrame(dst []float32) error {
	if r.inPos >= r.inLen {
		if r.srcErr != nil {
			if !errors.Is(r.srcErr, io.EOF) {
				return fmt.Errorf("%w", r.srcErr)
			}
			if r.tail >= 2 || !r.primed {
				return io.EOF
			}
			r.tail++
			copy(dst, r.lp)
			return nil
		}

		n, err := r.src.ReadSamples(r.in)
		r.inPos, r.inLen = 0, n-n%r.channels
		r.srcErr = err
		if r.inLen == 0 {
			if err == nil {
				// Empty read: hold the previous frame.
				copy(dst, r.lp)
				return nil
			}
			return r.nextFrame(dst)
		}
	}

	frame := r.in[r.inPos : r.inPos+r.channels]
	r.inPos += r.channels

	if !r.seeded {
		copy(r.lp, frame)
		r.seeded = true
	}
	for c, v := range frame {
		r.lp[c] += r.alpha * (v - r.lp[c])
	}
	copy(dst, r.lp)
	return nil
}

func (r *Resampler) advance() error {
	ch := r.channels
	copy(r.hist, r.hist[ch:])
	return r.nextFrame(r.hist[3*ch:])
}

func (r *Resampler) prime() error {
	ch := r.channels
	if err := r.nextFrame(r.hist[ch : 2*ch]); err != nil {
		return err
	}
	r.primed = true
	copy(r.hist[:ch], r.hist[ch:2*ch])
	if err := r.nextFrame(r.hist[2*ch : 3*ch]); err != nil {
		return err
	}
	return r.nextFrame(r.hist[3*ch:])
}

// ReadSamples writes interleaved frames at the target rate. len(dst) must be
// a multiple of Channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	ch := r.channels
	if len(dst)%ch != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	for written+ch <= len(dst) {
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return written, err
			}
		}

		t := float32(r.pos)
		for c := range ch {
			dst[written+c] = utils.CubicInterpolate(
				r.hist[c], r.hist[ch+c], r.hist[2*ch+c], r.hist[3*ch+c], t)
		}
		written += ch
		r.pos += r.step
	}

	return written, nil
}
