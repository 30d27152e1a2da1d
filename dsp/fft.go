// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/ik5/audmix/utils"
)

// FFTCodec is a Codec built on gonum's real FFT.
type FFTCodec struct {
	rate   int
	n      int
	bins   int
	active int

	fft *fourier.FFT

	// time-domain scratch
	tl, tr []float64
	// pitch scratch
	re, im []float64
	// band index per bin
	band []uint8
}

var _ Codec = (*FFTCodec)(nil)

// NewFFTCodec returns a codec for blocks of blockFrames frames.
func NewFFTCodec(sampleRate, blockFrames int) (*FFTCodec, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidRate
	}
	if blockFrames < 64 || blockFrames > 8192 || blockFrames&(blockFrames-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockFrames)
	}

	bins := blockFrames/2 + 1
	c := &FFTCodec{
		rate:   sampleRate,
		n:      blockFrames,
		bins:   bins,
		active: bins,
		fft:    fourier.NewFFT(blockFrames),
		tl:     make([]float64, blockFrames),
		tr:     make([]float64, blockFrames),
		re:     make([]float64, bins),
		im:     make([]float64, bins),
		band:   make([]uint8, bins),
	}
	for k := range bins {
		c.band[k] = uint8(bandOf(float64(k) * float64(sampleRate) / float64(blockFrames)))
	}
	return c, nil
}

func (c *FFTCodec) SampleRate() int  { return c.rate }
func (c *FFTCodec) BlockFrames() int { return c.n }
func (c *FFTCodec) Bandwidth() int   { return c.active }

func (c *FFTCodec) BlockBytes(channels, bitrate int) int {
	return c.n * channels * bitrate / 8
}

func (c *FFTCodec) NewSpectrum() Spectrum {
	return make(Spectrum, c.bins)
}

func (c *FFTCodec) NewDelayLine() *DelayLine {
	return newDelayLine(c.bins)
}

// SetBandwidth clamps bins to [1, BlockFrames/2+1]. Bins above the active
// bandwidth are dropped at decode time.
func (c *FFTCodec) SetBandwidth(bins int) {
	c.active = max(1, min(bins, c.bins))
}

func (c *FFTCodec) DecodeBlock(l, r Spectrum, src []byte, channels, bitrate int) error {
	// Runs on the audio callback: no wrapped errors.
	if channels != 1 && channels != 2 || bitrate != 8 && bitrate != 16 {
		return ErrDecodeFailure
	}
	frameBytes := channels * bitrate / 8
	if len(src)%frameBytes != 0 || len(src) > c.n*frameBytes {
		return ErrDecodeFailure
	}

	frames := len(src) / frameBytes
	for i := range c.n {
		if i >= frames {
			c.tl[i], c.tr[i] = 0, 0
			continue
		}
		off := i * frameBytes
		if bitrate == 16 {
			c.tl[i] = utils.PCM16At(src, off)
			if channels == 2 {
				c.tr[i] = utils.PCM16At(src, off+2)
			}
		} else {
			c.tl[i] = utils.Int8ToFloat64(int8(src[off]))
			if channels == 2 {
				c.tr[i] = utils.Int8ToFloat64(int8(src[off+1]))
			}
		}
	}

	c.fft.Coefficients(l, c.tl)
	if channels == 2 {
		c.fft.Coefficients(r, c.tr)
	} else {
		copy(r, l)
	}

	l[c.active:].Clear()
	r[c.active:].Clear()
	return nil
}

func (c *FFTCodec) Mix(dst, src Spectrum, gain float64) {
	if gain == 0 {
		return
	}
	g := complex(gain, 0)
	for k := range c.active {
		dst[k] += g * src[k]
	}
}

func (c *FFTCodec) Equalize(buf Spectrum, curve *Curve) {
	if curve == nil || curve.IsFlat() {
		return
	}
	for k := range c.active {
		buf[k] *= complex(curve[c.band[k]], 0)
	}
}

// PitchShift resamples the bins so that bin k takes the content of bin
// k/ratio. Ratios above one raise the pitch.
func (c *FFTCodec) PitchShift(buf Spectrum, ratio float64) {
	if ratio <= 0 || ratio == 1 {
		return
	}

	for k := range c.active {
		c.re[k] = real(buf[k])
		c.im[k] = imag(buf[k])
	}
	re, im := c.re[:c.active], c.im[:c.active]
	inv := 1 / ratio
	for k := range c.active {
		pos := float64(k) * inv
		buf[k] = complex(utils.CubicAt(re, pos), utils.CubicAt(im, pos))
	}
}

func (c *FFTCodec) ApplyDelay(l, r Spectrum, line *DelayLine, m *DelayModel) {
	if line == nil {
		return
	}
	line.apply(l, r, m, c.active)
}

func (c *FFTCodec) InverseTransform(dst []float32, l, r Spectrum) {
	c.fft.Sequence(c.tl, l)
	c.fft.Sequence(c.tr, r)

	scale := 1 / float64(c.n)
	for i := range c.n {
		dst[2*i] = float32(c.tl[i] * scale)
		dst[2*i+1] = float32(c.tr[i] * scale)
	}
}
