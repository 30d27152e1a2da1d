// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelFolder folds a multi-channel source down to mono or stereo.
//
// Mono output averages every input channel. Stereo output duplicates a mono
// input, passes stereo through, and for wider layouts averages the even
// channels into left and the odd channels into right.
type ChannelFolder struct {
	src Source
	out int
	tmp []float32
}

func NewChannelFolder(src Source, outChannels int) (*ChannelFolder, error) {
	if outChannels != 1 && outChannels != 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, outChannels)
	}
	if src.Channels() < 1 {
		return nil, fmt.Errorf("%w: source has %d", ErrInvalidChannels, src.Channels())
	}

	return &ChannelFolder{
		src: src,
		out: outChannels,
		tmp: make([]float32, 8192),
	}, nil
}

func (f *ChannelFolder) SampleRate() int { return f.src.SampleRate() }
func (f *ChannelFolder) Channels() int   { return f.out }
func (f *ChannelFolder) BufSize() int    { return f.src.BufSize() }

func (f *ChannelFolder) Close() error {
	if err := f.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (f *ChannelFolder) ReadSamples(dst []float32) (int, error) {
	if len(dst)%f.out != 0 {
		return 0, ErrInvalidDstSize
	}
	if len(dst) == 0 {
		return 0, nil
	}

	in := f.src.Channels()
	if in == f.out {
		return f.src.ReadSamples(dst)
	}

	frames := len(dst) / f.out
	need := frames * in
	if cap(f.tmp) < need {
		f.tmp = make([]float32, need)
	}
	tmp := f.tmp[:need]

	n, err := f.src.ReadSamples(tmp)
	if n == 0 {
		return 0, err
	}
	got := n / in

	switch {
	case f.out == 1:
		inv := 1 / float32(in)
		for fr := range got {
			var sum float32
			for c := range in {
				sum += tmp[fr*in+c]
			}
			dst[fr] = sum * inv
		}
	case in == 1:
		for fr := range got {
			dst[2*fr] = tmp[fr]
			dst[2*fr+1] = tmp[fr]
		}
	default:
		evens := float32((in + 1) / 2)
		odds := float32(in / 2)
		for fr := range got {
			var l, r float32
			base := fr * in
			for c := 0; c < in; c += 2 {
				l += tmp[base+c]
			}
			for c := 1; c < in; c += 2 {
				r += tmp[base+c]
			}
			dst[2*fr] = l / evens
			dst[2*fr+1] = r / odds
		}
	}

	return got * f.out, err
}
