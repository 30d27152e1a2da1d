// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// Conform wraps src so it produces at most maxChannels channels at rate Hz.
// Stages are only added when needed; a source that already matches is
// returned unchanged.
func Conform(src Source, rate, maxChannels int) (Source, error) {
	out := src
	if out.Channels() > maxChannels {
		f, err := NewChannelFolder(out, maxChannels)
		if err != nil {
			return nil, err
		}
		out = f
	}
	if out.SampleRate() != rate {
		r, err := NewResampler(out, rate)
		if err != nil {
			return nil, err
		}
		out = r
	}
	return out, nil
}

// ReadAll drains src and returns every sample it produced.
func ReadAll(src Source) ([]float32, error) {
	size := src.BufSize()
	if size < src.Channels() {
		size = 4096
	}
	size -= size % src.Channels()

	buf := make([]float32, size)
	var out []float32
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("%w", err)
		}
	}
}
