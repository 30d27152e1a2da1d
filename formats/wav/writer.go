// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/audmix/utils"
)

// Writer streams interleaved float32 frames into a 16-bit PCM WAV file.
// The header sizes are patched on Close, so the destination must seek.
type Writer struct {
	enc      *gowav.Encoder
	buf      *goaudio.IntBuffer
	channels int
	frames   int
}

func NewWriter(w io.WriteSeeker, sampleRate, channels int) *Writer {
	return &Writer{
		enc:      gowav.NewEncoder(w, sampleRate, 16, channels, formatPCM),
		channels: channels,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}
}

// Write appends samples, which must hold whole frames.
func (w *Writer) Write(samples []float32) error {
	if len(samples)%w.channels != 0 {
		return ErrPartialFrame
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = int(utils.Float32ToInt16(s))
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("wav encode: %w", err)
	}
	w.frames += len(samples) / w.channels
	return nil
}

// Frames reports how many frames have been written.
func (w *Writer) Frames() int { return w.frames }

// Close finalizes the header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("wav header: %w", err)
	}
	return nil
}
