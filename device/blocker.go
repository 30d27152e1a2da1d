// SPDX-License-Identifier: EPL-2.0

package device

// Blocker serves arbitrary reads from a callback that only renders whole
// periods. It is not safe for concurrent use; backends call it from their
// audio thread only.
type Blocker struct {
	cb  Callback
	buf []float32
	pos int
}

func NewBlocker(cfg Config, cb Callback) *Blocker {
	buf := make([]float32, cfg.PeriodSamples())
	return &Blocker{cb: cb, buf: buf, pos: len(buf)}
}

// Fill writes len(dst) samples, rendering new periods as needed.
func (b *Blocker) Fill(dst []float32) {
	for len(dst) > 0 {
		if b.pos == len(b.buf) {
			b.cb(b.buf)
			b.pos = 0
		}
		n := copy(dst, b.buf[b.pos:])
		dst = dst[n:]
		b.pos += n
	}
}

// Reset drops whatever is left of the current period.
func (b *Blocker) Reset() {
	b.pos = len(b.buf)
}
