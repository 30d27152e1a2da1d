// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/ik5/audmix/utils"
)

// Run is the refill worker. It feeds stream blocks and reports callback
// events until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			e.mu.Lock()
			for i := range e.streams {
				e.closeSources(&e.streams[i])
			}
			e.mu.Unlock()
			return ctx.Err()
		case <-e.wake:
			e.Refill()
		}
	}
}

// Refill runs one pass of the refill worker.
func (e *Engine) Refill() {
	for i := range e.streams {
		st := &e.streams[i]
		if st.flush.Load() {
			e.mu.Lock()
			e.flushStream(st)
			e.mu.Unlock()
			continue
		}
		if st.live.Load() {
			e.fillStream(i, st)
		}
	}
	e.report()
}

// flushStream drops everything queued on st and frees it for reuse.
// Callers hold e.mu.
func (e *Engine) flushStream(st *streamChannel) {
	e.closeSources(st)
	w := st.write.Load()
	st.queue = w
	st.play.Store(w)
	for i := range st.blocks {
		st.blocks[i].status.Store(int32(blockEmpty))
	}
	st.fillBlock = 0
	st.cur = nil
	st.curOff = 0
	st.live.Store(false)
	st.claimed = false
	st.slot = -1
	st.state.Store(int32(StreamIdle))
	st.flush.Store(false)
}

// closeSources closes every source not yet consumed.
func (e *Engine) closeSources(st *streamChannel) {
	for n := st.queue; n < st.write.Load(); n++ {
		q := &st.segs[n%uint64(len(st.segs))]
		if q.src != nil {
			if err := q.src.Close(); err != nil {
				e.log.Debug("close segment source", zap.Error(err))
			}
		}
		*q = queuedSegment{}
	}
}

// fillStream fills the empty transfer blocks of st in order, one segment
// per block.
func (e *Engine) fillStream(si int, st *streamChannel) {
	for range len(st.blocks) {
		blk := &st.blocks[st.fillBlock]
		if blockStatus(blk.status.Load()) != blockEmpty {
			return
		}
		if st.cur == nil {
			if st.queue == st.write.Load() {
				return
			}
			st.cur = &st.segs[st.queue%uint64(len(st.segs))]
			st.curOff = 0
		}

		q := st.cur
		blk.seq = st.queue
		blk.bitrate, blk.channels = q.bitrate, q.channels
		blk.params = q.params
		if q.src != nil {
			e.fillFromSource(si, q, blk)
		} else {
			blk.n = copy(blk.data, q.data[st.curOff:])
			st.curOff += blk.n
			blk.last = st.curOff >= len(q.data)
		}

		if blk.last {
			if q.src != nil {
				if err := q.src.Close(); err != nil {
					e.log.Debug("close segment source", zap.Int("stream", si), zap.Error(err))
				}
			}
			*q = queuedSegment{}
			st.cur = nil
			st.queue++
		}
		blk.status.Store(int32(blockFilled))
		st.fillBlock ^= 1
	}
}

// fillFromSource reads up to one block of q's source and encodes it as
// 16-bit PCM. Any read error ends the segment.
func (e *Engine) fillFromSource(si int, q *queuedSegment, blk *transferBlock) {
	buf := e.srcBuf[:min(len(e.srcBuf), len(blk.data)/2)]
	buf = buf[:len(buf)/q.channels*q.channels]

	var n int
	var err error
	for n < len(buf) && err == nil {
		var k int
		k, err = q.src.ReadSamples(buf[n:])
		if k == 0 && err == nil {
			err = io.ErrNoProgress
		}
		n += k
	}
	n -= n % q.channels

	utils.PutPCM16(blk.data, buf[:n])
	blk.n = n * 2
	blk.last = err != nil
	if err != nil && !errors.Is(err, io.EOF) {
		e.log.Warn("stream source failed", zap.Int("stream", si), zap.Error(err))
	}
}

// report logs what the callback counted since the last pass.
func (e *Engine) report() {
	s := e.Stats()
	if d := s.DecodeFailures - e.logged.decodeFailures; d > 0 {
		e.log.Warn("decode failures", zap.Uint64("count", d), zap.Uint64("total", s.DecodeFailures))
	}
	if d := s.Underruns - e.logged.underruns; d > 0 {
		e.log.Warn("stream underruns", zap.Uint64("count", d), zap.Uint64("total", s.Underruns))
	}
	if s.Downgraded && !e.logged.downgraded {
		e.log.Warn("callback overloaded, halved codec bandwidth", zap.Int("bins", e.codec.Bandwidth()))
	}
	if err := e.Err(); err != nil && !e.logged.fatal {
		e.log.Error("output stopped", zap.Error(err))
		e.logged.fatal = true
	}
	e.logged.decodeFailures = s.DecodeFailures
	e.logged.underruns = s.Underruns
	e.logged.downgraded = s.Downgraded
}
