// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"sync/atomic"

	"github.com/ik5/audmix/bank"
	"github.com/ik5/audmix/dsp"
)

type cmdKind uint8

const (
	cmdPlay cmdKind = iota + 1
	cmdStream
	cmdStop
	cmdStopAll
	cmdVolume
	cmdPan
	cmdPitch
	cmdMute
	cmdEQ
	cmdDirectional
	cmdEndLoop
	cmdRestart
	cmdMasterEQ
)

// command carries one control request to the callback. Values are copied
// in so the callback never reads memory the caller may still change.
type command struct {
	kind   cmdKind
	slot   uint16
	gen    uint32
	value  int32
	ticks  int32
	flag   bool
	curve  dsp.Curve
	asset  *bank.Asset
	stream int
	play   PlayParams
}

// ring is a fixed single-producer single-consumer queue. The producer is
// the control side under the engine mutex; the consumer is the callback.
type ring struct {
	buf  []command
	head atomic.Uint64 // next to read, written by the consumer
	tail atomic.Uint64 // next to write, written by the producer
}

func newRing(n int) ring {
	return ring{buf: make([]command, n)}
}

// space is the number of free entries as seen by the producer.
func (r *ring) space() int {
	return len(r.buf) - int(r.tail.Load()-r.head.Load())
}

// push copies c into the ring. It reports false when full.
func (r *ring) push(c *command) bool {
	t := r.tail.Load()
	if t-r.head.Load() == uint64(len(r.buf)) {
		return false
	}
	r.buf[t%uint64(len(r.buf))] = *c
	r.tail.Store(t + 1)
	return true
}

// peek returns the oldest command or nil. The entry stays owned by the
// consumer until pop.
func (r *ring) peek() *command {
	h := r.head.Load()
	if h == r.tail.Load() {
		return nil
	}
	return &r.buf[h%uint64(len(r.buf))]
}

func (r *ring) pop() {
	h := r.head.Load()
	r.buf[h%uint64(len(r.buf))] = command{}
	r.head.Store(h + 1)
}
