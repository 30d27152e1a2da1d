// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"math"
	"sync"
	"testing"

	"github.com/ik5/audmix/bank"
)

const testRate = 48000

// centre is the per-channel gain of a centred voice.
var centre = math.Cos(math.Pi / 4)

func newTestEngine(t testing.TB, opts ...func(*Config)) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Voices = 8
	for _, o := range opts {
		o(&cfg)
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return e
}

func constant(frames int, v float32) []float32 {
	s := make([]float32, frames*2)
	for i := range s {
		s[i] = v
	}
	return s
}

// testBank holds stereo 16-bit assets of constant level:
//
//	tone   8 periods at 0.5
//	loop   1.5 periods at 0.25, looping over all of it
//	click  100 frames at 0.5
//	slow   one period at 44.1 kHz
func testBank(t testing.TB) *bank.Bank {
	t.Helper()

	b := bank.NewBuilder()
	add := func(name string, frames int, v float32, rate int, loop bool) {
		if err := b.AddPCM(name, constant(frames, v), rate, 2, loop); err != nil {
			t.Fatalf("AddPCM(%q) error = %v", name, err)
		}
	}
	add("tone", 8*NormalBlockFrames, 0.5, testRate, false)
	add("loop", NormalBlockFrames+NormalBlockFrames/2, 0.25, testRate, true)
	add("click", 100, 0.5, testRate, false)
	add("slow", NormalBlockFrames, 0.5, 44100, false)

	img, err := b.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	bk, err := bank.Load(img)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return bk
}

func asset(t testing.TB, b *bank.Bank, name string) *bank.Asset {
	t.Helper()

	a, err := b.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q) error = %v", name, err)
	}
	return a
}

func play(t testing.TB, e *Engine, a *bank.Asset, p PlayParams) Handle {
	t.Helper()

	h, err := e.Play(a, p)
	if err != nil {
		t.Fatalf("Play(%q) error = %v", a.Name, err)
	}
	return h
}

func params(prio Priority) PlayParams {
	p := DefaultPlayParams()
	p.Priority = prio
	return p
}

// mix runs n callbacks and returns the last block.
func mix(e *Engine, n int) []float32 {
	out := make([]float32, e.BlockFrames()*2)
	for range n {
		e.Mix(out)
	}
	return out
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

// busy counts slots past Free.
func busy(e *Engine) int {
	n := 0
	for i := range e.slots {
		if e.slots[i].load() != StatusFree {
			n++
		}
	}
	return n
}

// fakeDevice records lifecycle calls.
type fakeDevice struct {
	mtx    sync.Mutex
	pauses []bool
	closed int
	err    error
}

func (d *fakeDevice) Pause(p bool) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.pauses = append(d.pauses, p)
	return d.err
}

func (d *fakeDevice) Close() error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.closed++
	return nil
}

func (d *fakeDevice) calls() ([]bool, int) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	return append([]bool(nil), d.pauses...), d.closed
}
