// SPDX-License-Identifier: EPL-2.0

package device

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var testConfig = Config{SampleRate: 48000, Channels: 2, PeriodFrames: 4}

// counter renders 0, 1, 2, ... across periods.
func counter() (Callback, *atomic.Int64) {
	var calls atomic.Int64
	next := float32(0)
	return func(out []float32) {
		calls.Add(1)
		for i := range out {
			out[i] = next
			next++
		}
	}, &calls
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"stereo", testConfig, true},
		{"mono", Config{SampleRate: 8000, Channels: 1, PeriodFrames: 1}, true},
		{"zero rate", Config{Channels: 2, PeriodFrames: 4}, false},
		{"surround", Config{SampleRate: 48000, Channels: 6, PeriodFrames: 4}, false},
		{"no period", Config{SampleRate: 48000, Channels: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if tt.ok != (err == nil) {
				t.Fatalf("Validate() = %v, want ok=%v", err, tt.ok)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	cfg := Config{SampleRate: 48000, Channels: 2, PeriodFrames: 1024}
	if cfg.PeriodSamples() != 2048 {
		t.Errorf("PeriodSamples() = %d", cfg.PeriodSamples())
	}
	if got, want := cfg.Period(), 21333333*time.Nanosecond; got != want {
		t.Errorf("Period() = %v, want %v", got, want)
	}
}

func TestBlocker_Fill(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		sizes []int
	}{
		{"exact periods", []int{8, 8, 8}},
		{"small reads", []int{3, 3, 3, 3, 3}},
		{"large read", []int{21}},
		{"mixed", []int{1, 15, 2, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cb, calls := counter()
			b := NewBlocker(testConfig, cb)

			want := float32(0)
			total := 0
			for _, n := range tt.sizes {
				dst := make([]float32, n)
				b.Fill(dst)
				for i, v := range dst {
					if v != want {
						t.Fatalf("sample %d = %v, want %v", i, v, want)
					}
					want++
				}
				total += n
			}
			if periods := int64((total + 7) / 8); calls.Load() != periods {
				t.Errorf("callbacks = %d, want %d", calls.Load(), periods)
			}
		})
	}
}

func TestBlocker_Reset(t *testing.T) {
	t.Parallel()

	cb, _ := counter()
	b := NewBlocker(testConfig, cb)
	dst := make([]float32, 3)
	b.Fill(dst)
	b.Reset()
	b.Fill(dst)
	if dst[0] != 8 {
		t.Errorf("after Reset first sample = %v, want 8", dst[0])
	}
}

func TestBlocker_ZeroAllocs(t *testing.T) {
	cb, _ := counter()
	b := NewBlocker(testConfig, cb)
	dst := make([]float32, 13)

	allocs := testing.AllocsPerRun(100, func() {
		b.Fill(dst)
	})
	if allocs != 0 {
		t.Fatalf("Fill allocs = %f, want 0", allocs)
	}
}

func TestHeadless_Render(t *testing.T) {
	t.Parallel()

	cb, calls := counter()
	var got []float32
	h, err := NewHeadless(testConfig, cb, nil, WithSink(func(p []float32) error {
		got = append(got, p...)
		return nil
	}))
	if err != nil {
		t.Fatalf("NewHeadless() error = %v", err)
	}

	if err := h.Render(3); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if calls.Load() != 3 || len(got) != 24 || got[23] != 23 {
		t.Errorf("calls = %d, samples = %d", calls.Load(), len(got))
	}
}

func TestHeadless_Paced(t *testing.T) {
	t.Parallel()

	cfg := Config{SampleRate: 1000, Channels: 2, PeriodFrames: 1}
	cb, calls := counter()
	h, err := NewHeadless(cfg, cb, nil)
	if err != nil {
		t.Fatalf("NewHeadless() error = %v", err)
	}
	if err := h.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, func() bool { return calls.Load() >= 5 })

	if err := h.Pause(true); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	paused := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != paused {
		t.Errorf("callbacks continued while paused: %d -> %d", paused, calls.Load())
	}

	if err := h.Pause(false); err != nil {
		t.Fatalf("Pause(false) error = %v", err)
	}
	waitFor(t, func() bool { return calls.Load() > paused })

	if err := h.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := h.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close error = %v, want ErrClosed", err)
	}
}

func TestHeadless_SinkErrorStops(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	var mtx sync.Mutex
	n := 0
	cb, _ := counter()
	h, err := NewHeadless(testConfig, cb, nil, Unpaced(), WithSink(func([]float32) error {
		mtx.Lock()
		defer mtx.Unlock()
		n++
		if n == 3 {
			return boom
		}
		return nil
	}))
	if err != nil {
		t.Fatalf("NewHeadless() error = %v", err)
	}
	if err := h.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, func() bool {
		mtx.Lock()
		defer mtx.Unlock()
		return n >= 3
	})
	if err := h.Close(); !errors.Is(err, boom) {
		t.Fatalf("Close() error = %v, want %v", err, boom)
	}
	mtx.Lock()
	defer mtx.Unlock()
	if n != 3 {
		t.Errorf("sink called %d times, want 3", n)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out")
		}
		time.Sleep(time.Millisecond)
	}
}
