// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// TestConcurrentControl drives the control API from several goroutines
// while a callback and the refill worker run, then checks the pool is
// consistent once everything settles. Run with -race.
func TestConcurrentControl(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, func(c *Config) {
		c.Voices = 16
		c.Streams = 4
	})
	b := testBank(t)
	click, tone := asset(t, b, "click"), asset(t, b, "tone")

	ctx, cancel := context.WithCancel(t.Context())
	var workers sync.WaitGroup
	workers.Go(func() {
		_ = e.Run(ctx)
	})
	stop := callbackLoop(e)

	var g errgroup.Group
	for w := range 4 {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(w), 7))
			var mine []Handle
			for range 400 {
				var err error
				switch op := rng.IntN(10); {
				case op < 3:
					var h Handle
					a := click
					if rng.IntN(2) == 0 {
						a = tone
					}
					h, err = e.Play(a, params(Priority(rng.IntN(101))))
					if err == nil {
						mine = append(mine, h)
					}
				case op == 3:
					var h Handle
					h, err = e.StartStream(StreamParams{Priority: PriorityNormal, Volume: VolumeMax}, segment(NormalBlockFrames, 0.1))
					if err == nil {
						mine = append(mine, h)
						err = e.QueueSegment(h, segment(NormalBlockFrames/2, 0.1))
					}
				case len(mine) == 0:
					continue
				case op < 6:
					err = e.Stop(mine[rng.IntN(len(mine))], int32(rng.IntN(3)))
				case op < 8:
					err = e.SetVolume(mine[rng.IntN(len(mine))], int32(rng.IntN(10001)), 2)
				default:
					err = e.SetPan(mine[rng.IntN(len(mine))], int32(rng.IntN(361)-180), 2)
				}
				if err != nil && !expected(err) {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("control error = %v", err)
	}

	// Let every voice run out, then stop the threads.
	deadline := time.Now().Add(5 * time.Second)
	for e.ActiveVoices() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	stop()
	cancel()
	workers.Wait()

	if n := e.ActiveVoices(); n != 0 || busy(e) != 0 {
		t.Fatalf("ActiveVoices() = %d busy = %d, want both 0", n, busy(e))
	}
	if b.Refs() != 0 {
		t.Errorf("Refs() = %d, want 0", b.Refs())
	}
	s := e.Stats()
	if s.Callbacks == 0 || s.Played == 0 {
		t.Errorf("Stats() = %+v, want activity", s)
	}
}

func expected(err error) bool {
	for _, want := range []error{
		ErrInvalidHandle, ErrNoVoiceAvailable, ErrCommandQueueFull,
		ErrNoStreamAvailable, ErrSegmentQueueFull, ErrNotStream,
	} {
		if errors.Is(err, want) {
			return true
		}
	}
	return false
}

func TestRun_FeedsStream(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	h := startStream(t, e, segment(NormalBlockFrames, 0.5))
	for range 5 {
		queue(t, e, h, segment(NormalBlockFrames, 0.5))
	}

	ctx, cancel := context.WithCancel(t.Context())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	stop := callbackLoop(e)

	deadline := time.Now().Add(5 * time.Second)
	for e.Valid(h) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	stop()
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if e.Valid(h) {
		t.Fatal("stream never finished")
	}
	if s := e.Stats(); s.Played != 1 {
		t.Errorf("Played = %d, want 1", s.Played)
	}
}
