// SPDX-License-Identifier: EPL-2.0

package mixer

import "sync/atomic"

// Stats is a snapshot of engine counters.
type Stats struct {
	Played         uint64
	Dropped        uint64
	Stolen         uint64
	DecodeFailures uint64
	Underruns      uint64
	InvalidHandles uint64
	Callbacks      uint64
	ActiveVoices   int
	Downgraded     bool
}

type counters struct {
	played         atomic.Uint64
	dropped        atomic.Uint64
	stolen         atomic.Uint64
	decodeFailures atomic.Uint64
	underruns      atomic.Uint64
	invalidHandles atomic.Uint64
	callbacks      atomic.Uint64
	downgraded     atomic.Bool
}

type loggedCounters struct {
	decodeFailures uint64
	underruns      uint64
	downgraded     bool
	fatal          bool
}

func (e *Engine) Stats() Stats {
	return Stats{
		Played:         e.stats.played.Load(),
		Dropped:        e.stats.dropped.Load(),
		Stolen:         e.stats.stolen.Load(),
		DecodeFailures: e.stats.decodeFailures.Load(),
		Underruns:      e.stats.underruns.Load(),
		InvalidHandles: e.stats.invalidHandles.Load(),
		Callbacks:      e.stats.callbacks.Load(),
		ActiveVoices:   int(e.inUse.Load()),
		Downgraded:     e.stats.downgraded.Load(),
	}
}
