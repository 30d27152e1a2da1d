// SPDX-License-Identifier: EPL-2.0

package mixer

// claim takes a slot for a new voice of priority prio. Callers hold e.mu,
// so the only other writer of slot status is the callback, which may free
// slots or move them between audible states at any time.
//
// While more than ReservedHeadroom slots are left, or when prio is above
// AlwaysAdmit, the first free slot is taken. Otherwise the quietest
// audible voice of lower priority is stolen: lowest priority first, then
// lowest volume, then shortest remaining fade.
func (e *Engine) claim(prio Priority) (idx int, stolen bool, err error) {
	prio = max(prio, PriorityLowest)
	always := prio > e.cfg.AlwaysAdmit

	for {
		if always || int(e.inUse.Load()) < len(e.slots)-e.cfg.ReservedHeadroom {
			for i := range e.slots {
				if e.slots[i].cas(StatusFree, StatusInUse) {
					e.inUse.Add(1)
					return i, false, nil
				}
			}
		}

		victim, st := e.victim(prio, always)
		if victim < 0 {
			return 0, false, ErrNoVoiceAvailable
		}
		// The callback may have moved the victim on; look again.
		if e.slots[victim].cas(st, StatusInUse) {
			return victim, true, nil
		}
	}
}

// victim picks the eviction candidate and the status it was seen in, or
// -1 when nothing may be evicted.
func (e *Engine) victim(prio Priority, always bool) (int, Status) {
	best, bestSt := -1, StatusFree
	var bp Priority
	var bv, bf int32

	for i := range e.slots {
		s := &e.slots[i]
		st := s.load()
		if !st.audible() {
			continue
		}
		p := Priority(s.priority.Load())
		if p >= prio && !always {
			continue
		}
		v, f := s.volume.Load(), s.fade.Load()
		if best < 0 || p < bp || (p == bp && (v < bv || (v == bv && f < bf))) {
			best, bestSt, bp, bv, bf = i, st, p, v, f
		}
	}
	return best, bestSt
}
