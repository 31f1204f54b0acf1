package solver

import "fmt"

const (
	// lkMaxDepth caps the number of sequential exchange steps in one move.
	lkMaxDepth = 5
)

// lkBreadth is the backtracking width per depth: every candidate at the first
// level, a few at the second, first-fit below that.
func lkBreadth(depth int) int {
	switch depth {
	case 1:
		return 1 << 30
	case 2:
		return 3
	default:
		return 1
	}
}

// flipRec remembers one applied Flip so it can be undone (the inverse of
// Flip(a, b, c, d) is Flip(a, c, b, d)) or replayed.
type flipRec struct {
	a, b, c, d *Node
}

func (s *Solver) doFlip(a, b, c, d *Node) {
	s.tour.Flip(a, b, c, d)
	s.swaps = append(s.swaps, flipRec{a, b, c, d})
}

// undoTo rolls the tour back until only the first k applied flips remain.
func (s *Solver) undoTo(k int) {
	for len(s.swaps) > k {
		f := s.swaps[len(s.swaps)-1]
		s.swaps = s.swaps[:len(s.swaps)-1]
		s.tour.Flip(f.a, f.c, f.b, f.d)
	}
}

// bestClose tracks the most profitable closed state met during one sequential
// search, together with the flip prefix that produces it.
type bestClose struct {
	delta int64
	seq   []flipRec
}

// activate appends a node to the FIFO work queue unless it is already queued.
func (s *Solver) activate(nd *Node) {
	if nd.active {
		return
	}
	nd.active = true
	nd.queueNext = nil
	if s.lastActive == nil {
		s.firstActive = nd
	} else {
		s.lastActive.queueNext = nd
	}
	s.lastActive = nd
}

func (s *Solver) popActive() *Node {
	nd := s.firstActive
	if nd == nil {
		return nil
	}
	s.firstActive = nd.queueNext
	if s.firstActive == nil {
		s.lastActive = nil
	}
	nd.queueNext = nil
	nd.active = false
	return nd
}

func (s *Solver) inBestTour(a, b *Node) bool {
	return a.BestSuc == b || b.BestSuc == a
}

// linKernighan improves the current tour to a local optimum and returns its
// unscaled cost. Nodes are processed from a FIFO queue; each improvement
// reactivates the endpoints it touched, and the search ends when the queue
// drains or the improved tour was already seen this run.
func (s *Solver) linKernighan() int64 {
	seq := s.tour.sequence(s.firstNode())
	s.hash = 0
	var cost int64
	for i, a := range seq {
		b := seq[(i+1)%len(seq)]
		cost += s.c(a, b) - a.Pi - b.Pi
		s.hash ^= s.hasher.edge(a, b)
	}
	s.currentCost = cost / s.precision
	s.currentPenalty = s.penalty()
	s.swaps = s.swaps[:0]
	// The dir loop below may leave the tour logically reversed; put the
	// links back in forward orientation before handing the tour on.
	defer s.tour.normalize()

	s.firstActive, s.lastActive = nil, nil
	for _, a := range seq {
		a.active = false
		a.queueNext = nil
	}
	for _, a := range seq {
		if s.trial == 1 || !s.inBestTour(a, s.tour.Prev(a)) || !s.inBestTour(a, s.tour.Next(a)) {
			s.activate(a)
		}
	}

	for {
		t1 := s.popActive()
		if t1 == nil {
			break
		}
		// Both tour edges of t1 are tried as the broken edge; the second
		// direction is reached by reversing the whole tour, which keeps the
		// invariant that the broken edge is always (t1, Next(t1)).
		for dir := 0; dir < 2; dir++ {
			if dir == 1 {
				s.tour.Reverse()
			}
			t2 := s.tour.Next(t1)
			if s.params.Recorder != nil {
				s.record(t1, t2, s.c(t1, t2))
			}
			gain := s.searchMove(t1, t2)
			if gain <= 0 {
				if dir == 1 {
					s.tour.Reverse()
				}
				continue
			}
			if gain%s.precision != 0 {
				panic(fmt.Sprintf("solver: gain %d is not a multiple of precision %d (t1 = %d)",
					gain, s.precision, t1.Id))
			}
			s.currentCost -= gain / s.precision
			dup := s.storeTour()
			s.activate(t1)
			if dup {
				// Already visited this tour in the current run: searching on
				// would retrace known ground.
				return s.currentCost
			}
			break
		}
	}
	return s.currentCost
}

// searchMove tries to improve the tour starting from broken edge (t1, t2),
// t2 == Next(t1). It returns the realized (scaled) gain, leaving the tour
// improved, or 0 with the tour untouched.
func (s *Solver) searchMove(t1, t2 *Node) int64 {
	var best bestClose
	s.lkStep(t1, 0, 1, &best)
	s.undoTo(0)
	if best.delta <= 0 {
		return s.specialMove(t1, t2)
	}
	for _, f := range best.seq {
		s.tour.Flip(f.a, f.b, f.c, f.d)
		s.activate(f.a)
		s.activate(f.b)
		s.activate(f.c)
		s.activate(f.d)
	}
	return best.delta
}

// lkStep is one level of the sequential search. The tour is physically in the
// state produced by the flips on s.swaps; delta is its scaled improvement over
// the state at move start. Every level re-breaks (t1, Next(t1)), extends to a
// candidate neighbor t3 of the loose end, and flips so the tour stays closed.
func (s *Solver) lkStep(t1 *Node, delta int64, depth int, best *bestClose) {
	if delta > best.delta {
		best.delta = delta
		best.seq = append(best.seq[:0], s.swaps...)
	}
	if depth > lkMaxDepth {
		return
	}
	t2 := s.tour.Next(t1)
	gain := delta + s.c(t1, t2)
	mark := len(s.swaps)
	tried := 0
	for i := range t2.Cand {
		t3 := t2.Cand[i].To
		if t3 == t1 || t3 == s.tour.Next(t2) || t3 == s.tour.Prev(t2) {
			continue
		}
		// The cumulative gain must stay positive after paying for the new
		// edge (t2, t3); candidates are sorted, but the stored cost lacks
		// current Pi offsets, so the exact cost is recomputed.
		if gain-s.c(t2, t3) <= 0 {
			continue
		}
		t4 := s.tour.Prev(t3)
		if t4 == t1 {
			continue
		}
		flipDelta := s.c(t1, t2) + s.c(t4, t3) - s.c(t2, t3) - s.c(t1, t4)
		s.doFlip(t1, t2, t4, t3)
		s.lkStep(t1, delta+flipDelta, depth+1, best)
		s.undoTo(mark)
		tried++
		if tried >= lkBreadth(depth) {
			break
		}
	}
}

// storeTour refreshes the tour fingerprint after an applied improvement and
// records it in the duplicate table. It reports whether the tour had been
// recorded before this call.
func (s *Solver) storeTour() bool {
	seq := s.tour.sequence(s.firstNode())
	s.hash = 0
	for i, a := range seq {
		b := seq[(i+1)%len(seq)]
		s.hash ^= s.hasher.edge(a, b)
	}
	dup := s.seen.contains(s.hash, s.currentCost)
	s.seen.insert(s.hash, s.currentCost)
	s.swaps = s.swaps[:0]
	return dup
}

// specialMove is the fallback tried when the sequential search fails: an
// Or-opt relocation of the 1..3 node segment starting at t2, reinserted next
// to one of t2's candidate neighbors in either orientation. Applied moves are
// final; there is no backtracking across a special move.
func (s *Solver) specialMove(t1, t2 *Node) int64 {
	for segLen := 1; segLen <= 3 && segLen+2 < s.dim; segLen++ {
		segEnd := t2
		for k := 1; k < segLen; k++ {
			segEnd = s.tour.Next(segEnd)
		}
		after := s.tour.Next(segEnd)
		if after == t1 {
			break
		}
		inSeg := func(nd *Node) bool {
			x := t2
			for k := 0; k < segLen; k++ {
				if nd == x {
					return true
				}
				x = s.tour.Next(x)
			}
			return false
		}
		removed := s.c(t1, t2) + s.c(segEnd, after)
		for i := range t2.Cand {
			t3 := t2.Cand[i].To
			if t3 == t1 || inSeg(t3) {
				continue
			}
			// Insert after t3 keeping segment direction, so t3 links
			// straight to t2.
			t3n := s.tour.Next(t3)
			if !inSeg(t3n) {
				gain := removed + s.c(t3, t3n) -
					s.c(t1, after) - s.c(t3, t2) - s.c(segEnd, t3n)
				if gain > 0 {
					s.tour.relocate(t2, segEnd, t3, false)
					return gain
				}
			}
			// Insert before t3 with the segment reversed, so t2 links
			// straight to t3.
			t3p := s.tour.Prev(t3)
			if t3p != segEnd && !inSeg(t3p) {
				gain := removed + s.c(t3p, t3) -
					s.c(t1, after) - s.c(t3p, segEnd) - s.c(t2, t3)
				if gain > 0 {
					s.tour.relocate(t2, segEnd, t3p, true)
					return gain
				}
			}
		}
	}
	return 0
}
