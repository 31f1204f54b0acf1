package solver

import (
	"context"
	"math"
	"time"
)

// findTour is the outer trial loop. Trial 1 starts from a greedy tour; every
// later trial restores the best tour found so far and perturbs it with a
// double-bridge kick before handing it to the local search. Acceptance is
// lexicographic on (penalty, cost). The loop stops when the trial budget is
// spent, the time budget or context expires between trials, or the search
// produces the same tour cyclingThreshold trials in a row.
func (s *Solver) findTour(ctx context.Context, deadline time.Time) (Status, int) {
	s.betterCost = math.MaxInt64
	s.betterPenalty = math.MaxInt64
	var lastHash uint64
	lastCost := int64(math.MinInt64)
	cycling := 0
	trials := 0

	for s.trial = 1; s.trial <= s.params.MaxTrials; s.trial++ {
		if ctx.Err() != nil {
			return StatusTimeLimit, trials
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return StatusTimeLimit, trials
		}
		if s.trial == 1 {
			s.tour = newTour(s.initialTour())
		} else {
			s.restoreBestTour()
			s.kick()
		}
		cost := s.linKernighan()
		trials++
		pen := s.currentPenalty

		improved := pen < s.betterPenalty || (pen == s.betterPenalty && cost < s.betterCost)
		if improved {
			s.betterPenalty, s.betterCost = pen, cost
			s.saveBestTour()
			s.addTourCandidates()
			if s.params.TraceLevel >= 2 {
				s.logf("trial %d: cost = %d, penalty = %d", s.trial, cost, pen)
			}
		}
		if s.params.OnTrial != nil {
			s.params.OnTrial(TrialUpdate{Trial: s.trial, Cost: cost, Best: s.betterCost, Improved: improved})
		}

		if s.hash == lastHash && cost == lastCost {
			cycling++
			if cycling >= cyclingThreshold {
				return StatusConverged, trials
			}
		} else {
			cycling = 0
		}
		lastHash, lastCost = s.hash, cost
	}
	return StatusTrialLimit, trials
}

// saveBestTour snapshots the current tour into the BestSuc chain.
func (s *Solver) saveBestTour() {
	seq := s.tour.sequence(s.firstNode())
	for i, a := range seq {
		a.BestSuc = seq[(i+1)%len(seq)]
	}
}

// restoreBestTour relinks the ring to the BestSuc chain. If no trial has
// completed yet there is no chain, and a fresh greedy tour is used instead.
func (s *Solver) restoreBestTour() {
	first := s.firstNode()
	if first.BestSuc == nil {
		s.tour = newTour(s.initialTour())
		return
	}
	order := make([]*Node, 0, s.dim)
	for nd := first; ; nd = nd.BestSuc {
		order = append(order, nd)
		if nd.BestSuc == first {
			break
		}
	}
	if s.tour == nil {
		s.tour = newTour(order)
	} else {
		s.tour.relink(order)
	}
}

// kick applies a double-bridge perturbation: three random cut points split
// the tour into segments A B C D, reconnected as A C B D. The move is a
// non-sequential 4-exchange the local search cannot undo in one step.
func (s *Solver) kick() {
	seq := s.tour.sequence(s.firstNode())
	n := len(seq)
	if n < 4 {
		return
	}
	p := 1 + s.rng.Intn(n-3)
	q := p + 1 + s.rng.Intn(n-p-2)
	r := q + 1 + s.rng.Intn(n-q-1)
	order := make([]*Node, 0, n)
	order = append(order, seq[:p]...)
	order = append(order, seq[q:r]...)
	order = append(order, seq[p:q]...)
	order = append(order, seq[r:]...)
	s.tour.relink(order)
}
