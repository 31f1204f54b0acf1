package solver

import (
	"fmt"
	"math"
)

// createCandidateSet runs the subgradient ascent, computes the lower bound,
// and builds each node's candidate list from alpha-nearness. Mirrors the
// preprocessing order of the trial loop's expectations: after this returns
// every node has Pi fixed and (unless MaxCandidates == 0) a non-empty,
// alpha-sorted candidate list.
func (s *Solver) createCandidateSet() error {
	for i := 1; i <= s.dim; i++ {
		s.node(i).Pi = 0
	}
	w := s.ascent()
	// The ascent leaves the final 1-tree in place; with MaxCandidates == 0
	// the whole ascent ran on exact (non-sparse) trees.
	s.lowerBound = float64(w) / float64(s.precision)
	if s.params.TraceLevel >= 1 {
		s.logf("lower bound = %.1f", s.lowerBound)
	}

	maxAlpha := int64(math.Abs(s.params.Excess * float64(w)))
	s.generateCandidates(maxAlpha)

	if s.params.MaxTrials > 0 {
		for i := 1; i <= s.dim; i++ {
			if len(s.node(i).Cand) == 0 {
				if s.params.MaxCandidates == 0 {
					return fmt.Errorf("%w: MaxCandidates = 0: node %d has no candidates", ErrConfig, i)
				}
				return fmt.Errorf("%w: node %d has no candidates", ErrConfig, i)
			}
		}
	}
	return nil
}

// generateCandidates assigns each node the MaxCandidates edges with smallest
// alpha value, alpha being the cost of forcing the edge into the minimum
// 1-tree. For a non-tree edge (a,b) that is C(a,b) minus the largest reduced
// cost on the tree path between a and b (the beta value); edges of the 1-tree
// itself get alpha 0; edges at the special node are measured against its
// second cheapest edge.
func (s *Solver) generateCandidates(maxAlpha int64) {
	n := s.dim
	max := s.params.MaxCandidates
	for i := 1; i <= n; i++ {
		s.node(i).Cand = nil
	}
	if max <= 0 {
		return
	}

	tree := &s.tree
	n1 := tree.n1
	s.markGen++
	gen := s.markGen

	for _, from := range tree.order {
		if from == n1 {
			continue
		}
		// Betas on the path from "from" up to the root...
		from.beta = -infCost
		from.mark = gen
		for to := from; to.dad != nil; to = to.dad {
			d := to.dad
			if to.beta > to.cost {
				d.beta = to.beta
			} else {
				d.beta = to.cost
			}
			d.mark = gen
		}
		// ...then everything else in parent-before-child order.
		for _, to := range tree.order {
			if to == from || to == n1 {
				continue
			}
			if to.mark != gen {
				if to.dad.beta > to.cost {
					to.beta = to.dad.beta
				} else {
					to.beta = to.cost
				}
			}
		}
		gen++
		s.markGen = gen

		for _, to := range tree.order {
			if to == from || to == n1 {
				continue
			}
			c := s.cr(from, to)
			var alpha int64
			switch {
			case to == from.dad || from == to.dad:
				alpha = 0
			default:
				alpha = c - to.beta
			}
			if alpha <= maxAlpha {
				s.insertCandidate(from, to, c, alpha)
			}
		}

		// Edges incident to the special node.
		c := s.cr(from, n1)
		var alpha int64
		if from == n1.dad || from == tree.n1Next {
			alpha = 0
		} else {
			alpha = c - tree.n1NextCost
		}
		if alpha <= maxAlpha {
			s.insertCandidate(from, n1, c, alpha)
			s.insertCandidate(n1, from, c, alpha)
		}
	}

	if s.params.CandidateSetSymmetric {
		s.symmetrizeCandidates()
	}
}

// insertCandidate places (to, cost, alpha) into from's list, keeping it
// sorted by (alpha, cost) and capped at MaxCandidates.
func (s *Solver) insertCandidate(from, to *Node, cost, alpha int64) {
	max := s.params.MaxCandidates
	cand := from.Cand
	for i := range cand {
		if cand[i].To == to {
			return
		}
	}
	pos := len(cand)
	for i := range cand {
		if alpha < cand[i].Alpha || (alpha == cand[i].Alpha && cost < cand[i].Cost) {
			pos = i
			break
		}
	}
	if pos >= max {
		return
	}
	cand = append(cand, Candidate{})
	copy(cand[pos+1:], cand[pos:])
	cand[pos] = Candidate{To: to, Cost: cost, Alpha: alpha}
	if len(cand) > max {
		cand = cand[:max]
	}
	from.Cand = cand
}

// symmetrizeCandidates appends the reverse of every candidate edge that is
// missing from its target's list. Appended entries may exceed the cap, as the
// cap bounds alpha-selected edges, not closure edges.
func (s *Solver) symmetrizeCandidates() {
	for i := 1; i <= s.dim; i++ {
		a := s.node(i)
		for _, c := range a.Cand {
			b := c.To
			if !hasCandidate(b, a) {
				b.Cand = append(b.Cand, Candidate{To: a, Cost: c.Cost, Alpha: c.Alpha})
			}
		}
	}
}

// addTourCandidates makes sure every edge of the current best tour is present
// in both endpoint lists, so later trials can always reconstruct it. Added
// edges carry the maximum alpha and go to the back of the list.
func (s *Solver) addTourCandidates() {
	for i := 1; i <= s.dim; i++ {
		a := s.node(i)
		b := a.BestSuc
		if b == nil {
			continue
		}
		if !hasCandidate(a, b) {
			a.Cand = append(a.Cand, Candidate{To: b, Cost: s.c(a, b), Alpha: infCost})
		}
		if !hasCandidate(b, a) {
			b.Cand = append(b.Cand, Candidate{To: a, Cost: s.c(a, b), Alpha: infCost})
		}
	}
}
