package solver

import (
	"math"
	"sort"
)

const (
	// ascentNeighborCap bounds the per-node neighbor lists used for the
	// sparse 1-trees inside the ascent.
	ascentNeighborCap = 50

	infCost = int64(math.MaxInt64 / 4)
)

// oneTree describes the most recently built minimum 1-tree: the special node,
// its extra (second cheapest) edge, the subgradient norm, and the nodes in
// parent-before-child order for the beta recursion.
type oneTree struct {
	n1         *Node
	n1Next     *Node
	n1NextCost int64
	norm       int
	order      []*Node
}

// ascent runs the subgradient optimization: starting from Pi = 0 it
// repeatedly builds a minimum 1-tree under reduced costs and pushes each Pi
// toward the degree-2 condition, keeping the Pi vector of the best bound
// seen. Returns the best (scaled) lower bound.
func (s *Solver) ascent() int64 {
	n := s.dim
	sparse := s.params.MaxCandidates > 0 && n > 3
	if sparse {
		s.buildAscentNeighbors()
	}

	w := s.minimum1Tree(false)
	bestW := w
	bestPi := make([]int64, n+1)
	if s.tree.norm == 0 {
		return bestW
	}
	for i := 1; i <= n; i++ {
		nd := s.node(i)
		nd.lastV = nd.v
	}

	// Step size in the same fixed-point scale as costs; the period-halving
	// schedule below decays it to zero.
	t := s.precision
	if avg := w / int64(n*10); avg > t {
		t = avg
	}
	period := n / 2
	if period < 16 {
		period = 16
	}

	for ; t > 0; t /= 2 {
		for p := 1; p <= period; p++ {
			for i := 1; i <= n; i++ {
				nd := s.node(i)
				if nd.v != 0 {
					nd.Pi += t * int64(7*nd.v+3*nd.lastV) / 10
				}
				nd.lastV = nd.v
			}
			w = s.minimum1Tree(sparse)
			if s.tree.norm == 0 {
				if w > bestW {
					bestW = w
					for i := 1; i <= n; i++ {
						bestPi[i] = s.node(i).Pi
					}
				}
				goto done
			}
			if w > bestW {
				bestW = w
				for i := 1; i <= n; i++ {
					bestPi[i] = s.node(i).Pi
				}
				if p == period {
					period *= 2
				}
			}
		}
	}
done:
	for i := 1; i <= n; i++ {
		s.node(i).Pi = bestPi[i]
	}
	// Rebuild the 1-tree under the winning Pi vector so the tree state the
	// candidate generation reads matches the reported bound.
	s.minimum1Tree(false)
	return bestW
}

// buildAscentNeighbors precomputes, per node, the nearest neighbors by raw
// cost. The sparse 1-trees inside the ascent restrict edge scans to these
// lists; the dense scan remains the fallback when the sparse graph
// disconnects.
func (s *Solver) buildAscentNeighbors() {
	n := s.dim
	k := ascentNeighborCap
	if k > n-1 {
		k = n - 1
	}
	s.ascentAdj = make([][]*Node, n+1)
	type nb struct {
		node *Node
		d    int64
	}
	buf := make([]nb, 0, n)
	for i := 1; i <= n; i++ {
		a := s.node(i)
		buf = buf[:0]
		for j := 1; j <= n; j++ {
			if j == i {
				continue
			}
			b := s.node(j)
			buf = append(buf, nb{node: b, d: s.d(a, b)})
		}
		sort.Slice(buf, func(x, y int) bool {
			if buf[x].d != buf[y].d {
				return buf[x].d < buf[y].d
			}
			return buf[x].node.Id < buf[y].node.Id
		})
		lst := make([]*Node, k)
		for j := 0; j < k; j++ {
			lst[j] = buf[j].node
		}
		s.ascentAdj[i] = lst
	}
	// Symmetric closure keeps the sparse graph connected more often.
	for i := 1; i <= n; i++ {
		a := s.node(i)
		for _, b := range s.ascentAdj[i] {
			found := false
			for _, back := range s.ascentAdj[b.Id] {
				if back == a {
					found = true
					break
				}
			}
			if !found {
				s.ascentAdj[b.Id] = append(s.ascentAdj[b.Id], a)
			}
		}
	}
}

// cr is the reduced cost used by the 1-tree machinery.
func (s *Solver) cr(a, b *Node) int64 {
	return s.d(a, b) + a.Pi + b.Pi
}

// minimum1Tree builds a minimum spanning tree over all nodes (Prim), then
// turns it into a 1-tree by adding the second cheapest edge at the leaf where
// that edge is most expensive, which is the choice that maximizes the bound.
// Degrees land in each node's v field (as degree minus two). Returns the
// lower bound in fixed-point scale: reduced tree cost minus twice the Pi sum.
func (s *Solver) minimum1Tree(sparse bool) int64 {
	n := s.dim
	for i := 1; i <= n; i++ {
		nd := s.node(i)
		nd.dad = nil
		nd.cost = infCost
		nd.inTree = false
		nd.v = -2
	}
	root := s.node(1)
	root.inTree = true
	order := make([]*Node, 0, n)
	order = append(order, root)

	var treeCost int64
	added := root
	for count := 1; count < n; count++ {
		if sparse {
			for _, b := range s.ascentAdj[added.Id] {
				if b.inTree {
					continue
				}
				if c := s.cr(added, b); c < b.cost {
					b.cost = c
					b.dad = added
				}
			}
		} else {
			for j := 1; j <= n; j++ {
				b := s.node(j)
				if b.inTree {
					continue
				}
				if c := s.cr(added, b); c < b.cost {
					b.cost = c
					b.dad = added
				}
			}
		}
		var best *Node
		for j := 1; j <= n; j++ {
			b := s.node(j)
			if b.inTree {
				continue
			}
			if best == nil || b.cost < best.cost || (b.cost == best.cost && b.Id < best.Id) {
				best = b
			}
		}
		if best == nil || best.cost >= infCost {
			// Sparse neighbor graph came apart; redo densely.
			return s.minimum1Tree(false)
		}
		best.inTree = true
		treeCost += best.cost
		best.v++
		best.dad.v++
		order = append(order, best)
		added = best
	}

	// Special node: the leaf whose second cheapest incident edge is most
	// expensive; its tree edge is its cheapest by the cut property.
	var n1, n1Next *Node
	var n1NextCost int64 = -1
	for j := 1; j <= n; j++ {
		leaf := s.node(j)
		// The root is never the special node: the beta recursion needs it
		// as an ordinary interior of the parent order.
		if leaf.v != -1 || leaf.dad == nil {
			continue
		}
		var second *Node
		secondCost := infCost
		for k := 1; k <= n; k++ {
			b := s.node(k)
			if b == leaf || b == leaf.dad {
				continue
			}
			if c := s.cr(leaf, b); c < secondCost || (c == secondCost && second != nil && b.Id < second.Id) {
				secondCost = c
				second = b
			}
		}
		if second != nil && secondCost > n1NextCost {
			n1 = leaf
			n1Next = second
			n1NextCost = secondCost
		}
	}
	if n1 == nil {
		// No leaf means n <= 2; callers reject those instances up front.
		panic("solver: minimum spanning tree has no leaf")
	}
	treeCost += n1NextCost
	n1.v++
	n1Next.v++

	norm := 0
	var piSum int64
	for j := 1; j <= n; j++ {
		nd := s.node(j)
		norm += nd.v * nd.v
		piSum += nd.Pi
	}
	s.tree = oneTree{n1: n1, n1Next: n1Next, n1NextCost: n1NextCost, norm: norm, order: order}
	return treeCost - 2*piSum
}
