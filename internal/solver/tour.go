package solver

import "fmt"

// Tour is the current cyclic order over the node arena, stored implicitly in
// each node's Pred/Suc links. Rank gives a node's position along the physical
// successor direction; the reversed bit says whether the logical tour runs
// with or against that direction. Flip reverses the shorter of the two
// physical arcs, so a single move never touches more than half the ring.
type Tour struct {
	n        int
	reversed bool
	anchor   *Node
}

// newTour links the given order into a ring. The order defines the logical
// tour; orientation starts forward.
func newTour(order []*Node) *Tour {
	n := len(order)
	for i, nd := range order {
		nd.Suc = order[(i+1)%n]
		nd.Pred = order[(i-1+n)%n]
		nd.Rank = i
	}
	return &Tour{n: n, anchor: order[0]}
}

// relink rewrites the ring to the given order, keeping the Tour value.
func (t *Tour) relink(order []*Node) {
	n := len(order)
	for i, nd := range order {
		nd.Suc = order[(i+1)%n]
		nd.Pred = order[(i-1+n)%n]
		nd.Rank = i
	}
	t.reversed = false
	t.anchor = order[0]
}

// Next returns a's successor on the logical tour.
func (t *Tour) Next(a *Node) *Node {
	if t.reversed {
		return a.Pred
	}
	return a.Suc
}

// Prev returns a's predecessor on the logical tour.
func (t *Tour) Prev(a *Node) *Node {
	if t.reversed {
		return a.Suc
	}
	return a.Pred
}

// Reverse flips the logical orientation of the whole tour in O(1).
func (t *Tour) Reverse() { t.reversed = !t.reversed }

// normalize rewrites the physical links to follow the logical order and
// clears the reversed bit. The search toggles orientation freely; readers
// outside it expect the forward direction.
func (t *Tour) normalize() {
	if t.reversed {
		t.relink(t.sequence(t.anchor))
	}
}

// Between reports whether b lies on the logical path from a to c (inclusive)
// when following Next. O(1) via ranks.
func (t *Tour) Between(a, b, c *Node) bool {
	if t.reversed {
		return betweenRank(c.Rank, b.Rank, a.Rank)
	}
	return betweenRank(a.Rank, b.Rank, c.Rank)
}

func betweenRank(ra, rb, rc int) bool {
	if ra <= rc {
		return ra <= rb && rb <= rc
	}
	return rb >= ra || rb <= rc
}

// arcLen is the number of nodes on the physical successor arc x..y inclusive.
func (t *Tour) arcLen(x, y *Node) int {
	return (y.Rank-x.Rank+t.n)%t.n + 1
}

// Flip replaces the tour edges (a,b) and (c,d) with (a,c) and (b,d), where
// b == Next(a) and d == Next(c), by reversing the logical segment b..c. The
// shorter physical arc is reversed; when that arc is the complement, the
// orientation bit is toggled instead of walking the long side.
func (t *Tour) Flip(a, b, c, d *Node) {
	if t.Next(a) != b || t.Next(c) != d || a == c || b == d || b == c || a == d {
		panic(fmt.Sprintf("solver: invalid flip of edges (%d,%d) and (%d,%d)", a.Id, b.Id, c.Id, d.Id))
	}
	x1, y1 := b, c
	x2, y2 := d, a
	if t.reversed {
		x1, y1 = c, b
		x2, y2 = a, d
	}
	len1 := t.arcLen(x1, y1)
	if 2*len1 <= t.n {
		t.reverseArc(x1, y1, len1)
	} else {
		t.reverseArc(x2, y2, t.n-len1)
		t.reversed = !t.reversed
	}
}

// reverseArc physically reverses the successor-direction arc x..y of the
// given length, fixing up the boundary links and mirroring ranks.
func (t *Tour) reverseArc(x, y *Node, length int) {
	before, after := x.Pred, y.Suc
	r0 := x.Rank
	k := 0
	for n := x; ; {
		nx := n.Suc
		n.Pred, n.Suc = n.Suc, n.Pred
		n.Rank = (r0 + length - 1 - k) % t.n
		if n == y {
			break
		}
		n = nx
		k++
	}
	before.Suc = y
	y.Pred = before
	x.Suc = after
	after.Pred = x
}

// relocate removes the logical segment b..e (b first, following Next) and
// reinserts it right after u, reversed if rev is set. u must lie outside the
// segment. The whole ring is relinked, so this is O(n); it is only used for
// accepted moves, never inside the backtracking search.
func (t *Tour) relocate(b, e, u *Node, rev bool) {
	var seg []*Node
	for x := b; ; x = t.Next(x) {
		seg = append(seg, x)
		if x == e {
			break
		}
	}
	order := make([]*Node, 0, t.n)
	for x := t.Next(e); x != b; x = t.Next(x) {
		order = append(order, x)
		if x == u {
			if rev {
				for i := len(seg) - 1; i >= 0; i-- {
					order = append(order, seg[i])
				}
			} else {
				order = append(order, seg...)
			}
		}
	}
	if len(order) != t.n {
		panic(fmt.Sprintf("solver: relocate of %d..%d after %d lost nodes (%d of %d)",
			b.Id, e.Id, u.Id, len(order), t.n))
	}
	t.relink(order)
}

// sequence returns the logical tour starting at from.
func (t *Tour) sequence(from *Node) []*Node {
	out := make([]*Node, 0, t.n)
	n := from
	for {
		out = append(out, n)
		n = t.Next(n)
		if n == from {
			break
		}
	}
	return out
}

// verify walks the ring and panics if it is not a single Hamiltonian cycle
// with mutually inverse Pred/Suc links. Used after kicks and in tests; a
// failure is a logic defect, not a recoverable condition.
func (t *Tour) verify() {
	seen := 0
	n := t.anchor
	for {
		if n.Suc.Pred != n || n.Pred.Suc != n {
			panic(fmt.Sprintf("solver: broken tour links at node %d (suc %d, pred %d)", n.Id, n.Suc.Id, n.Pred.Id))
		}
		seen++
		if seen > t.n {
			panic(fmt.Sprintf("solver: tour cycle longer than %d nodes at node %d", t.n, n.Id))
		}
		n = n.Suc
		if n == t.anchor {
			break
		}
	}
	if seen != t.n {
		panic(fmt.Sprintf("solver: tour cycle covers %d of %d nodes", seen, t.n))
	}
}
