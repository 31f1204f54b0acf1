package solver

// initialTour builds the first trial's tour. From each node the cheapest
// candidate edge leading to an unvisited node is followed (candidate lists
// are already sorted by alpha, then cost); when none exists the walk jumps to
// the nearest unvisited node. The start node is randomized.
func (s *Solver) initialTour() []*Node {
	visited := make([]bool, s.dim+1)
	order := make([]*Node, 0, s.dim)
	cur := s.node(1 + s.rng.Intn(s.dim))
	for {
		visited[cur.Id] = true
		order = append(order, cur)
		if len(order) == s.dim {
			return order
		}
		var next *Node
		for i := range cur.Cand {
			if !visited[cur.Cand[i].To.Id] {
				next = cur.Cand[i].To
				break
			}
		}
		if next == nil {
			var nearest int64
			for j := 1; j <= s.dim; j++ {
				if visited[j] {
					continue
				}
				nd := s.node(j)
				dd := s.d(cur, nd)
				if next == nil || dd < nearest {
					next, nearest = nd, dd
				}
			}
		}
		cur = next
	}
}
