package solver

// Node is one stop of the instance. Nodes live in an arena allocated once per
// run (Solver.nodes) and are addressed by Id (1..N). Pred/Suc encode the
// current tour as a doubly linked ring; Rank is the node's position along the
// ring in physical successor direction and is kept consistent by Tour.Flip.
type Node struct {
	Id   int
	X, Y float64

	// Pi is the Lagrangian multiplier from the subgradient ascent, in the
	// same fixed-point scale as edge costs.
	Pi int64

	Pred, Suc *Node
	Rank      int

	// BestSuc is the successor in the best tour found so far.
	BestSuc *Node

	Cand []Candidate

	// Subgradient scratch: 1-tree degree minus two, current and previous.
	v, lastV int

	// Minimum spanning tree scratch: parent link, parent edge reduced cost
	// (doubles as the Prim key), membership flag.
	dad    *Node
	cost   int64
	inTree bool

	// Alpha-nearness scratch.
	beta int64
	mark int

	// Active queue linkage for the local search.
	queueNext *Node
	active    bool
}

// Candidate is one prioritized neighbor edge of a node. Cost is the scaled
// edge cost (including Pi terms); Alpha is the estimated cost of forcing the
// edge into the minimum 1-tree. Lists are sorted by ascending (Alpha, Cost).
type Candidate struct {
	To    *Node
	Cost  int64
	Alpha int64
}

// hasCandidate reports whether b occurs in a's candidate list.
func hasCandidate(a, b *Node) bool {
	for i := range a.Cand {
		if a.Cand[i].To == b {
			return true
		}
	}
	return false
}
