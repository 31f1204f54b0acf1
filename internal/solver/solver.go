package solver

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"
)

// Status classifies how a run ended.
type Status string

const (
	// StatusConverged means the duplicate detector saw the search cycling
	// without improvement and stopped it.
	StatusConverged Status = "converged"
	// StatusTrialLimit means the trial budget ran out.
	StatusTrialLimit Status = "trial_limit"
	// StatusTimeLimit means the wall-clock budget ran out between trials.
	StatusTimeLimit Status = "time_limit"
	// StatusBoundOnly means MaxTrials was 0: only the lower bound was
	// computed, no search ran.
	StatusBoundOnly Status = "bound_only"
)

// Result is the outcome of one run.
type Result struct {
	// Tour lists stop ids in visiting order (a cyclic permutation of the
	// caller's 1..N). Empty for bound-only runs.
	Tour []int
	// Cost is the unscaled tour cost. For asymmetric instances it is the
	// cost of the decoded directed tour.
	Cost    int64
	Penalty int64
	// LowerBound is the subgradient bound on the optimal cost.
	LowerBound float64
	Trials     int
	Status     Status
}

// Solver owns all mutable state of one run: the node arena, the tour, the
// candidate sets, the hash table and the RNG. Nothing is shared between
// Solver values, so independent instances may run concurrently.
type Solver struct {
	problem   *Problem
	params    Params
	precision int64
	rng       *rand.Rand
	logger    *log.Logger

	dim   int
	nodes []Node

	tour *Tour

	hasher *hasher
	seen   *hashTable

	tree       oneTree
	ascentAdj  [][]*Node
	markGen    int
	lowerBound float64

	// Search state.
	currentCost    int64
	currentPenalty int64
	hash           uint64
	swaps          []flipRec

	firstActive, lastActive *Node

	betterCost, betterPenalty int64
	trial                     int
	recordStep                int
}

// New builds a solver for one problem instance. logger may be nil, in which
// case trace output goes to the default logger.
func New(p *Problem, params Params, logger *log.Logger) (*Solver, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil problem", ErrConfig)
	}
	if p.Dimension < 3 {
		return nil, fmt.Errorf("%w: degenerate instance with %d stops", ErrConfig, p.Dimension)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	params = params.withDefaults(p.Dimension)

	s := &Solver{
		problem:   p,
		params:    params,
		precision: params.Precision,
		rng:       rand.New(rand.NewSource(params.Seed)),
		logger:    logger,
		dim:       p.Dimension,
		seen:      newHashTable(),
	}
	s.nodes = make([]Node, s.dim+1)
	for i := 1; i <= s.dim; i++ {
		s.nodes[i].Id = i
		if p.coords != nil {
			s.nodes[i].X = p.coords[i-1][0]
			s.nodes[i].Y = p.coords[i-1][1]
		}
	}
	s.hasher = newHasher(s.dim, s.rng)
	return s, nil
}

func (s *Solver) node(i int) *Node { return &s.nodes[i] }

func (s *Solver) firstNode() *Node { return &s.nodes[1] }

// LowerBound reports the subgradient lower bound; valid after Run.
func (s *Solver) LowerBound() float64 { return s.lowerBound }

func (s *Solver) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	} else {
		log.Printf(format, args...)
	}
}

// penalty evaluates the constraint penalty of the current tour. Plain
// instances have none; the lexicographic (penalty, cost) acceptance keeps
// working unchanged if a constrained variant supplies one.
func (s *Solver) penalty() int64 { return 0 }

// Run executes the whole pipeline: candidate generation, the trial loop, and
// best-tour materialization. Cancellation is cooperative: ctx and the time
// limit are checked between trials, never inside one.
func (s *Solver) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	if err := s.createCandidateSet(); err != nil {
		return Result{}, err
	}
	if s.params.MaxTrials == 0 {
		return Result{
			LowerBound: s.lowerBound,
			Penalty:    0,
			Status:     StatusBoundOnly,
		}, nil
	}

	var deadline time.Time
	if s.params.TimeLimit > 0 {
		deadline = start.Add(s.params.TimeLimit)
	}
	status, trials := s.findTour(ctx, deadline)

	s.restoreBestTour()
	res := s.materialize()
	res.Status = status
	res.Trials = trials
	if s.params.TraceLevel >= 1 {
		s.logf("run done: cost = %d, trials = %d, status = %s, time = %v",
			res.Cost, res.Trials, res.Status, time.Since(start).Round(time.Millisecond))
	}
	return res, nil
}

// materialize reads the current tour into a Result, decoding the asymmetric
// doubling if the instance used one, and refreshes cost and hash so reported
// numbers always come from the definitive ring.
func (s *Solver) materialize() Result {
	seq := s.tour.sequence(s.firstNode())
	s.hash = 0
	var cost int64
	for i, a := range seq {
		b := seq[(i+1)%len(seq)]
		cost += s.c(a, b) - a.Pi - b.Pi
		s.hash ^= s.hasher.edge(a, b)
	}
	cost /= s.precision

	res := Result{
		Penalty:    s.penalty(),
		LowerBound: s.lowerBound,
	}
	if !s.problem.asymmetric {
		res.Tour = make([]int, len(seq))
		for i, nd := range seq {
			res.Tour[i] = nd.Id
		}
		res.Cost = cost
		return res
	}

	// Asymmetric decode: originals are ids 1..n, twins n+1..2n. Walk in the
	// direction where each original is followed by its twin; the original
	// ids then read off as the directed tour.
	n := s.problem.baseDim
	var first *Node
	for _, nd := range seq {
		if nd.Id <= n {
			first = nd
			break
		}
	}
	forward := s.tour.Next(first).Id == first.Id+n
	order := make([]int, 0, n)
	nd := first
	for len(order) < n {
		if nd.Id <= n {
			order = append(order, nd.Id)
		}
		if forward {
			nd = s.tour.Next(nd)
		} else {
			nd = s.tour.Prev(nd)
		}
	}
	res.Tour = order
	var dcost int64
	m := s.problem.matrix
	for i := range order {
		from := order[i] - 1
		to := order[(i+1)%n] - 1
		// m holds the doubled instance; the directed cost sits on the
		// (from+n, to) pair.
		dcost += m[n+from][to]
	}
	res.Cost = dcost
	return res
}
