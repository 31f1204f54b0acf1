package solver

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// pentagonCoords is a convex pentagon on a circle of radius 100; its optimal
// tour is the hull order 1..5.
func pentagonCoords() [][2]float64 {
	coords := make([][2]float64, 5)
	for k := 0; k < 5; k++ {
		a := 2 * math.Pi * float64(k) / 5
		coords[k] = [2]float64{100 * math.Cos(a), 100 * math.Sin(a)}
	}
	return coords
}

// bruteOptimal enumerates every tour through the arena and returns the
// cheapest raw cost. Only usable for tiny instances.
func bruteOptimal(s *Solver) int64 {
	n := s.dim
	used := make([]bool, n+1)
	best := int64(math.MaxInt64)
	var rec func(last, depth int, cost int64)
	rec = func(last, depth int, cost int64) {
		if depth == n {
			if total := cost + s.problem.dist(s.node(last), s.node(1)); total < best {
				best = total
			}
			return
		}
		for j := 2; j <= n; j++ {
			if used[j] {
				continue
			}
			used[j] = true
			rec(j, depth+1, cost+s.problem.dist(s.node(last), s.node(j)))
			used[j] = false
		}
	}
	rec(1, 1, 0)
	return best
}

func TestAscentBoundOnly(t *testing.T) {
	p, err := NewEuclidProblem("pentagon", pentagonCoords(), false)
	require.NoError(t, err)
	s, err := New(p, Params{MaxCandidates: 5, MaxTrials: 0, Seed: 1}, nil)
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusBoundOnly, res.Status)
	require.Empty(t, res.Tour)
	require.Zero(t, res.Trials)

	opt := bruteOptimal(s)
	require.Greater(t, res.LowerBound, 0.0)
	require.LessOrEqual(t, res.LowerBound, float64(opt)+1e-9)
}

func TestCandidateListShape(t *testing.T) {
	p, err := NewEuclidProblem("pentagon", pentagonCoords(), false)
	require.NoError(t, err)
	s, err := New(p, Params{MaxCandidates: 3, MaxTrials: 1, Seed: 1}, nil)
	require.NoError(t, err)
	require.NoError(t, s.createCandidateSet())

	for i := 1; i <= s.dim; i++ {
		nd := s.node(i)
		require.NotEmpty(t, nd.Cand, "node %d", i)
		require.LessOrEqual(t, len(nd.Cand), 3, "node %d", i)
		seenTo := map[int]bool{}
		for j, c := range nd.Cand {
			require.NotSame(t, nd, c.To, "node %d lists itself", i)
			require.False(t, seenTo[c.To.Id], "node %d lists %d twice", i, c.To.Id)
			seenTo[c.To.Id] = true
			require.GreaterOrEqual(t, c.Alpha, int64(0))
			if j > 0 {
				prev := nd.Cand[j-1]
				require.True(t, prev.Alpha < c.Alpha ||
					(prev.Alpha == c.Alpha && prev.Cost <= c.Cost),
					"node %d candidates out of order", i)
			}
		}
	}
}

func TestMaxCandidatesZeroBoundOnly(t *testing.T) {
	p, err := NewEuclidProblem("pentagon", pentagonCoords(), false)
	require.NoError(t, err)
	s, err := New(p, Params{MaxCandidates: 0, MaxTrials: 0, Seed: 1}, nil)
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusBoundOnly, res.Status)
	require.Greater(t, res.LowerBound, 0.0)
}

func TestMaxCandidatesZeroWithSearchIsConfigError(t *testing.T) {
	p, err := NewEuclidProblem("pentagon", pentagonCoords(), false)
	require.NoError(t, err)
	s, err := New(p, Params{MaxCandidates: 0, MaxTrials: 5, Seed: 1}, nil)
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.ErrorIs(t, err, ErrConfig)
}

func TestCandidateSymmetryOption(t *testing.T) {
	coords := [][2]float64{
		{0, 0}, {10, 1}, {20, 0}, {30, 2}, {40, 0},
		{40, 30}, {30, 31}, {20, 30}, {10, 32}, {0, 30},
	}
	p, err := NewEuclidProblem("grid", coords, false)
	require.NoError(t, err)
	s, err := New(p, Params{MaxCandidates: 3, MaxTrials: 1, Seed: 1, CandidateSetSymmetric: true}, nil)
	require.NoError(t, err)
	require.NoError(t, s.createCandidateSet())

	for i := 1; i <= s.dim; i++ {
		a := s.node(i)
		for _, c := range a.Cand {
			require.True(t, hasCandidate(c.To, a),
				"edge (%d,%d) present only one way", a.Id, c.To.Id)
		}
	}
}
