package solver

import (
	"fmt"
	"math"
)

// WeightKind selects how raw edge costs are obtained. The variant is fixed
// once at problem construction; the search never dispatches on it again.
type WeightKind int

const (
	// WeightEuclid2D rounds the planar Euclidean distance to the nearest
	// integer (TSPLIB EUC_2D semantics).
	WeightEuclid2D WeightKind = iota
	// WeightCeil2D rounds the planar Euclidean distance up (CEIL_2D).
	WeightCeil2D
	// WeightMatrix reads costs from an explicit matrix.
	WeightMatrix
)

// Problem is a fully materialized instance: a stop count plus an integer cost
// function. Asymmetric matrices are folded into a symmetric instance of twice
// the size at construction time, so the search core only ever sees symmetric
// costs; Result decoding maps back to the original stops.
type Problem struct {
	Name      string
	Dimension int
	Kind      WeightKind

	coords [][2]float64
	matrix [][]int64

	// Asymmetric transform bookkeeping.
	asymmetric bool
	baseDim    int
	linkBonus  int64 // the -M reward on each (i, i+n) pair
}

// NewEuclidProblem builds a symmetric planar instance from coordinates.
func NewEuclidProblem(name string, coords [][2]float64, ceil bool) (*Problem, error) {
	if len(coords) <= 1 {
		return nil, fmt.Errorf("%w: degenerate instance with %d stops", ErrConfig, len(coords))
	}
	kind := WeightEuclid2D
	if ceil {
		kind = WeightCeil2D
	}
	return &Problem{Name: name, Dimension: len(coords), Kind: kind, coords: coords}, nil
}

// NewMatrixProblem builds an instance from an explicit cost matrix. When
// symmetric is false the standard doubling transform is applied: stop i gains
// a twin i+n, pair (i, i+n) costs -M, pair (i+n, j) costs m[i][j], and
// same-side pairs are priced out. Any tour of the doubled instance that keeps
// every twin pair adjacent encodes an asymmetric tour of the original.
func NewMatrixProblem(name string, m [][]int64, symmetric bool) (*Problem, error) {
	n := len(m)
	if n <= 1 {
		return nil, fmt.Errorf("%w: degenerate instance with %d stops", ErrConfig, n)
	}
	for i := range m {
		if len(m[i]) != n {
			return nil, fmt.Errorf("%w: cost matrix row %d has %d entries, want %d", ErrConfig, i+1, len(m[i]), n)
		}
	}
	if symmetric {
		return &Problem{Name: name, Dimension: n, Kind: WeightMatrix, matrix: m}, nil
	}

	var maxD int64
	for i := range m {
		for j := range m[i] {
			if i != j && m[i][j] > maxD {
				maxD = m[i][j]
			}
		}
	}
	link := int64(n)*maxD + 1
	forbid := 2 * int64(n) * link

	s := make([][]int64, 2*n)
	for i := range s {
		s[i] = make([]int64, 2*n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s[i][j] = forbid
			s[n+i][n+j] = forbid
			if i == j {
				s[n+i][j] = -link
				s[j][n+i] = -link
			} else {
				// Edge (i+n, j) carries the directed cost i -> j.
				s[n+i][j] = m[i][j]
				s[j][n+i] = m[i][j]
			}
		}
	}
	return &Problem{
		Name:       name,
		Dimension:  2 * n,
		Kind:       WeightMatrix,
		matrix:     s,
		asymmetric: true,
		baseDim:    n,
		linkBonus:  link,
	}, nil
}

// Asymmetric reports whether the instance was built from an asymmetric matrix.
func (p *Problem) Asymmetric() bool { return p.asymmetric }

// BaseDimension is the stop count of the caller's instance (before any
// asymmetric doubling).
func (p *Problem) BaseDimension() int {
	if p.asymmetric {
		return p.baseDim
	}
	return p.Dimension
}

// dist returns the raw (unscaled) cost between two nodes.
func (p *Problem) dist(a, b *Node) int64 {
	switch p.Kind {
	case WeightMatrix:
		return p.matrix[a.Id-1][b.Id-1]
	case WeightCeil2D:
		dx := a.X - b.X
		dy := a.Y - b.Y
		return int64(math.Ceil(math.Sqrt(dx*dx + dy*dy)))
	default:
		dx := a.X - b.X
		dy := a.Y - b.Y
		return int64(math.Sqrt(dx*dx+dy*dy) + 0.5)
	}
}

// c returns the transformed cost used throughout the search: the raw cost in
// fixed-point scale plus both endpoints' Pi values. Pi terms cancel over any
// closed exchange, which is what keeps every gain an exact multiple of the
// precision factor.
func (s *Solver) c(a, b *Node) int64 {
	return s.problem.dist(a, b)*s.precision + a.Pi + b.Pi
}

// d returns the raw cost in fixed-point scale, without Pi terms.
func (s *Solver) d(a, b *Node) int64 {
	return s.problem.dist(a, b) * s.precision
}
