package solver

import (
	"fmt"
	"time"
)

// Params controls one run. MaxCandidates == 0 and MaxTrials == 0 are
// meaningful values (see their comments), so no defaulting is applied to
// them; use DefaultParams as a starting point for ordinary runs.
type Params struct {
	// MaxCandidates caps each node's candidate list. 0 disables sparse
	// candidate generation: the lower bound is computed from the exact
	// 1-tree, and running a search (MaxTrials > 0) becomes a configuration
	// error because every candidate list is empty.
	MaxCandidates int

	// MaxTrials is the outer loop budget. 0 skips the search entirely and
	// reports the lower-bound state.
	MaxTrials int

	// TimeLimit bounds the wall clock; 0 means no limit. The limit is
	// checked between trials only.
	TimeLimit time.Duration

	// Seed drives all randomness. Seed 0 is replaced by a fixed default so
	// runs are reproducible unless the caller opts into varying seeds.
	Seed int64

	// Excess scales the alpha cutoff: candidate edges with alpha above
	// |Excess * scaled lower bound| are discarded. 0 selects 1/Dimension.
	Excess float64

	// CandidateSetSymmetric forces candidate lists to be symmetric: if b is
	// a candidate of a, a becomes a candidate of b.
	CandidateSetSymmetric bool

	// TraceLevel controls progress logging: 0 silent, 1 per-run summary,
	// 2 per-trial, 3 per-improvement.
	TraceLevel int

	// Precision is the fixed-point scale applied to raw costs so that Pi
	// values can be fractional. 0 selects 100.
	Precision int64

	// Recorder, when non-nil, observes move decisions. It must not mutate
	// engine state.
	Recorder Recorder

	// OnTrial, when non-nil, is called after every trial with its outcome.
	// It runs on the solving goroutine, so it should return quickly.
	OnTrial func(TrialUpdate)
}

// TrialUpdate summarizes one finished trial.
type TrialUpdate struct {
	Trial    int
	Cost     int64
	Best     int64
	Improved bool
}

const (
	defaultMaxCandidates = 5
	defaultPrecision     = 100
	defaultSeed          = 1

	// cyclingThreshold stops the run after this many consecutive trials
	// that end on an already-seen (hash, cost) pair without improving.
	cyclingThreshold = 30
)

// DefaultParams returns the parameters used when a caller has no opinion:
// five candidates per node and one trial per stop.
func DefaultParams(dimension int) Params {
	return Params{
		MaxCandidates: defaultMaxCandidates,
		MaxTrials:     dimension,
	}
}

func (p Params) validate() error {
	if p.MaxCandidates < 0 {
		return fmt.Errorf("%w: negative MaxCandidates %d", ErrConfig, p.MaxCandidates)
	}
	if p.MaxTrials < 0 {
		return fmt.Errorf("%w: negative MaxTrials %d", ErrConfig, p.MaxTrials)
	}
	if p.TimeLimit < 0 {
		return fmt.Errorf("%w: negative TimeLimit %v", ErrConfig, p.TimeLimit)
	}
	if p.Precision < 0 {
		return fmt.Errorf("%w: negative Precision %d", ErrConfig, p.Precision)
	}
	if p.Excess < 0 {
		return fmt.Errorf("%w: negative Excess %g", ErrConfig, p.Excess)
	}
	return nil
}

func (p Params) withDefaults(dimension int) Params {
	if p.Precision == 0 {
		p.Precision = defaultPrecision
	}
	if p.Seed == 0 {
		p.Seed = defaultSeed
	}
	if p.Excess == 0 {
		p.Excess = 1.0 / float64(dimension)
	}
	return p
}
