package tsplib

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tourseq/internal/solver"
)

// Params is the file-friendly shape of solver.Params. Pointer fields
// distinguish "absent" from an explicit zero, which matters for
// maxCandidates and maxTrials.
type Params struct {
	MaxCandidates       *int    `yaml:"maxCandidates"`
	MaxTrials           *int    `yaml:"maxTrials"`
	TimeLimitMs         int64   `yaml:"timeLimitMs"`
	Seed                int64   `yaml:"seed"`
	Excess              float64 `yaml:"excess"`
	SymmetricCandidates bool    `yaml:"symmetricCandidates"`
	TraceLevel          int     `yaml:"traceLevel"`
	Precision           int64   `yaml:"precision"`
}

// LoadParams reads a YAML parameter file.
func LoadParams(path string) (Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Params{}, err
	}
	var p Params
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Params{}, fmt.Errorf("tsplib: bad parameter file %s: %w", path, err)
	}
	return p, nil
}

// Apply folds the file values over the solver defaults for an instance of
// the given dimension.
func (p Params) Apply(dimension int) solver.Params {
	out := solver.DefaultParams(dimension)
	if p.MaxCandidates != nil {
		out.MaxCandidates = *p.MaxCandidates
	}
	if p.MaxTrials != nil {
		out.MaxTrials = *p.MaxTrials
	}
	if p.TimeLimitMs > 0 {
		out.TimeLimit = time.Duration(p.TimeLimitMs) * time.Millisecond
	}
	out.Seed = p.Seed
	out.Excess = p.Excess
	out.CandidateSetSymmetric = p.SymmetricCandidates
	out.TraceLevel = p.TraceLevel
	out.Precision = p.Precision
	return out
}
