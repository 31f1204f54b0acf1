package api

import (
	"fmt"

	"tourseq/internal/model"
)

// maxDimension bounds accepted instance sizes; candidate generation is
// quadratic, so arbitrarily large uploads would pin a worker for hours.
const maxDimension = 5000

func validateSolveRequest(req *model.SolveRequest) error {
	if len(req.Coords) > 0 && len(req.Matrix) > 0 {
		return fmt.Errorf("coords and matrix are mutually exclusive")
	}
	if len(req.Coords) == 0 && len(req.Matrix) == 0 {
		return fmt.Errorf("coords or matrix required")
	}
	n := len(req.Coords)
	if n == 0 {
		n = len(req.Matrix)
		for i, row := range req.Matrix {
			if len(row) != n {
				return fmt.Errorf("matrix row %d has %d entries, want %d", i, len(row), n)
			}
		}
	}
	if n < 3 {
		return fmt.Errorf("at least 3 stops required, got %d", n)
	}
	if n > maxDimension {
		return fmt.Errorf("instance too large: %d stops (max %d)", n, maxDimension)
	}
	if req.MaxCandidates != nil && *req.MaxCandidates < 0 {
		return fmt.Errorf("maxCandidates must be >= 0")
	}
	if req.MaxTrials != nil && *req.MaxTrials < 0 {
		return fmt.Errorf("maxTrials must be >= 0")
	}
	if req.TimeLimitMs < 0 {
		return fmt.Errorf("timeLimitMs must be >= 0")
	}
	return nil
}
