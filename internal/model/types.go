package model

import "time"

// Job statuses.
const (
	JobQueued   = "queued"
	JobRunning  = "running"
	JobDone     = "done"
	JobFailed   = "failed"
	JobCanceled = "canceled"
)

// SolveRequest is the body of POST /v1/solve. Exactly one of Coords or
// Matrix must be set.
type SolveRequest struct {
	Name string `json:"name,omitempty"`

	// Coords are planar stop coordinates; costs are rounded Euclidean
	// distances (rounded up when Ceil is set).
	Coords [][2]float64 `json:"coords,omitempty"`
	Ceil   bool         `json:"ceil,omitempty"`

	// Matrix is an explicit cost matrix. Asymmetric matrices are accepted
	// when Symmetric is false.
	Matrix    [][]int64 `json:"matrix,omitempty"`
	Symmetric bool      `json:"symmetric,omitempty"`

	// Search knobs; nil means the server default.
	MaxCandidates *int  `json:"maxCandidates,omitempty"`
	MaxTrials     *int  `json:"maxTrials,omitempty"`
	Seed          int64 `json:"seed,omitempty"`
	TimeLimitMs   int64 `json:"timeLimitMs,omitempty"`
}

// TourResult is the solved tour reported on a finished job.
type TourResult struct {
	Tour       []int   `json:"tour"`
	Cost       int64   `json:"cost"`
	Penalty    int64   `json:"penalty"`
	LowerBound float64 `json:"lowerBound"`
	Trials     int     `json:"trials"`
	Status     string  `json:"status"`
}

// Job is one solve request moving through the queue.
type Job struct {
	ID         string       `json:"id"`
	Name       string       `json:"name,omitempty"`
	Status     string       `json:"status"`
	Request    SolveRequest `json:"request"`
	Result     *TourResult  `json:"result,omitempty"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	StartedAt  *time.Time   `json:"startedAt,omitempty"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`
}

// Terminal reports whether the job can no longer change state.
func (j *Job) Terminal() bool {
	return j.Status == JobDone || j.Status == JobFailed || j.Status == JobCanceled
}

// TrialRecord is one trial outcome kept in the job's history.
type TrialRecord struct {
	JobID    string    `json:"jobId"`
	Trial    int       `json:"trial"`
	Cost     int64     `json:"cost"`
	Best     int64     `json:"best"`
	Improved bool      `json:"improved"`
	At       time.Time `json:"at"`
}
