package store

import (
	"context"
	"errors"

	"tourseq/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	CreateJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	// ListJobs returns jobs newest first, optionally filtered by status.
	ListJobs(ctx context.Context, status string, limit int) ([]*model.Job, error)
	UpdateJob(ctx context.Context, job *model.Job) error

	AppendTrial(ctx context.Context, rec model.TrialRecord) error
	// ListTrials returns a job's trial history in trial order.
	ListTrials(ctx context.Context, jobID string, limit int) ([]model.TrialRecord, error)

	Ping(ctx context.Context) error
	Close() error
}

var ErrNotFound = errors.New("not found")
