package store

import (
	"context"
	"sync"

	"tourseq/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu     sync.Mutex
	jobs   map[string]model.Job
	order  []string // job ids in creation order
	trials map[string][]model.TrialRecord
}

func NewMemory() *Memory {
	return &Memory{
		jobs:   map[string]model.Job{},
		trials: map[string][]model.TrialRecord{},
	}
}

func (m *Memory) CreateJob(ctx context.Context, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	m.order = append(m.order, job.ID)
	return nil
}

func (m *Memory) GetJob(ctx context.Context, id string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := j
	return &out, nil
}

func (m *Memory) ListJobs(ctx context.Context, status string, limit int) ([]*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	out := []*model.Job{}
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		j := m.jobs[m.order[i]]
		if status != "" && j.Status != status {
			continue
		}
		cp := j
		out = append(out, &cp)
	}
	return out, nil
}

func (m *Memory) UpdateJob(ctx context.Context, job *model.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	m.jobs[job.ID] = *job
	return nil
}

func (m *Memory) AppendTrial(ctx context.Context, rec model.TrialRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trials[rec.JobID] = append(m.trials[rec.JobID], rec)
	return nil
}

func (m *Memory) ListTrials(ctx context.Context, jobID string, limit int) ([]model.TrialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.trials[jobID]
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	out := make([]model.TrialRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
