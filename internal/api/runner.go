package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"tourseq/internal/metrics"
	"tourseq/internal/model"
	"tourseq/internal/solver"
	"tourseq/internal/store"
)

// Runner executes queued solve jobs on a fixed pool of workers. Each running
// job gets its own cancelable context so DELETE /v1/jobs/{id} can stop it;
// the solver checks cancellation between trials and still reports its best
// tour so far.
type Runner struct {
	store  store.Store
	broker EventBroker

	queue   chan string
	workers int
	done    chan struct{}

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewRunner(s store.Store, b EventBroker, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		store:   s,
		broker:  b,
		queue:   make(chan string, 64),
		workers: workers,
		done:    make(chan struct{}),
		cancels: map[string]context.CancelFunc{},
	}
}

// Start launches the worker pool; workers exit when ctx is canceled.
func (r *Runner) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		close(r.done)
	}()
	for i := 0; i < r.workers; i++ {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case id := <-r.queue:
					r.runJob(ctx, id)
				}
			}
		}()
	}
}

// Enqueue schedules a queued job for execution.
func (r *Runner) Enqueue(id string) {
	select {
	case r.queue <- id:
	default:
		// Queue full: hand off without blocking the HTTP handler. The
		// handoff gives up once the worker pool has stopped.
		go func() {
			select {
			case r.queue <- id:
			case <-r.done:
			}
		}()
	}
}

// Cancel stops a job running on this instance. Returns false if the job is
// not currently running here.
func (r *Runner) Cancel(id string) bool {
	r.mu.Lock()
	cancel := r.cancels[id]
	r.mu.Unlock()
	if cancel == nil {
		return false
	}
	cancel()
	return true
}

func (r *Runner) runJob(ctx context.Context, id string) {
	job, err := r.store.GetJob(ctx, id)
	if err != nil {
		log.Printf("runner: job %s: %v", id, err)
		return
	}
	if job.Status != model.JobQueued {
		return
	}

	jctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()
	defer func() {
		cancel()
		r.mu.Lock()
		delete(r.cancels, id)
		r.mu.Unlock()
	}()

	now := time.Now().UTC()
	job.Status = model.JobRunning
	job.StartedAt = &now
	_ = r.store.UpdateJob(ctx, job)
	r.publish(job.ID, "job.started", map[string]any{"jobId": job.ID})
	metrics.SolveJobsActive.Inc()
	defer metrics.SolveJobsActive.Dec()

	res, err := r.solve(jctx, job)

	finished := time.Now().UTC()
	job.FinishedAt = &finished
	if err != nil {
		job.Status = model.JobFailed
		job.Error = err.Error()
	} else {
		job.Result = &model.TourResult{
			Tour:       res.Tour,
			Cost:       res.Cost,
			Penalty:    res.Penalty,
			LowerBound: res.LowerBound,
			Trials:     res.Trials,
			Status:     string(res.Status),
		}
		if jctx.Err() != nil && ctx.Err() == nil {
			job.Status = model.JobCanceled
		} else {
			job.Status = model.JobDone
		}
	}
	// The worker context may be gone by now; persist the outcome regardless.
	_ = r.store.UpdateJob(context.Background(), job)
	metrics.SolveJobs.WithLabelValues(job.Status).Inc()
	data := map[string]any{"jobId": job.ID, "status": job.Status}
	if job.Result != nil {
		data["cost"] = job.Result.Cost
		data["trials"] = job.Result.Trials
	}
	if job.Error != "" {
		data["error"] = job.Error
	}
	r.publish(job.ID, "job."+job.Status, data)
}

func (r *Runner) solve(ctx context.Context, job *model.Job) (res solver.Result, err error) {
	// A consistency violation inside the engine panics; one bad job must not
	// take the worker down with it.
	defer func() {
		if p := recover(); p != nil {
			log.Printf("runner: job %s panicked: %v", job.ID, p)
			err = fmt.Errorf("solver aborted: %v", p)
		}
	}()

	prob, params, err := buildSolve(job.Request)
	if err != nil {
		return solver.Result{}, err
	}
	params.OnTrial = func(u solver.TrialUpdate) {
		rec := model.TrialRecord{
			JobID: job.ID, Trial: u.Trial, Cost: u.Cost, Best: u.Best,
			Improved: u.Improved, At: time.Now().UTC(),
		}
		_ = r.store.AppendTrial(context.Background(), rec)
		r.publish(job.ID, "trial.finished", map[string]any{
			"jobId": job.ID, "trial": u.Trial, "cost": u.Cost,
			"best": u.Best, "improved": u.Improved,
		})
		metrics.SolveTrials.Inc()
		if u.Improved {
			metrics.SolveImprovements.Inc()
		}
	}

	s, err := solver.New(prob, params, nil)
	if err != nil {
		return solver.Result{}, err
	}
	start := time.Now()
	res, err = s.Run(ctx)
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	return res, err
}

func (r *Runner) publish(jobID, typ string, data map[string]any) {
	r.broker.Publish(jobID, SSEEvent{Type: typ, Data: data})
}

// buildSolve maps an accepted request onto a solver instance configuration.
func buildSolve(req model.SolveRequest) (*solver.Problem, solver.Params, error) {
	var prob *solver.Problem
	var err error
	switch {
	case len(req.Coords) > 0:
		prob, err = solver.NewEuclidProblem(req.Name, req.Coords, req.Ceil)
	case len(req.Matrix) > 0:
		prob, err = solver.NewMatrixProblem(req.Name, req.Matrix, req.Symmetric)
	default:
		err = fmt.Errorf("coords or matrix required")
	}
	if err != nil {
		return nil, solver.Params{}, err
	}
	params := solver.DefaultParams(prob.Dimension)
	if req.MaxCandidates != nil {
		params.MaxCandidates = *req.MaxCandidates
	}
	if req.MaxTrials != nil {
		params.MaxTrials = *req.MaxTrials
	}
	params.Seed = req.Seed
	if req.TimeLimitMs > 0 {
		params.TimeLimit = time.Duration(req.TimeLimitMs) * time.Millisecond
	}
	return prob, params, nil
}
