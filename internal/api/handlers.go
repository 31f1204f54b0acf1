// Package api implements the HTTP surface of the tour solving service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tourseq/internal/buildinfo"
	"tourseq/internal/model"
	"tourseq/internal/store"
)

// SolveHandler handles POST /v1/solve: validate, persist a queued job, and
// hand it to the runner. The response is the job resource; clients poll it or
// follow the event stream.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.Limiter != nil && !s.Limiter.Allow() {
		writeProblem(w, http.StatusTooManyRequests, "Rate Limited", "solve submissions are rate limited", r.URL.Path)
		return
	}
	var req model.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := validateSolveRequest(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error(), r.URL.Path)
		return
	}
	job := &model.Job{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Status:    model.JobQueued,
		Request:   req,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.CreateJob(r.Context(), job); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Store Error", err.Error(), r.URL.Path)
		return
	}
	n := len(req.Coords)
	if n == 0 {
		n = len(req.Matrix)
	}
	if n <= s.SyncLimit {
		// Small instance: solve on the request goroutine and return the
		// finished job.
		s.Runner.runJob(r.Context(), job.ID)
		done, err := s.Store.GetJob(r.Context(), job.ID)
		if err != nil {
			s.jobError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, done)
		return
	}
	s.Runner.Enqueue(job.ID)
	writeJSON(w, http.StatusAccepted, job)
}

// JobsIndexHandler handles GET /v1/jobs.
func (s *Server) JobsIndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	jobs, err := s.Store.ListJobs(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Store Error", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": jobs})
}

// JobByIDHandler handles /v1/jobs/{id} plus the subpaths {id}/trials,
// {id}/events/stream and {id}/trials/ws.
func (s *Server) JobByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/jobs/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			job, err := s.Store.GetJob(r.Context(), id)
			if err != nil {
				s.jobError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, job)
		case http.MethodDelete:
			s.cancelJob(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	action := strings.Join(parts[1:], "/")
	switch action {
	case "trials":
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		recs, err := s.Store.ListTrials(r.Context(), id, limit)
		if err != nil {
			s.jobError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": recs})
	case "events/stream":
		s.streamJobEvents(w, r, id)
	case "trials/ws":
		s.TrialsWSHandler(w, r, id)
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
	}
}

// cancelJob stops a queued or running job. A queued job that no worker has
// picked up yet is marked canceled directly.
func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request, id string) {
	job, err := s.Store.GetJob(r.Context(), id)
	if err != nil {
		s.jobError(w, r, err)
		return
	}
	if job.Terminal() {
		writeProblem(w, http.StatusConflict, "Already Finished",
			fmt.Sprintf("job is %s", job.Status), r.URL.Path)
		return
	}
	if !s.Runner.Cancel(id) && job.Status == model.JobQueued {
		now := time.Now().UTC()
		job.Status = model.JobCanceled
		job.FinishedAt = &now
		_ = s.Store.UpdateJob(r.Context(), job)
		s.Broker.Publish(id, SSEEvent{Type: "job.canceled", Data: map[string]any{"jobId": id, "status": job.Status}})
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) streamJobEvents(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := s.Store.GetJob(r.Context(), id); err != nil {
		s.jobError(w, r, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming Unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)
	// initial heartbeat
	fmt.Fprintf(w, "event: heartbeat\n")
	fmt.Fprintf(w, "data: {\"jobId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
	flusher.Flush()
	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			fmt.Fprintf(w, "event: heartbeat\n")
			fmt.Fprintf(w, "data: {\"jobId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

func (s *Server) jobError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no such job", r.URL.Path)
		return
	}
	writeProblem(w, http.StatusInternalServerError, "Store Error", err.Error(), r.URL.Path)
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// DebugJSON reports build and config info for operators.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":             os.Getenv("PORT"),
			"RATE_RPS":         os.Getenv("RATE_RPS"),
			"RATE_BURST":       os.Getenv("RATE_BURST"),
			"SOLVE_WORKERS":    os.Getenv("SOLVE_WORKERS"),
			"HAS_DATABASE_URL": os.Getenv("DATABASE_URL") != "",
			"HAS_REDIS_URL":    os.Getenv("REDIS_URL") != "",
		},
	})
}
