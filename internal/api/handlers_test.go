package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"tourseq/internal/model"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer()
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	s.Runner.Start(context.Background())
	return s
}

func postSolve(t *testing.T, s *Server, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.SolveHandler(rr, req)
	return rr
}

func getJob(t *testing.T, s *Server, id string) model.Job {
	t.Helper()
	rr := httptest.NewRecorder()
	s.JobByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/jobs/"+id, nil))
	if rr.Code != 200 {
		t.Fatalf("get job: got %d: %s", rr.Code, rr.Body.String())
	}
	var job model.Job
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	return job
}

func waitForTerminal(t *testing.T, s *Server, id string) model.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job := getJob(t, s, id)
		if job.Terminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return model.Job{}
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestSolveSync(t *testing.T) {
	// 5 stops is under the sync limit: the handler solves inline and
	// returns the finished job.
	s := newTestServer(t)
	body := []byte(`{"name":"pentagon","coords":[[100,0],[30.9,95.1],[-80.9,58.8],[-80.9,-58.8],[30.9,-95.1]],"maxTrials":5,"seed":7}`)
	rr := postSolve(t, s, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("solve: got %d: %s", rr.Code, rr.Body.String())
	}
	var job model.Job
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.Status != model.JobDone {
		t.Fatalf("want done, got %s (%s)", job.Status, job.Error)
	}
	if job.Result == nil {
		t.Fatal("missing result")
	}
	if len(job.Result.Tour) != 5 {
		t.Fatalf("tour length: got %d", len(job.Result.Tour))
	}
	seen := map[int]bool{}
	for _, id := range job.Result.Tour {
		if id < 1 || id > 5 || seen[id] {
			t.Fatalf("not a permutation: %v", job.Result.Tour)
		}
		seen[id] = true
	}
	if job.Result.Cost <= 0 {
		t.Fatalf("cost: got %d", job.Result.Cost)
	}
	if float64(job.Result.Cost) < job.Result.LowerBound {
		t.Fatalf("cost %d below bound %f", job.Result.Cost, job.Result.LowerBound)
	}
	if job.StartedAt == nil || job.FinishedAt == nil {
		t.Fatal("missing timestamps")
	}

	// trial history
	rr = httptest.NewRecorder()
	s.JobByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/jobs/"+job.ID+"/trials", nil))
	if rr.Code != 200 {
		t.Fatalf("trials: got %d", rr.Code)
	}
	var trials struct {
		Items []model.TrialRecord `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &trials); err != nil {
		t.Fatalf("decode trials: %v", err)
	}
	if len(trials.Items) == 0 {
		t.Fatal("no trial records")
	}
	if trials.Items[0].Trial != 1 || !trials.Items[0].Improved {
		t.Fatalf("first trial: %+v", trials.Items[0])
	}
}

func TestSolveAsync(t *testing.T) {
	s := newTestServer(t)
	s.SyncLimit = 0
	body := []byte(`{"coords":[[100,0],[30.9,95.1],[-80.9,58.8],[-80.9,-58.8],[30.9,-95.1]],"maxTrials":5}`)
	rr := postSolve(t, s, body)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("solve: got %d: %s", rr.Code, rr.Body.String())
	}
	var created model.Job
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.Status != model.JobQueued {
		t.Fatalf("unexpected job: %+v", created)
	}
	job := waitForTerminal(t, s, created.ID)
	if job.Status != model.JobDone {
		t.Fatalf("want done, got %s (%s)", job.Status, job.Error)
	}
	if job.Result == nil || len(job.Result.Tour) != 5 {
		t.Fatalf("result: %+v", job.Result)
	}
}

func TestSolveMatrixJob(t *testing.T) {
	s := newTestServer(t)
	// directed ring: 1->2->3->4->1 costs 1, everything else 10
	body := []byte(`{"matrix":[[0,1,10,10],[10,0,1,10],[10,10,0,1],[1,10,10,0]],"maxTrials":10}`)
	rr := postSolve(t, s, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("solve: got %d: %s", rr.Code, rr.Body.String())
	}
	var job model.Job
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.Status != model.JobDone {
		t.Fatalf("want done, got %s (%s)", job.Status, job.Error)
	}
	if job.Result.Cost != 4 {
		t.Fatalf("want cost 4, got %d", job.Result.Cost)
	}
	if len(job.Result.Tour) != 4 {
		t.Fatalf("tour: %v", job.Result.Tour)
	}
}

func TestSolveValidation(t *testing.T) {
	s := newTestServer(t)
	cases := map[string]string{
		"bad json":      `{`,
		"empty":         `{}`,
		"both inputs":   `{"coords":[[0,0],[1,0],[0,1]],"matrix":[[0]]}`,
		"too few":       `{"coords":[[0,0],[1,0]]}`,
		"ragged matrix": `{"matrix":[[0,1,2],[1,0],[2,1,0]]}`,
		"neg trials":    `{"coords":[[0,0],[1,0],[0,1]],"maxTrials":-1}`,
		"neg time":      `{"coords":[[0,0],[1,0],[0,1]],"timeLimitMs":-5}`,
	}
	for name, body := range cases {
		rr := postSolve(t, s, []byte(body))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: got %d", name, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
			t.Fatalf("%s: content type %q", name, ct)
		}
	}
}

func TestSolveMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.SolveHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/solve", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got %d", rr.Code)
	}
}

func TestSolveRateLimited(t *testing.T) {
	s := newTestServer(t)
	s.Limiter = rate.NewLimiter(rate.Limit(0.001), 1)
	body := []byte(`{"coords":[[0,0],[10,0],[0,10]],"maxTrials":1}`)
	if rr := postSolve(t, s, body); rr.Code != http.StatusOK {
		t.Fatalf("first: got %d", rr.Code)
	}
	if rr := postSolve(t, s, body); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second: got %d", rr.Code)
	}
}

func TestJobNotFound(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.JobByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/jobs/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.JobByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/jobs/nope/bogus", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("subpath: got %d", rr.Code)
	}
}

func TestJobsIndex(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"coords":[[0,0],[10,0],[0,10]],"maxTrials":1}`)
	if rr := postSolve(t, s, body); rr.Code != http.StatusOK {
		t.Fatalf("solve: got %d", rr.Code)
	}

	rr := httptest.NewRecorder()
	s.JobsIndexHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/jobs?limit=5", nil))
	if rr.Code != 200 {
		t.Fatalf("index: got %d", rr.Code)
	}
	var out struct {
		Items []model.Job `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) == 0 {
		t.Fatal("no jobs listed")
	}

	rr = httptest.NewRecorder()
	s.JobsIndexHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/jobs?status=done", nil))
	if rr.Code != 200 {
		t.Fatalf("filtered index: got %d", rr.Code)
	}
}

func TestCancelQueuedJob(t *testing.T) {
	// No workers started and the sync path disabled, so the job stays
	// queued until canceled.
	s, err := NewServer()
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	s.SyncLimit = 0
	body := []byte(`{"coords":[[0,0],[10,0],[0,10]]}`)
	rr := postSolve(t, s, body)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("solve: got %d", rr.Code)
	}
	var created model.Job
	_ = json.Unmarshal(rr.Body.Bytes(), &created)

	rr = httptest.NewRecorder()
	s.JobByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/jobs/"+created.ID, nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("cancel: got %d: %s", rr.Code, rr.Body.String())
	}

	job := getJob(t, s, created.ID)
	if job.Status != model.JobCanceled {
		t.Fatalf("want canceled, got %s", job.Status)
	}

	// canceling a finished job conflicts
	rr = httptest.NewRecorder()
	s.JobByIDHandler(rr, httptest.NewRequest(http.MethodDelete, "/v1/jobs/"+created.ID, nil))
	if rr.Code != http.StatusConflict {
		t.Fatalf("second cancel: got %d", rr.Code)
	}
}

func TestConfigErrorFailsJob(t *testing.T) {
	s := newTestServer(t)
	// maxCandidates 0 with a positive trial budget cannot search
	body := []byte(`{"coords":[[0,0],[10,0],[0,10],[10,10]],"maxCandidates":0,"maxTrials":3}`)
	rr := postSolve(t, s, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("solve: got %d", rr.Code)
	}
	var job model.Job
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.Status != model.JobFailed {
		t.Fatalf("want failed, got %s", job.Status)
	}
	if job.Error == "" {
		t.Fatal("missing error detail")
	}
}

func TestValidateSolveRequest(t *testing.T) {
	neg := -1
	bad := model.SolveRequest{Coords: [][2]float64{{0, 0}, {1, 0}, {0, 1}}, MaxCandidates: &neg}
	if err := validateSolveRequest(&bad); err == nil {
		t.Fatal("negative maxCandidates accepted")
	}
	ok := model.SolveRequest{Coords: [][2]float64{{0, 0}, {1, 0}, {0, 1}}}
	if err := validateSolveRequest(&ok); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}
