package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolveJobs counts finished solve jobs by terminal status.
	SolveJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solve_jobs_total", Help: "Solve jobs by terminal status."},
		[]string{"status"},
	)
	// SolveTrials counts finished search trials across all jobs.
	SolveTrials = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "solve_trials_total", Help: "Finished search trials."},
	)
	// SolveImprovements counts trials that improved the best tour.
	SolveImprovements = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "solve_improvements_total", Help: "Trials that improved the best tour."},
	)
	// SolveJobsActive tracks jobs currently being solved.
	SolveJobsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "solve_jobs_active", Help: "Jobs currently being solved."},
	)
	// SolveDuration tracks wall-clock time per solve run in seconds.
	SolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Solve run duration in seconds.", Buckets: []float64{.1, .5, 1, 5, 15, 60, 300, 1800}},
	)
)

// RegisterDefault registers collectors on the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolveJobs)
		Registry.MustRegister(SolveTrials)
		Registry.MustRegister(SolveImprovements)
		Registry.MustRegister(SolveJobsActive)
		Registry.MustRegister(SolveDuration)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
