package api

import (
	"context"
	"os"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"tourseq/internal/store"
)

type Server struct {
	Store   store.Store
	Broker  EventBroker
	Runner  *Runner
	Limiter *rate.Limiter

	// SyncLimit is the largest instance solved inline on the request
	// goroutine; bigger instances go through the job queue.
	SyncLimit int
}

// NewServer creates a Server. If DATABASE_URL is unset, uses the in-memory
// store; if REDIS_URL is unset, events stay in-process.
func NewServer() (*Server, error) {
	dsn := os.Getenv("DATABASE_URL")
	var s store.Store
	if strings.TrimSpace(dsn) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		// Create schema (dev helper)
		if os.Getenv("DB_MIGRATE") != "false" {
			_ = sp.Migrate(context.Background())
		}
		s = sp
	}
	var broker EventBroker
	if os.Getenv("REDIS_URL") != "" {
		if rb, err := NewRedisBroker(); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	rps := envFloat("RATE_RPS", 10)
	burst := envInt("RATE_BURST", 20)
	workers := envInt("SOLVE_WORKERS", 2)

	srv := &Server{
		Store:     s,
		Broker:    broker,
		Limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		SyncLimit: envInt("SOLVE_SYNC_LIMIT", 30),
	}
	srv.Runner = NewRunner(s, broker, workers)
	return srv, nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
