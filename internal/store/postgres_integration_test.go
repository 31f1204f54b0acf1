//go:build postgres_integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"tourseq/internal/model"
)

func TestPostgresConnectivityAndMigrate(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer p.Close()
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := p.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	job := &model.Job{
		ID:        "it-" + time.Now().Format("20060102150405.000"),
		Name:      "integration",
		Status:    model.JobQueued,
		Request:   model.SolveRequest{Coords: [][2]float64{{0, 0}, {1, 0}, {0, 1}}},
		CreatedAt: time.Now().UTC(),
	}
	if err := p.CreateJob(context.Background(), job); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if _, err := p.GetJob(context.Background(), job.ID); err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if _, err := p.ListJobs(context.Background(), "", 1); err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
}
