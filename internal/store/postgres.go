package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tourseq/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Migrate creates the schema if it does not exist yet (dev helper).
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id          uuid PRIMARY KEY,
			name        text NOT NULL DEFAULT '',
			status      text NOT NULL,
			request     jsonb NOT NULL,
			result      jsonb,
			error       text NOT NULL DEFAULT '',
			created_at  timestamptz NOT NULL,
			started_at  timestamptz,
			finished_at timestamptz
		)`,
		`CREATE INDEX IF NOT EXISTS jobs_status_idx ON jobs (status, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS job_trials (
			job_id   uuid NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
			trial    int NOT NULL,
			cost     bigint NOT NULL,
			best     bigint NOT NULL,
			improved boolean NOT NULL,
			at       timestamptz NOT NULL,
			PRIMARY KEY (job_id, trial)
		)`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) CreateJob(ctx context.Context, job *model.Job) error {
	req, err := json.Marshal(job.Request)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO jobs (id, name, status, request, error, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		job.ID, job.Name, job.Status, req, job.Error, job.CreatedAt)
	return err
}

func (p *Postgres) GetJob(ctx context.Context, id string) (*model.Job, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id::text, name, status, request, result, error, created_at, started_at, finished_at
		 FROM jobs WHERE id = $1`, id)
	return scanJob(row)
}

func (p *Postgres) ListJobs(ctx context.Context, status string, limit int) ([]*model.Job, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT id::text, name, status, request, result, error, created_at, started_at, finished_at
	      FROM jobs`
	args := []any{}
	if status != "" {
		q += ` WHERE status = $1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit)
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*model.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateJob(ctx context.Context, job *model.Job) error {
	var result any
	if job.Result != nil {
		b, err := json.Marshal(job.Result)
		if err != nil {
			return err
		}
		result = b
	}
	res, err := p.db.ExecContext(ctx,
		`UPDATE jobs SET status=$2, result=$3, error=$4, started_at=$5, finished_at=$6 WHERE id=$1`,
		job.ID, job.Status, result, job.Error, job.StartedAt, job.FinishedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

func (p *Postgres) AppendTrial(ctx context.Context, rec model.TrialRecord) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO job_trials (job_id, trial, cost, best, improved, at) VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (job_id, trial) DO NOTHING`,
		rec.JobID, rec.Trial, rec.Cost, rec.Best, rec.Improved, rec.At)
	return err
}

func (p *Postgres) ListTrials(ctx context.Context, jobID string, limit int) ([]model.TrialRecord, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT job_id::text, trial, cost, best, improved, at FROM job_trials
		 WHERE job_id = $1 ORDER BY trial LIMIT `+strconv.Itoa(limit), jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TrialRecord{}
	for rows.Next() {
		var r model.TrialRecord
		if err := rows.Scan(&r.JobID, &r.Trial, &r.Cost, &r.Best, &r.Improved, &r.At); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var j model.Job
	var req, result []byte
	var started, finished sql.NullTime
	err := row.Scan(&j.ID, &j.Name, &j.Status, &req, &result, &j.Error, &j.CreatedAt, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(req, &j.Request); err != nil {
		return nil, err
	}
	if len(result) > 0 {
		j.Result = &model.TourResult{}
		if err := json.Unmarshal(result, j.Result); err != nil {
			return nil, err
		}
	}
	if started.Valid {
		t := started.Time
		j.StartedAt = &t
	}
	if finished.Valid {
		t := finished.Time
		j.FinishedAt = &t
	}
	return &j, nil
}

