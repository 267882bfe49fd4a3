package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nineaccord/salesboard/internal/domain"
	"github.com/nineaccord/salesboard/internal/repository"
)

var _ repository.IngestRunRepository = (*IngestRunRepository)(nil)

const createIngestRunsTableSQL = `
	CREATE TABLE IF NOT EXISTS ingest_runs (
		id            TEXT PRIMARY KEY,
		target        TEXT NOT NULL,
		status        TEXT NOT NULL,
		succeeded     INTEGER NOT NULL DEFAULT 0,
		failed        INTEGER NOT NULL DEFAULT 0,
		total_rows    INTEGER NOT NULL DEFAULT 0,
		results       JSONB NOT NULL DEFAULT '[]',
		error_message TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL,
		started_at    TIMESTAMPTZ,
		finished_at   TIMESTAMPTZ
	)`

type ingestRunRow struct {
	ID           string       `db:"id"`
	Target       string       `db:"target"`
	Status       string       `db:"status"`
	Succeeded    int          `db:"succeeded"`
	Failed       int          `db:"failed"`
	Results      []byte       `db:"results"`
	ErrorMessage string       `db:"error_message"`
	CreatedAt    time.Time    `db:"created_at"`
	StartedAt    sql.NullTime `db:"started_at"`
	FinishedAt   sql.NullTime `db:"finished_at"`
}

// IngestRunRepository keeps the history of ingestion jobs.
type IngestRunRepository struct {
	db *DB
}

func NewIngestRunRepository(db *DB) *IngestRunRepository {
	return &IngestRunRepository{db: db}
}

// RecordRun inserts or updates the job's row.
func (r *IngestRunRepository) RecordRun(ctx context.Context, job domain.Job) error {
	results, err := json.Marshal(job.Results)
	if err != nil {
		return fmt.Errorf("failed to encode run results: %w", err)
	}

	query := `
		INSERT INTO ingest_runs (
			id, target, status, succeeded, failed, total_rows,
			results, error_message, created_at, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id)
		DO UPDATE SET
			status = EXCLUDED.status,
			succeeded = EXCLUDED.succeeded,
			failed = EXCLUDED.failed,
			total_rows = EXCLUDED.total_rows,
			results = EXCLUDED.results,
			error_message = EXCLUDED.error_message,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at
	`
	_, err = r.db.ExecContext(ctx, query,
		job.ID, job.Target, string(job.Status), job.Succeeded, job.Failed, job.TotalRows(),
		string(results), job.Error, job.CreatedAt, nullTime(job.StartedAt), nullTime(job.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record ingest run %s: %w", job.ID, err)
	}
	return nil
}

// GetRun loads a job by id. It returns (nil, nil) when no such run exists.
func (r *IngestRunRepository) GetRun(ctx context.Context, id string) (*domain.Job, error) {
	query := `
		SELECT id, target, status, succeeded, failed, results::text AS results,
		       error_message, created_at, started_at, finished_at
		FROM ingest_runs
		WHERE id = $1
	`

	var row ingestRunRow
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) || isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ingest run %s: %w", id, err)
	}

	job := &domain.Job{
		ID:        row.ID,
		Target:    row.Target,
		Status:    domain.JobStatus(row.Status),
		Succeeded: row.Succeeded,
		Failed:    row.Failed,
		Error:     row.ErrorMessage,
		CreatedAt: row.CreatedAt,
	}
	if err := json.Unmarshal(row.Results, &job.Results); err != nil {
		return nil, fmt.Errorf("failed to decode run results: %w", err)
	}
	if row.StartedAt.Valid {
		t := row.StartedAt.Time
		job.StartedAt = &t
	}
	if row.FinishedAt.Valid {
		t := row.FinishedAt.Time
		job.FinishedAt = &t
	}
	return job, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
