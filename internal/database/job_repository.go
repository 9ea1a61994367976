package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
)

type jobRow struct {
	ID         string       `db:"id"`
	URL        string       `db:"url"`
	Status     string       `db:"status"`
	Data       []byte       `db:"data"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
	FinishedAt sql.NullTime `db:"finished_at"`
}

// SaveJob upserts the current state of a scan job.
func (r *Repository) SaveJob(ctx context.Context, job *domain.Job) error {
	data := job.Data
	if data == nil {
		data = map[string]any{}
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal job data: %w", err)
	}

	var finishedAt sql.NullTime
	if job.FinishedAt != nil {
		finishedAt = sql.NullTime{Time: *job.FinishedAt, Valid: true}
	}

	query := `
		INSERT INTO scan_jobs (id, url, status, data, created_at, updated_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at,
			finished_at = EXCLUDED.finished_at
	`

	_, err = r.db.ExecContext(ctx, query,
		job.ID, job.URL, string(job.Status), dataJSON, job.CreatedAt, job.UpdatedAt, finishedAt)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// FindJob loads a scan job by id.
func (r *Repository) FindJob(ctx context.Context, id string) (*domain.Job, error) {
	var row jobRow
	query := `
		SELECT id, url, status, data, created_at, updated_at, finished_at
		FROM scan_jobs
		WHERE id = $1
	`

	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find job: %w", err)
	}

	job := &domain.Job{
		ID:        row.ID,
		URL:       row.URL,
		Status:    domain.JobStatus(row.Status),
		Data:      map[string]any{},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &job.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job data: %w", err)
		}
	}
	if row.FinishedAt.Valid {
		finished := row.FinishedAt.Time
		job.FinishedAt = &finished
	}
	return job, nil
}
