package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bookcatalog-backend/internal/domains/transfer"
	"bookcatalog-backend/pkg/database"
)

const jobsTable = "import_jobs"

var jobColumns = []string{
	"id", "user_id", "format", "file_name", "object_key", "status",
	"summary", "error", "created_at", "started_at", "completed_at",
}

type jobRepository struct {
	db      database.Executor
	builder squirrel.StatementBuilderType
}

func NewJobRepository(db database.Executor) transfer.JobRepository {
	return &jobRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanJob(row pgx.Row) (*transfer.ImportJob, error) {
	var (
		j       transfer.ImportJob
		summary []byte
		errText *string
	)
	err := row.Scan(
		&j.ID, &j.UserID, &j.Format, &j.FileName, &j.ObjectKey, &j.Status,
		&summary, &errText, &j.CreatedAt, &j.StartedAt, &j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(summary) > 0 {
		var s transfer.Summary
		if err := json.Unmarshal(summary, &s); err != nil {
			return nil, fmt.Errorf("decode job summary: %w", err)
		}
		j.Summary = &s
	}
	if errText != nil {
		j.Error = *errText
	}
	return &j, nil
}

func (r *jobRepository) Create(ctx context.Context, job *transfer.ImportJob) error {
	query, args, err := r.builder.
		Insert(jobsTable).
		Columns("id", "user_id", "format", "file_name", "object_key", "status", "created_at").
		Values(job.ID, job.UserID, string(job.Format), job.FileName, job.ObjectKey, string(job.Status), job.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert job: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*transfer.ImportJob, error) {
	query, args, err := r.builder.
		Select(jobColumns...).
		From(jobsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select job: %w", err)
	}

	job, err := scanJob(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transfer.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}
	return job, nil
}

func (r *jobRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":     string(transfer.JobProcessing),
		"started_at": squirrel.Expr("NOW()"),
	})
}

func (r *jobRepository) MarkCompleted(ctx context.Context, id uuid.UUID, summary transfer.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode job summary: %w", err)
	}
	return r.update(ctx, id, map[string]interface{}{
		"status":       string(transfer.JobCompleted),
		"summary":      data,
		"error":        nil,
		"completed_at": squirrel.Expr("NOW()"),
	})
}

func (r *jobRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":       string(transfer.JobFailed),
		"error":        reason,
		"completed_at": squirrel.Expr("NOW()"),
	})
}

func (r *jobRepository) update(ctx context.Context, id uuid.UUID, set map[string]interface{}) error {
	query, args, err := r.builder.
		Update(jobsTable).
		SetMap(set).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update job: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update import job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return transfer.ErrJobNotFound
	}
	return nil
}

func (r *jobRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	query, args, err := r.builder.
		Delete(jobsTable).
		Where(squirrel.And{
			squirrel.Eq{"status": []string{string(transfer.JobCompleted), string(transfer.JobFailed)}},
			squirrel.Lt{"created_at": cutoff},
		}).
		Suffix("RETURNING object_key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete jobs: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to delete import jobs: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
