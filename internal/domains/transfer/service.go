package transfer

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Upload is an import file received over HTTP.
type Upload struct {
	FileName string
	Format   Format
	Data     []byte
	UserID   int64
}

// Service runs imports and exports.
type Service interface {
	// Import parses and reconciles the file synchronously.
	Import(ctx context.Context, up Upload) (*Summary, error)

	// ImportAsync validates the file, archives it and queues a job.
	ImportAsync(ctx context.Context, up Upload) (*ImportJob, error)

	// ProcessJob runs a queued job. Called by the worker.
	ProcessJob(ctx context.Context, jobID uuid.UUID) error

	// FailJob marks a job failed once the worker gives up retrying it.
	FailJob(ctx context.Context, jobID uuid.UUID, reason string) error

	GetJob(ctx context.Context, id uuid.UUID) (*ImportJob, error)

	// CleanupJobs deletes finished jobs older than the retention period and
	// their archived files.
	CleanupJobs(ctx context.Context, olderThanDays int) (int, error)

	// Export streams the full catalog to w.
	Export(ctx context.Context, format Format, w io.Writer) error
}
