package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookcatalog-backend/internal/domains/author"
	"bookcatalog-backend/internal/domains/book/model"
)

// AuthorStore is the slice of the author repository the reconciler needs.
type AuthorStore interface {
	GetByName(ctx context.Context, name string) (*author.Author, error)
	Create(ctx context.Context, name string) (*author.Author, error)
}

// BookStore is the slice of the book repository imports and exports need.
type BookStore interface {
	ExistsByTitleAndAuthor(ctx context.Context, title string, authorID int64) (bool, error)
	CreateMany(ctx context.Context, books []model.Book) (int, error)
	ForEach(ctx context.Context, fn func(model.Book) error) error
}

// JobRepository persists import jobs.
type JobRepository interface {
	Create(ctx context.Context, job *ImportJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*ImportJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID, summary Summary) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error

	// DeleteFinishedBefore removes completed or failed jobs created before
	// cutoff and returns their object keys.
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) ([]string, error)
}

// ObjectStore archives uploaded files.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	RemoveObjects(ctx context.Context, keys []string) error
}

// TaskEnqueuer schedules background processing of an import job.
type TaskEnqueuer interface {
	EnqueueImport(ctx context.Context, jobID uuid.UUID) error
}
