package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/domains/transfer"
	"bookcatalog-backend/internal/shared/apperr"
)

// Dependencies wires the transfer service. Jobs, Objects and Queue are only
// needed for asynchronous imports and may be nil.
type Dependencies struct {
	Authors transfer.AuthorStore
	Books   transfer.BookStore
	Jobs    transfer.JobRepository
	Objects transfer.ObjectStore
	Queue   transfer.TaskEnqueuer

	MaxRecords int
}

type transferService struct {
	reconciler *Reconciler
	books      transfer.BookStore
	jobs       transfer.JobRepository
	objects    transfer.ObjectStore
	queue      transfer.TaskEnqueuer
	maxRecords int
	now        func() time.Time
}

func NewTransferService(deps Dependencies) transfer.Service {
	return &transferService{
		reconciler: NewReconciler(deps.Authors, deps.Books),
		books:      deps.Books,
		jobs:       deps.Jobs,
		objects:    deps.Objects,
		queue:      deps.Queue,
		maxRecords: deps.MaxRecords,
		now:        time.Now,
	}
}

// ========================================
// IMPORT
// ========================================

func (s *transferService) Import(ctx context.Context, up transfer.Upload) (*transfer.Summary, error) {
	batch, err := Parse(up.Format, up.Data, s.maxRecords)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("format", string(up.Format)).
		Str("file", up.FileName).
		Int64("user_id", up.UserID).
		Int("records", len(batch.Records)).
		Msg("import started")

	return s.reconciler.Reconcile(ctx, batch)
}

func (s *transferService) ImportAsync(ctx context.Context, up transfer.Upload) (*transfer.ImportJob, error) {
	if s.jobs == nil || s.objects == nil || s.queue == nil {
		return nil, transfer.ErrAsyncUnavailable
	}

	// reject bad files before anything is stored
	if _, err := Parse(up.Format, up.Data, s.maxRecords); err != nil {
		return nil, err
	}

	job := &transfer.ImportJob{
		ID:        uuid.New(),
		UserID:    up.UserID,
		Format:    up.Format,
		FileName:  sanitizeFileName(up.FileName, up.Format),
		Status:    transfer.JobPending,
		CreatedAt: s.now().UTC(),
	}
	job.ObjectKey = transfer.ObjectKeyFor(job.ID, job.FileName)

	if _, err := s.objects.Upload(ctx, job.ObjectKey, up.Data, up.Format.ContentType()); err != nil {
		return nil, fmt.Errorf("archive import file: %w", err)
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		if rmErr := s.objects.RemoveObjects(ctx, []string{job.ObjectKey}); rmErr != nil {
			log.Error().Err(rmErr).Str("object_key", job.ObjectKey).Msg("failed to remove orphaned import file")
		}
		return nil, fmt.Errorf("create import job: %w", err)
	}

	if err := s.queue.EnqueueImport(ctx, job.ID); err != nil {
		if markErr := s.jobs.MarkFailed(ctx, job.ID, "could not be queued"); markErr != nil {
			log.Error().Err(markErr).Str("job_id", job.ID.String()).Msg("failed to mark unqueued job")
		}
		return nil, fmt.Errorf("enqueue import job: %w", err)
	}

	log.Info().
		Str("job_id", job.ID.String()).
		Str("object_key", job.ObjectKey).
		Msg("import job queued")

	return job, nil
}

// ProcessJob is idempotent: a finished job is left untouched. Permanent
// failures (bad file, conflict) mark the job failed; other errors are
// returned for the worker to retry.
func (s *transferService) ProcessJob(ctx context.Context, jobID uuid.UUID) error {
	if s.jobs == nil || s.objects == nil {
		return transfer.ErrAsyncUnavailable
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Finished() {
		log.Info().Str("job_id", jobID.String()).Str("status", string(job.Status)).Msg("import job already finished")
		return nil
	}

	if err := s.jobs.MarkProcessing(ctx, jobID); err != nil {
		return err
	}

	data, err := s.objects.Download(ctx, job.ObjectKey)
	if err != nil {
		return fmt.Errorf("download import file: %w", err)
	}

	summary, err := s.Import(ctx, transfer.Upload{
		FileName: job.FileName,
		Format:   job.Format,
		Data:     data,
		UserID:   job.UserID,
	})
	if err != nil {
		if IsPermanent(err) {
			if markErr := s.jobs.MarkFailed(ctx, jobID, err.Error()); markErr != nil {
				return markErr
			}
		}
		return err
	}

	return s.jobs.MarkCompleted(ctx, jobID, *summary)
}

func (s *transferService) FailJob(ctx context.Context, jobID uuid.UUID, reason string) error {
	if s.jobs == nil {
		return transfer.ErrAsyncUnavailable
	}
	return s.jobs.MarkFailed(ctx, jobID, reason)
}

func (s *transferService) GetJob(ctx context.Context, id uuid.UUID) (*transfer.ImportJob, error) {
	if s.jobs == nil {
		return nil, transfer.ErrJobNotFound
	}
	return s.jobs.GetByID(ctx, id)
}

func (s *transferService) CleanupJobs(ctx context.Context, olderThanDays int) (int, error) {
	if s.jobs == nil {
		return 0, nil
	}
	if olderThanDays <= 0 {
		return 0, apperr.New(apperr.ErrValidation, "retention must be at least one day")
	}

	cutoff := s.now().UTC().AddDate(0, 0, -olderThanDays)
	keys, err := s.jobs.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if len(keys) > 0 && s.objects != nil {
		if err := s.objects.RemoveObjects(ctx, keys); err != nil {
			return len(keys), fmt.Errorf("remove archived imports: %w", err)
		}
	}

	return len(keys), nil
}

// ========================================
// EXPORT
// ========================================

func (s *transferService) Export(ctx context.Context, format transfer.Format, w io.Writer) error {
	switch format {
	case transfer.FormatCSV:
		return WriteCSV(ctx, s.books, w)
	case transfer.FormatJSON:
		return WriteJSON(ctx, s.books, w)
	case transfer.FormatXLSX:
		return WriteXLSX(ctx, s.books, w)
	}
	return transfer.ErrUnsupportedFormat
}

// IsPermanent reports errors that retrying cannot fix.
func IsPermanent(err error) bool {
	return errors.Is(err, apperr.ErrValidation) ||
		errors.Is(err, apperr.ErrConflict) ||
		errors.Is(err, apperr.ErrNotFound)
}

// sanitizeFileName keeps the base name and falls back to import.<format>.
func sanitizeFileName(name string, format transfer.Format) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "import." + string(format)
	}
	return name
}
