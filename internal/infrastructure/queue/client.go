package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/shared"
)

const (
	importMaxRetry = 3
	importTimeout  = 10 * time.Minute
)

// taskClient is the part of *asynq.Client used here.
type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer publishes import tasks for the worker.
type Enqueuer struct {
	client taskClient
}

func NewEnqueuer(client taskClient) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueImport queues a catalog:import task. The job id doubles as the task
// id, so queueing the same job twice is a no-op.
func (e *Enqueuer) EnqueueImport(ctx context.Context, jobID uuid.UUID) error {
	payload, err := json.Marshal(shared.ImportCatalogPayload{JobID: jobID.String()})
	if err != nil {
		return fmt.Errorf("marshal import payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeImportCatalog, payload)
	info, err := e.client.EnqueueContext(ctx, task,
		asynq.TaskID(jobID.String()),
		asynq.Queue(shared.QueueImports),
		asynq.MaxRetry(importMaxRetry),
		asynq.Timeout(importTimeout),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		log.Warn().Str("job_id", jobID.String()).Msg("import task already queued")
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", shared.TypeImportCatalog, err)
	}

	log.Info().
		Str("job_id", jobID.String()).
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Msg("Enqueued import task")
	return nil
}
