package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/domains/transfer"
	"bookcatalog-backend/internal/domains/transfer/service"
	"bookcatalog-backend/internal/shared"
)

// retryInfo reads asynq's retry counters from the task context.
type retryInfo func(ctx context.Context) (retried, maxRetry int)

func asynqRetryInfo(ctx context.Context) (int, int) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	return retried, maxRetry
}

// ImportHandler processes catalog:import tasks.
type ImportHandler struct {
	service transfer.Service
	retries retryInfo
}

func NewImportHandler(service transfer.Service) *ImportHandler {
	return &ImportHandler{service: service, retries: asynqRetryInfo}
}

func (h *ImportHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ImportCatalogPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal ImportCatalog payload")
		return fmt.Errorf("unmarshal payload: %w", asynq.SkipRetry)
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		log.Error().Str("job_id", payload.JobID).Msg("import task carries an invalid job id")
		return fmt.Errorf("parse job id: %w", asynq.SkipRetry)
	}

	log.Info().Str("job_id", jobID.String()).Msg("Processing import job")

	err = h.service.ProcessJob(ctx, jobID)
	if err == nil {
		log.Info().Str("job_id", jobID.String()).Msg("Import job completed")
		return nil
	}

	if service.IsPermanent(err) {
		log.Warn().Err(err).Str("job_id", jobID.String()).Msg("Import job failed permanently")
		return fmt.Errorf("process import %s: %v: %w", jobID, err, asynq.SkipRetry)
	}

	retried, maxRetry := h.retries(ctx)
	if retried >= maxRetry {
		if markErr := h.service.FailJob(ctx, jobID, "import failed after retries: "+err.Error()); markErr != nil {
			log.Error().Err(markErr).Str("job_id", jobID.String()).Msg("Failed to mark import job failed")
		}
	}

	log.Error().
		Err(err).
		Str("job_id", jobID.String()).
		Int("retried", retried).
		Int("max_retry", maxRetry).
		Msg("Import job attempt failed")
	return fmt.Errorf("process import %s: %w", jobID, err)
}
