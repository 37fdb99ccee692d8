package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/domains/transfer"
	"bookcatalog-backend/internal/shared"
)

// CleanupHandler processes catalog:import_cleanup tasks.
type CleanupHandler struct {
	service     transfer.Service
	defaultDays int
}

// NewCleanupHandler uses defaultDays when the payload carries no retention.
func NewCleanupHandler(service transfer.Service, defaultDays int) *CleanupHandler {
	return &CleanupHandler{service: service, defaultDays: defaultDays}
}

func (h *CleanupHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ImportCleanupPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			log.Error().Err(err).Msg("Failed to unmarshal ImportCleanup payload")
			return fmt.Errorf("unmarshal payload: %w", asynq.SkipRetry)
		}
	}

	days := payload.OlderThanDays
	if days <= 0 {
		days = h.defaultDays
	}

	log.Info().Int("older_than_days", days).Msg("Starting cleanup of finished import jobs")

	removed, err := h.service.CleanupJobs(ctx, days)
	if err != nil {
		log.Error().Err(err).Int("removed", removed).Msg("Import job cleanup failed")
		return fmt.Errorf("cleanup import jobs: %w", err)
	}

	log.Info().Int("jobs_removed", removed).Msg("Successfully cleaned up import jobs")
	return nil
}
