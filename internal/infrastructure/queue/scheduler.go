package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/config"
	"bookcatalog-backend/internal/shared"
)

// Scheduler enqueues periodic maintenance tasks.
type Scheduler struct {
	scheduler *asynq.Scheduler
	importCfg config.ImportConfig
}

func NewScheduler(redisOpt asynq.RedisConnOpt, importCfg config.ImportConfig) *Scheduler {
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Location: time.UTC,
		LogLevel: asynq.InfoLevel,
	})

	return &Scheduler{scheduler: scheduler, importCfg: importCfg}
}

// RegisterJobs registers every periodic task.
func (s *Scheduler) RegisterJobs() error {
	spec, task, opts, err := importCleanupEntry(s.importCfg)
	if err != nil {
		return err
	}

	entryID, err := s.scheduler.Register(spec, task, opts...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to register ImportCleanup job")
		return err
	}

	log.Info().
		Str("entry_id", entryID).
		Str("cron", spec).
		Int("retention_days", s.importCfg.RetentionDays).
		Msg("Registered ImportCleanup")
	return nil
}

// ================================================
// Import job retention (daily, 03:00 UTC by default)
// ================================================
func importCleanupEntry(cfg config.ImportConfig) (string, *asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(shared.ImportCleanupPayload{OlderThanDays: cfg.RetentionDays})
	if err != nil {
		return "", nil, nil, err
	}

	spec := cfg.CleanupCronUTC
	if spec == "" {
		spec = "0 3 * * *"
	}

	return spec, asynq.NewTask(shared.TypeImportCleanup, payload), []asynq.Option{
		asynq.Queue(shared.QueueMaintenance),
		asynq.MaxRetry(2),
		asynq.Timeout(10 * time.Minute),
	}, nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
