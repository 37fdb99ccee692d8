package main

import (
	"github.com/hibiken/asynq"

	"bookcatalog-backend/internal/domains/transfer"
	transferJob "bookcatalog-backend/internal/domains/transfer/job"
	"bookcatalog-backend/internal/shared"
	"bookcatalog-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	importCatalog *transferJob.ImportHandler
	importCleanup *transferJob.CleanupHandler
}

func initializeHandlers(c *container.Container) *HandlerRegistry {
	return newHandlerRegistry(c.TransferService, c.Config.Import.RetentionDays)
}

func newHandlerRegistry(svc transfer.Service, retentionDays int) *HandlerRegistry {
	return &HandlerRegistry{
		importCatalog: transferJob.NewImportHandler(svc),
		importCleanup: transferJob.NewCleanupHandler(svc, retentionDays),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Imports
	mux.HandleFunc(shared.TypeImportCatalog, h.importCatalog.ProcessTask)

	// Maintenance
	mux.HandleFunc(shared.TypeImportCleanup, h.importCleanup.ProcessTask)
}
