package shared

// Task types handled by the worker.
const (
	TypeImportCatalog = "catalog:import"
	TypeImportCleanup = "catalog:import_cleanup"
)

// Queues and their weights on the worker.
const (
	QueueImports     = "imports"
	QueueMaintenance = "maintenance"
)

var QueuePriorities = map[string]int{
	QueueImports:     6,
	QueueMaintenance: 1,
}

// ImportCatalogPayload identifies the import job to process.
type ImportCatalogPayload struct {
	JobID string `json:"job_id"`
}

// ImportCleanupPayload carries the retention period of finished jobs.
type ImportCleanupPayload struct {
	OlderThanDays int `json:"older_than_days"`
}
