package transfer

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Finished reports a terminal status.
func (s JobStatus) Finished() bool {
	return s == JobCompleted || s == JobFailed
}

// ImportJob tracks an asynchronous import. The uploaded file is archived in
// object storage under ObjectKey.
type ImportJob struct {
	ID          uuid.UUID  `json:"id"`
	UserID      int64      `json:"user_id"`
	Format      Format     `json:"format"`
	FileName    string     `json:"file_name"`
	ObjectKey   string     `json:"-"`
	Status      JobStatus  `json:"status"`
	Summary     *Summary   `json:"summary,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ObjectKeyFor returns the archive key of an upload.
func ObjectKeyFor(jobID uuid.UUID, fileName string) string {
	return "imports/" + jobID.String() + "/" + fileName
}
