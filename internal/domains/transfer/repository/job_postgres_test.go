package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog-backend/internal/domains/transfer"
)

func TestJobRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	job := &transfer.ImportJob{
		ID: uuid.New(), UserID: 4, Format: transfer.FormatCSV, FileName: "books.csv",
		ObjectKey: "imports/x/books.csv", Status: transfer.JobPending, CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO import_jobs \(id,user_id,format,file_name,object_key,status,created_at\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7\)`).
		WithArgs(job.ID, job.UserID, "csv", "books.csv", job.ObjectKey, "pending", job.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, NewJobRepository(mock).Create(context.Background(), job))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_GetByIDDecodesSummary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, user_id, format, file_name, object_key, status, summary, error, created_at, started_at, completed_at FROM import_jobs WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(jobColumns).AddRow(
			id, int64(4), transfer.FormatJSON, "c.json", "imports/c.json", transfer.JobCompleted,
			[]byte(`{"authors_created":1,"books_created":2,"books_skipped":0,"records_ignored":0,"message":"Import completed successfully."}`),
			(*string)(nil), now, &now, &now,
		))

	job, err := NewJobRepository(mock).GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, transfer.JobCompleted, job.Status)
	require.NotNil(t, job.Summary)
	assert.Equal(t, 2, job.Summary.BooksCreated)
	assert.Empty(t, job.Error)
}

func TestJobRepository_GetByIDMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery(`SELECT .* FROM import_jobs WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err = NewJobRepository(mock).GetByID(context.Background(), id)
	assert.ErrorIs(t, err, transfer.ErrJobNotFound)
}

func TestJobRepository_MarkProcessing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE import_jobs SET started_at = NOW\(\), status = \$1 WHERE id = \$2`).
		WithArgs("processing", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, NewJobRepository(mock).MarkProcessing(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_MarkFailedMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`UPDATE import_jobs SET completed_at = NOW\(\), error = \$1, status = \$2 WHERE id = \$3`).
		WithArgs("boom", "failed", id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = NewJobRepository(mock).MarkFailed(context.Background(), id, "boom")
	assert.ErrorIs(t, err, transfer.ErrJobNotFound)
}

func TestJobRepository_DeleteFinishedBefore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`DELETE FROM import_jobs WHERE \(status IN \(\$1,\$2\) AND created_at < \$3\) RETURNING object_key`).
		WithArgs("completed", "failed", cutoff).
		WillReturnRows(pgxmock.NewRows([]string{"object_key"}).AddRow("imports/a.csv").AddRow("imports/b.json"))

	keys, err := NewJobRepository(mock).DeleteFinishedBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, []string{"imports/a.csv", "imports/b.json"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}
