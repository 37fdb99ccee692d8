package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog-backend/internal/domains/user"
)

func TestUserRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO users \(username,password_hash\) VALUES \(\$1,\$2\) RETURNING id, username, password_hash, created_at`).
		WithArgs("librarian", "hash").
		WillReturnRows(pgxmock.NewRows(userColumns).AddRow(int64(1), "librarian", "hash", now))

	u, err := NewPostgresRepository(mock).Create(context.Background(), "librarian", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("librarian", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err = NewPostgresRepository(mock).Create(context.Background(), "librarian", "hash")
	assert.ErrorIs(t, err, user.ErrUsernameTaken)
}

func TestUserRepository_GetByUsernameMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash, created_at FROM users WHERE username = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err = NewPostgresRepository(mock).GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
