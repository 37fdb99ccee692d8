package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"bookcatalog-backend/internal/domains/user"
	"bookcatalog-backend/pkg/database"
)

var userColumns = []string{"id", "username", "password_hash", "created_at"}

type postgresRepository struct {
	db      database.Executor
	builder squirrel.StatementBuilderType
}

func NewPostgresRepository(db database.Executor) user.Repository {
	return &postgresRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *postgresRepository) Create(ctx context.Context, username, passwordHash string) (*user.User, error) {
	query, args, err := r.builder.
		Insert("users").
		Columns("username", "password_hash").
		Values(username, passwordHash).
		Suffix("RETURNING id, username, password_hash, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert user: %w", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, user.ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (r *postgresRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

func (r *postgresRepository) getOne(ctx context.Context, where squirrel.Eq) (*user.User, error) {
	query, args, err := r.builder.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user: %w", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
