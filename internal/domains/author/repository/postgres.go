package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/domains/author"
	"bookcatalog-backend/internal/shared/utils"
	"bookcatalog-backend/pkg/cache"
	"bookcatalog-backend/pkg/database"
)

const (
	authorCacheKeyPrefix = "author:"
	cacheTTL             = 15 * time.Minute
)

var authorColumns = []string{"id", "name", "created_at", "updated_at"}

// sortColumns whitelists sort keys accepted from the query string.
var sortColumns = map[string]string{
	"id":   "id",
	"name": "name",
}

// postgresRepository implements author.Repository with a read-through cache on GetByID.
type postgresRepository struct {
	exec    database.Executor
	cache   cache.Cache
	builder squirrel.StatementBuilderType
}

// NewPostgresRepository accepts a pool or a mock. cache may be nil.
func NewPostgresRepository(exec database.Executor, c cache.Cache) author.Repository {
	return &postgresRepository{
		exec:    exec,
		cache:   c,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func cacheKey(id int64) string {
	return authorCacheKeyPrefix + strconv.FormatInt(id, 10)
}

func scanAuthor(row pgx.Row) (*author.Author, error) {
	var a author.Author
	if err := row.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *postgresRepository) Create(ctx context.Context, name string) (*author.Author, error) {
	query, args, err := r.builder.
		Insert("authors").
		Columns("name").
		Values(name).
		Suffix("RETURNING id, name, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert author: %w", err)
	}

	a, err := scanAuthor(r.exec.QueryRow(ctx, query, args...))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, author.ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create author: %w", err)
	}
	return a, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*author.Author, error) {
	var cached author.Author
	if r.cache != nil {
		if hit, err := r.cache.Get(ctx, cacheKey(id), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	query, args, err := r.builder.
		Select(authorColumns...).
		From("authors").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select author: %w", err)
	}

	a, err := scanAuthor(r.exec.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, author.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("failed to get author by id: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey(id), a, cacheTTL); err != nil {
			log.Warn().Err(err).Int64("author_id", id).Msg("author cache write failed")
		}
	}
	return a, nil
}

func (r *postgresRepository) GetByName(ctx context.Context, name string) (*author.Author, error) {
	query, args, err := r.builder.
		Select(authorColumns...).
		From("authors").
		Where(squirrel.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select author by name: %w", err)
	}

	a, err := scanAuthor(r.exec.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, author.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("failed to get author by name: %w", err)
	}
	return a, nil
}

func (r *postgresRepository) List(ctx context.Context, filter author.AuthorFilter) ([]author.Author, int64, error) {
	where := squirrel.And{}
	if filter.Name != "" {
		where = append(where, squirrel.ILike{"name": utils.ContainsPattern(filter.Name)})
	}

	countQuery, countArgs, err := r.builder.Select("COUNT(*)").From("authors").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count authors: %w", err)
	}

	var total int64
	if err := r.exec.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count authors: %w", err)
	}

	column, ok := sortColumns[filter.SortBy]
	if !ok {
		column = "id"
	}
	order := "ASC"
	if filter.Order == "DESC" {
		order = "DESC"
	}

	query, args, err := r.builder.
		Select(authorColumns...).
		From("authors").
		Where(where).
		OrderBy(orderBy(column, order)...).
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list authors: %w", err)
	}

	rows, err := r.exec.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list authors: %w", err)
	}
	defer rows.Close()

	authors := make([]author.Author, 0, filter.Limit)
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate authors: %w", err)
	}

	return authors, total, nil
}

// orderBy appends id as a tiebreaker so pages are stable.
func orderBy(column, order string) []string {
	if column == "id" {
		return []string{"id " + order}
	}
	return []string{column + " " + order, "id ASC"}
}

func (r *postgresRepository) Update(ctx context.Context, id int64, name string) (*author.Author, error) {
	query, args, err := r.builder.
		Update("authors").
		Set("name", name).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING id, name, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update author: %w", err)
	}

	a, err := scanAuthor(r.exec.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, author.ErrAuthorNotFound
		}
		if database.IsUniqueViolation(err) {
			return nil, author.ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to update author: %w", err)
	}

	r.invalidate(ctx, id)
	return a, nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.builder.Delete("authors").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete author: %w", err)
	}

	tag, err := r.exec.Exec(ctx, query, args...)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return author.ErrAuthorHasBooks
		}
		return fmt.Errorf("failed to delete author: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return author.ErrAuthorNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *postgresRepository) CountBooks(ctx context.Context, id int64) (int, error) {
	query, args, err := r.builder.Select("COUNT(*)").From("books").Where(squirrel.Eq{"author_id": id}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count books: %w", err)
	}

	var count int
	if err := r.exec.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count books for author: %w", err)
	}
	return count, nil
}

// invalidate drops the cached author and every cached book, since book
// payloads embed the author name.
func (r *postgresRepository) invalidate(ctx context.Context, id int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, cacheKey(id)); err != nil {
		log.Warn().Err(err).Int64("author_id", id).Msg("author cache invalidation failed")
	}
	if err := r.cache.DeletePattern(ctx, "book:*"); err != nil {
		log.Warn().Err(err).Msg("book cache invalidation failed")
	}
}
