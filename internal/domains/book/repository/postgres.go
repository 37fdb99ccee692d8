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

	"bookcatalog-backend/internal/domains/book/model"
	"bookcatalog-backend/internal/shared/utils"
	"bookcatalog-backend/pkg/cache"
	"bookcatalog-backend/pkg/database"
)

const (
	bookCacheKeyPrefix = "book:"
	cacheTTL           = 10 * time.Minute
)

var bookColumns = []string{
	"b.id", "b.title", "b.genre", "b.published_year", "b.author_id", "a.name", "b.created_at", "b.updated_at",
}

var sortColumns = map[string]string{
	"id":             "b.id",
	"title":          "b.title",
	"genre":          "b.genre",
	"published_year": "b.published_year",
	"author_name":    "a.name",
}

type postgresRepository struct {
	db      database.ExecutorBeginner
	cache   cache.Cache
	builder squirrel.StatementBuilderType
}

// NewPostgresRepository accepts a pool or a mock. cache may be nil.
func NewPostgresRepository(db database.ExecutorBeginner, c cache.Cache) RepositoryInterface {
	return &postgresRepository{
		db:      db,
		cache:   c,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func cacheKey(id int64) string {
	return bookCacheKeyPrefix + strconv.FormatInt(id, 10)
}

func (r *postgresRepository) selectBooks() squirrel.SelectBuilder {
	return r.builder.Select(bookColumns...).From("books b").Join("authors a ON a.id = b.author_id")
}

func scanBook(row pgx.Row) (*model.Book, error) {
	var b model.Book
	var genre string
	if err := row.Scan(&b.ID, &b.Title, &genre, &b.PublishedYear, &b.AuthorID, &b.AuthorName, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Genre = model.Genre(genre)
	return &b, nil
}

// constraintError maps constraint failures on books to domain errors, nil otherwise.
func constraintError(err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return model.ErrDuplicateTitle
	case database.IsForeignKeyViolation(err):
		return model.ErrAuthorNotFound
	}
	return nil
}

func (r *postgresRepository) Create(ctx context.Context, b *model.Book) (*model.Book, error) {
	query, args, err := r.builder.
		Insert("books").
		Columns("title", "genre", "published_year", "author_id").
		Values(b.Title, string(b.Genre), b.PublishedYear, b.AuthorID).
		Suffix("RETURNING id, created_at, updated_at, (SELECT name FROM authors WHERE authors.id = books.author_id)").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert book: %w", err)
	}

	created := *b
	err = r.db.QueryRow(ctx, query, args...).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt, &created.AuthorName)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return &created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	var cached model.Book
	if r.cache != nil {
		if hit, err := r.cache.Get(ctx, cacheKey(id), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	query, args, err := r.selectBooks().Where(squirrel.Eq{"b.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select book: %w", err)
	}

	b, err := scanBook(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by id: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey(id), b, cacheTTL); err != nil {
			log.Warn().Err(err).Int64("book_id", id).Msg("book cache write failed")
		}
	}
	return b, nil
}

func buildWhere(f model.BookFilter) squirrel.And {
	where := squirrel.And{}
	if f.Title != "" {
		where = append(where, squirrel.ILike{"b.title": utils.ContainsPattern(f.Title)})
	}
	if f.Genre != "" {
		where = append(where, squirrel.ILike{"b.genre": utils.ContainsPattern(f.Genre)})
	}
	if f.Author != "" {
		where = append(where, squirrel.ILike{"a.name": utils.ContainsPattern(f.Author)})
	}
	if f.AuthorID > 0 {
		where = append(where, squirrel.Eq{"b.author_id": f.AuthorID})
	}
	if f.YearMin != nil {
		where = append(where, squirrel.GtOrEq{"b.published_year": *f.YearMin})
	}
	if f.YearMax != nil {
		where = append(where, squirrel.LtOrEq{"b.published_year": *f.YearMax})
	}
	return where
}

func (r *postgresRepository) List(ctx context.Context, f model.BookFilter) ([]model.Book, int64, error) {
	where := buildWhere(f)

	countQuery, countArgs, err := r.builder.
		Select("COUNT(*)").
		From("books b").
		Join("authors a ON a.id = b.author_id").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count books: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = "b.id"
	}
	order := "ASC"
	if f.Order == "DESC" {
		order = "DESC"
	}
	orderBy := []string{column + " " + order}
	if column != "b.id" {
		orderBy = append(orderBy, "b.id ASC")
	}

	query, args, err := r.selectBooks().
		Where(where).
		OrderBy(orderBy...).
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list books: %w", err)
	}

	books, err := r.collect(ctx, query, args)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *postgresRepository) collect(ctx context.Context, query string, args []interface{}) ([]model.Book, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}
	return books, nil
}

func (r *postgresRepository) Update(ctx context.Context, b *model.Book) error {
	query, args, err := r.builder.
		Update("books").
		Set("title", b.Title).
		Set("genre", string(b.Genre)).
		Set("published_year", b.PublishedYear).
		Set("author_id", b.AuthorID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update book: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if mapped := constraintError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}

	r.invalidate(ctx, b.ID)
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.builder.Delete("books").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete book: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrBookNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *postgresRepository) RandomMatch(ctx context.Context, f model.RecommendFilter) (*model.Book, error) {
	where := squirrel.And{}
	if f.Genre != "" {
		where = append(where, squirrel.ILike{"b.genre": utils.ContainsPattern(f.Genre)})
	}
	if f.AuthorName != "" {
		where = append(where, squirrel.ILike{"a.name": utils.ContainsPattern(f.AuthorName)})
	}

	query, args, err := r.selectBooks().Where(where).OrderBy("RANDOM()").Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recommend query: %w", err)
	}

	b, err := scanBook(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pick random book: %w", err)
	}
	return b, nil
}

func (r *postgresRepository) AnyAuthorMatches(ctx context.Context, namePattern string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM authors WHERE name ILIKE $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, utils.ContainsPattern(namePattern)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to match authors: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) DistinctGenres(ctx context.Context) ([]string, error) {
	query, args, err := r.builder.Select("DISTINCT genre").From("books").OrderBy("genre").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build genres query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	var genres []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (r *postgresRepository) ExistsByTitleAndAuthor(ctx context.Context, title string, authorID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM books WHERE author_id = $1 AND title = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, authorID, title).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check book existence: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) CreateMany(ctx context.Context, books []model.Book) (int, error) {
	if len(books) == 0 {
		return 0, nil
	}

	return database.WithTransactionResult(ctx, r.db, func(tx pgx.Tx) (int, error) {
		for i, b := range books {
			query, args, err := r.builder.
				Insert("books").
				Columns("title", "genre", "published_year", "author_id").
				Values(b.Title, string(b.Genre), b.PublishedYear, b.AuthorID).
				ToSql()
			if err != nil {
				return 0, fmt.Errorf("build insert book: %w", err)
			}

			if _, err := tx.Exec(ctx, query, args...); err != nil {
				if mapped := constraintError(err); mapped != nil {
					return 0, fmt.Errorf("book %d (%q): %w", i+1, b.Title, mapped)
				}
				return 0, fmt.Errorf("failed to insert book %q: %w", b.Title, err)
			}
		}
		return len(books), nil
	})
}

func (r *postgresRepository) ForEach(ctx context.Context, fn func(model.Book) error) error {
	query, args, err := r.selectBooks().OrderBy("a.name ASC", "b.title ASC", "b.id ASC").ToSql()
	if err != nil {
		return fmt.Errorf("build export query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return fmt.Errorf("failed to scan book: %w", err)
		}
		if err := fn(*b); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *postgresRepository) invalidate(ctx context.Context, id int64) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, cacheKey(id)); err != nil {
		log.Warn().Err(err).Int64("book_id", id).Msg("book cache invalidation failed")
	}
}
