package repository

import (
	"context"

	"bookcatalog-backend/internal/domains/book/model"
)

// RepositoryInterface - book data access
type RepositoryInterface interface {
	// Create errors: ErrAuthorNotFound (FK), ErrDuplicateTitle (unique author_id+title).
	Create(ctx context.Context, book *model.Book) (*model.Book, error)
	GetByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, filter model.BookFilter) ([]model.Book, int64, error)
	Update(ctx context.Context, book *model.Book) error
	Delete(ctx context.Context, id int64) error

	// RandomMatch picks one book uniformly among matches, nil when none.
	RandomMatch(ctx context.Context, filter model.RecommendFilter) (*model.Book, error)
	AnyAuthorMatches(ctx context.Context, namePattern string) (bool, error)
	DistinctGenres(ctx context.Context) ([]string, error)

	// ExistsByTitleAndAuthor backs import deduplication.
	ExistsByTitleAndAuthor(ctx context.Context, title string, authorID int64) (bool, error)

	// CreateMany inserts all books in one transaction; nothing is written on error.
	CreateMany(ctx context.Context, books []model.Book) (int, error)

	// ForEach streams every book ordered by author name then title.
	ForEach(ctx context.Context, fn func(model.Book) error) error
}
