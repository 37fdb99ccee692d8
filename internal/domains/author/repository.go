package author

import (
	"context"
)

// Repository is the data access contract for authors.
type Repository interface {
	// Create inserts an author. Returns ErrDuplicateName when the name is taken.
	Create(ctx context.Context, name string) (*Author, error)

	// GetByID returns ErrAuthorNotFound if absent.
	GetByID(ctx context.Context, id int64) (*Author, error)

	// GetByName matches the name exactly. Returns ErrAuthorNotFound if absent.
	GetByName(ctx context.Context, name string) (*Author, error)

	// List returns one page plus the total number of matches.
	List(ctx context.Context, filter AuthorFilter) ([]Author, int64, error)

	// Update renames an author. Errors: ErrAuthorNotFound, ErrDuplicateName.
	Update(ctx context.Context, id int64, name string) (*Author, error)

	// Delete removes an author. Returns ErrAuthorHasBooks when books still
	// reference it, which the store enforces with a restricting foreign key.
	Delete(ctx context.Context, id int64) error

	// CountBooks returns how many books reference the author.
	CountBooks(ctx context.Context, id int64) (int, error)
}
