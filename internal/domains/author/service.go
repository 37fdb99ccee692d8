package author

import (
	"context"
)

// Service is the author use-case layer consumed by the HTTP handler.
type Service interface {
	Create(ctx context.Context, req CreateAuthorRequest) (*AuthorResponse, error)

	// GetByID includes the number of books owned by the author.
	GetByID(ctx context.Context, id int64) (*AuthorDetailResponse, error)

	// List clamps pagination and whitelists sort keys before querying.
	List(ctx context.Context, filter AuthorFilter) ([]AuthorResponse, int64, error)

	Update(ctx context.Context, id int64, req UpdateAuthorRequest) (*AuthorResponse, error)

	// Delete refuses with ErrAuthorHasBooks while books reference the author.
	Delete(ctx context.Context, id int64) error
}
