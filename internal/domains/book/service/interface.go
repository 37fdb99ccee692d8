package service

import (
	"context"

	"bookcatalog-backend/internal/domains/book/model"
)

// ServiceInterface - book use cases consumed by the HTTP handler
type ServiceInterface interface {
	Create(ctx context.Context, req model.CreateBookRequest) (*model.BookResponse, error)
	GetByID(ctx context.Context, id int64) (*model.BookResponse, error)
	List(ctx context.Context, filter model.BookFilter) ([]model.BookResponse, int64, error)

	// ListByAuthor returns ErrAuthorNotFound when the author does not exist.
	ListByAuthor(ctx context.Context, authorID int64, filter model.BookFilter) ([]model.BookResponse, int64, error)

	Update(ctx context.Context, id int64, req model.UpdateBookRequest) (*model.BookResponse, error)
	Delete(ctx context.Context, id int64) error

	// Recommend picks one random book matching the filter.
	Recommend(ctx context.Context, filter model.RecommendFilter) (*model.BookResponse, error)
}
