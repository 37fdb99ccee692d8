package model

import (
	"strings"

	"bookcatalog-backend/internal/shared/apperr"
)

var (
	ErrBookNotFound      = apperr.New(apperr.ErrNotFound, "book not found")
	ErrAuthorNotFound    = apperr.New(apperr.ErrNotFound, "author not found")
	ErrDuplicateTitle    = apperr.New(apperr.ErrConflict, "this author already has a book with the same title")
	ErrInvalidID         = apperr.New(apperr.ErrValidation, "book id must be a positive integer")
	ErrInvalidYearRange  = apperr.New(apperr.ErrValidation, "year_min must be <= year_max")
	ErrNoMatchingAuthors = apperr.New(apperr.ErrNotFound, "no authors found matching the provided name")
)

// NoRecommendationError lists the genres that do have books.
func NoRecommendationError(available []string) error {
	if len(available) == 0 {
		return apperr.New(apperr.ErrNotFound, "no books found; the catalog is empty")
	}
	return apperr.Newf(apperr.ErrNotFound, "no books found. Available genres: %s", strings.Join(available, ", "))
}
