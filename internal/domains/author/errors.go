package author

import "bookcatalog-backend/internal/shared/apperr"

var (
	ErrAuthorNotFound = apperr.New(apperr.ErrNotFound, "author not found")
	ErrDuplicateName  = apperr.New(apperr.ErrConflict, "author with this name already exists")
	ErrAuthorHasBooks = apperr.New(apperr.ErrConflict, "cannot delete author with linked books")
	ErrInvalidID      = apperr.New(apperr.ErrValidation, "author id must be a positive integer")
)
