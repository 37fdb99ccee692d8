package user

import "bookcatalog-backend/internal/shared/apperr"

var (
	ErrUserNotFound       = apperr.New(apperr.ErrNotFound, "user not found")
	ErrUsernameTaken      = apperr.New(apperr.ErrConflict, "username already registered")
	ErrInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "incorrect username or password")
)
