package transfer

import "bookcatalog-backend/internal/shared/apperr"

var (
	ErrJobNotFound       = apperr.New(apperr.ErrNotFound, "import job not found")
	ErrInvalidJobID      = apperr.New(apperr.ErrValidation, "import job id must be a UUID")
	ErrMissingFile       = apperr.New(apperr.ErrValidation, "file is required (multipart/form-data)")
	ErrEmptyFile         = apperr.New(apperr.ErrValidation, "uploaded file is empty")
	ErrFileTooLarge      = apperr.New(apperr.ErrValidation, "uploaded file exceeds the size limit")
	ErrUnsupportedFormat = apperr.New(apperr.ErrValidation, "unsupported format")
	ErrMissingAuthors    = apperr.New(apperr.ErrValidation, "Invalid JSON format. 'authors' field is required.")
	ErrInvalidJSON       = apperr.New(apperr.ErrValidation, "Invalid JSON file.")
	ErrAsyncUnavailable  = apperr.New(apperr.ErrValidation, "asynchronous imports are not enabled")
	ErrConcurrentImport  = apperr.New(apperr.ErrConflict, "a book in this batch was inserted concurrently; retry the import")
)
