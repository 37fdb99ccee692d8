package user

import "context"

// Repository is the data access contract for users.
type Repository interface {
	// Create returns ErrUsernameTaken on a duplicate username.
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}
