package user

import "context"

// Service issues and verifies API credentials.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)

	// IssueToken checks the password and returns a signed bearer token.
	IssueToken(ctx context.Context, req TokenRequest) (*TokenResponse, error)

	GetProfile(ctx context.Context, id int64) (*UserDTO, error)
}
