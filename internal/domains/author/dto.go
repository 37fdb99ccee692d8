package author

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CreateAuthorRequest - POST /v1/authors
type CreateAuthorRequest struct {
	Name string `json:"name" form:"name"`
}

func (r CreateAuthorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.By(notBlank),
			validation.Length(1, MaxNameLength),
		),
	)
}

// UpdateAuthorRequest - PUT /v1/authors/:id
type UpdateAuthorRequest struct {
	Name string `json:"name" form:"name"`
}

func (r UpdateAuthorRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.By(notBlank),
			validation.Length(1, MaxNameLength),
		),
	)
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_required", "name is required")
	}
	return nil
}

// AuthorFilter drives GET /v1/authors.
type AuthorFilter struct {
	Name   string // substring, case-insensitive
	SortBy string // id | name
	Order  string // asc | desc
	Limit  int
	Offset int
}

type AuthorResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthorDetailResponse adds the number of books owned by the author.
type AuthorDetailResponse struct {
	AuthorResponse
	BookCount int `json:"book_count"`
}

func (a *Author) ToResponse() AuthorResponse {
	return AuthorResponse{
		ID:        a.ID,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
