package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CreateBookRequest - POST /v1/books
type CreateBookRequest struct {
	Title         string `json:"title"`
	Genre         Genre  `json:"genre"`
	PublishedYear int    `json:"published_year"`
	AuthorID      int64  `json:"author_id"`
}

func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.By(notBlank("title")), validation.Length(1, MaxTitleLength)),
		validation.Field(&r.Genre, validation.Required, validation.In(genreValues()...).Error("must be one of the supported genres")),
		validation.Field(&r.PublishedYear, validation.Required, validation.Min(MinPublishedYear), validation.Max(MaxPublishedYear)),
		validation.Field(&r.AuthorID, validation.Required, validation.Min(int64(1))),
	)
}

// UpdateBookRequest - PUT /v1/books/:id. Omitted fields keep their value.
type UpdateBookRequest struct {
	Title         *string `json:"title,omitempty"`
	Genre         *Genre  `json:"genre,omitempty"`
	PublishedYear *int    `json:"published_year,omitempty"`
	AuthorID      *int64  `json:"author_id,omitempty"`
}

func (r UpdateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.When(r.Title != nil, validation.By(notBlank("title")), validation.Length(1, MaxTitleLength))),
		validation.Field(&r.Genre, validation.When(r.Genre != nil, validation.In(genreValues()...).Error("must be one of the supported genres"))),
		validation.Field(&r.PublishedYear, validation.When(r.PublishedYear != nil, validation.Min(MinPublishedYear), validation.Max(MaxPublishedYear))),
		validation.Field(&r.AuthorID, validation.When(r.AuthorID != nil, validation.Min(int64(1)))),
	)
}

// Apply copies the set fields onto b.
func (r UpdateBookRequest) Apply(b *Book) {
	if r.Title != nil {
		b.Title = strings.TrimSpace(*r.Title)
	}
	if r.Genre != nil {
		b.Genre = *r.Genre
	}
	if r.PublishedYear != nil {
		b.PublishedYear = *r.PublishedYear
	}
	if r.AuthorID != nil {
		b.AuthorID = *r.AuthorID
	}
}

func notBlank(field string) validation.RuleFunc {
	return func(value interface{}) error {
		var s string
		switch v := value.(type) {
		case string:
			s = v
		case *string:
			if v != nil {
				s = *v
			}
		}
		if strings.TrimSpace(s) == "" {
			return validation.NewError("validation_required", field+" is required")
		}
		return nil
	}
}

// BookFilter drives GET /v1/books and GET /v1/authors/:id/books.
type BookFilter struct {
	Title    string
	Genre    string
	Author   string
	AuthorID int64
	YearMin  *int
	YearMax  *int
	SortBy   string // id | title | genre | published_year | author_name
	Order    string // ASC | DESC
	Limit    int
	Offset   int
}

// RecommendFilter drives GET /v1/books/recommend. Both are substring matches.
type RecommendFilter struct {
	Genre      string
	AuthorName string
}

type BookResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Genre         Genre     `json:"genre"`
	PublishedYear int       `json:"published_year"`
	AuthorID      int64     `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (b *Book) ToResponse() BookResponse {
	return BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Genre:         b.Genre,
		PublishedYear: b.PublishedYear,
		AuthorID:      b.AuthorID,
		AuthorName:    b.AuthorName,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}
