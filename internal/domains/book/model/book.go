package model

import (
	"strings"
	"time"
)

// Book belongs to exactly one author. (AuthorID, Title) is unique.
type Book struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Genre         Genre     `json:"genre" db:"genre"`
	PublishedYear int       `json:"published_year" db:"published_year"`
	AuthorID      int64     `json:"author_id" db:"author_id"`
	AuthorName    string    `json:"author_name" db:"author_name"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

const (
	MinPublishedYear = 1800
	MaxPublishedYear = 2025
	MaxTitleLength   = 255
)

type Genre string

const (
	GenreFiction    Genre = "Fiction"
	GenreNonFiction Genre = "Non-Fiction"
	GenreScience    Genre = "Science"
	GenreHistory    Genre = "History"
	GenreBiography  Genre = "Biography"
	GenreFantasy    Genre = "Fantasy"
	GenreMystery    Genre = "Mystery"
)

// Genres lists the closed set in display order.
var Genres = []Genre{
	GenreFiction,
	GenreNonFiction,
	GenreScience,
	GenreHistory,
	GenreBiography,
	GenreFantasy,
	GenreMystery,
}

// ParseGenre matches case-insensitively and returns the canonical spelling.
func ParseGenre(s string) (Genre, bool) {
	s = strings.TrimSpace(s)
	for _, g := range Genres {
		if strings.EqualFold(string(g), s) {
			return g, true
		}
	}
	return "", false
}

// ValidYear reports whether y is inside the accepted publication range.
func ValidYear(y int) bool {
	return y >= MinPublishedYear && y <= MaxPublishedYear
}

func genreValues() []interface{} {
	out := make([]interface{}, len(Genres))
	for i, g := range Genres {
		out[i] = g
	}
	return out
}
