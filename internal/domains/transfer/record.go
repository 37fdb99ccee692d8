package transfer

import "bookcatalog-backend/internal/domains/book/model"

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	// FormatXLSX is export only.
	FormatXLSX Format = "xlsx"
)

// ContentType is the MIME type used for uploads and exports.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// CSVHeader is the column order for CSV imports and exports.
var CSVHeader = []string{"author_name", "title", "genre", "published_year"}

// Record is one (author, book) pair read from an import file. Row is the
// file line (CSV) or 1-based book position (JSON) used in error messages.
type Record struct {
	Row           int
	AuthorName    string
	Title         string
	Genre         model.Genre
	PublishedYear int
}

// Ignorable reports a record with a blank author name or title.
func (r Record) Ignorable() bool {
	return r.AuthorName == "" || r.Title == ""
}

// Batch is a parsed import file.
type Batch struct {
	// Authors lists distinct author names to resolve, in first-seen order.
	// JSON authors without books are included.
	Authors []string
	Records []Record
}

// Ignored counts records skipped for blank fields.
func (b Batch) Ignored() int {
	n := 0
	for _, r := range b.Records {
		if r.Ignorable() {
			n++
		}
	}
	return n
}

const (
	MessageNothingImported = "No authors or books were imported."
	MessageImported        = "Import completed successfully."
)

// Summary reports what one import did.
type Summary struct {
	AuthorsCreated int    `json:"authors_created"`
	BooksCreated   int    `json:"books_created"`
	BooksSkipped   int    `json:"books_skipped"`
	RecordsIgnored int    `json:"records_ignored"`
	Message        string `json:"message"`
}

// Finalize sets Message from the counters.
func (s *Summary) Finalize() {
	if s.AuthorsCreated == 0 && s.BooksCreated == 0 {
		s.Message = MessageNothingImported
		return
	}
	s.Message = MessageImported
}

// RowError describes one invalid record.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}
