package service

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bookcatalog-backend/internal/domains/book/model"
	"bookcatalog-backend/internal/domains/transfer"
	"bookcatalog-backend/internal/shared/apperr"
)

// maxReportedErrors bounds the row errors returned in one response.
const maxReportedErrors = 50

// Parse decodes an import file. Every non-blank record is validated before
// anything is returned, so a file with one bad row imports nothing.
func Parse(format transfer.Format, data []byte, maxRecords int) (transfer.Batch, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return transfer.Batch{}, transfer.ErrEmptyFile
	}

	switch format {
	case transfer.FormatCSV:
		return ParseCSV(bytes.NewReader(data), maxRecords)
	case transfer.FormatJSON:
		return ParseJSON(data, maxRecords)
	}
	return transfer.Batch{}, transfer.ErrUnsupportedFormat
}

// batchBuilder collects records, the distinct author list and row errors.
type batchBuilder struct {
	batch      transfer.Batch
	seen       map[string]struct{}
	errs       []transfer.RowError
	maxRecords int
}

func newBatchBuilder(maxRecords int) *batchBuilder {
	return &batchBuilder{seen: make(map[string]struct{}), maxRecords: maxRecords}
}

func (b *batchBuilder) addAuthor(name string) {
	if name == "" {
		return
	}
	if _, ok := b.seen[name]; ok {
		return
	}
	b.seen[name] = struct{}{}
	b.batch.Authors = append(b.batch.Authors, name)
}

// add validates rec (unless it is ignorable) and appends it. It returns an
// error once the record bound is exceeded.
func (b *batchBuilder) add(rec transfer.Record, rawGenre, rawYear string) error {
	if b.maxRecords > 0 && len(b.batch.Records) >= b.maxRecords {
		return apperr.Newf(apperr.ErrValidation, "import exceeds the limit of %d records", b.maxRecords)
	}

	if !rec.Ignorable() {
		if g, ok := model.ParseGenre(rawGenre); ok {
			rec.Genre = g
		} else {
			b.fail(rec.Row, "genre", fmt.Sprintf("unknown genre %q", rawGenre))
		}

		year, err := strconv.Atoi(rawYear)
		switch {
		case rawYear == "":
			b.fail(rec.Row, "published_year", "published_year is required")
		case err != nil:
			b.fail(rec.Row, "published_year", fmt.Sprintf("%q is not an integer", rawYear))
		case !model.ValidYear(year):
			b.fail(rec.Row, "published_year",
				fmt.Sprintf("must be between %d and %d", model.MinPublishedYear, model.MaxPublishedYear))
		default:
			rec.PublishedYear = year
		}

		b.addAuthor(rec.AuthorName)
	}

	b.batch.Records = append(b.batch.Records, rec)
	return nil
}

func (b *batchBuilder) fail(row int, field, msg string) {
	b.errs = append(b.errs, transfer.RowError{Row: row, Field: field, Message: msg})
}

func (b *batchBuilder) result() (transfer.Batch, error) {
	if len(b.errs) == 0 {
		return b.batch, nil
	}

	details := b.errs
	if len(details) > maxReportedErrors {
		details = details[:maxReportedErrors]
	}
	return transfer.Batch{}, apperr.Validation(
		fmt.Sprintf("%d invalid field(s) in import file; nothing was imported", len(b.errs)),
		details,
	)
}

// ========================================
// CSV
// ========================================

// ParseCSV reads rows with the header author_name,title,genre,published_year.
// Header names match case-insensitively and in any order. Rows are numbered
// by file line, the header being line 1.
func ParseCSV(r io.Reader, maxRecords int) (transfer.Batch, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return transfer.Batch{}, transfer.ErrEmptyFile
	}
	if err != nil {
		return transfer.Batch{}, malformedCSV(err)
	}

	colIndex := buildColumnIndexMap(header)
	var missing []string
	for _, col := range transfer.CSVHeader {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return transfer.Batch{}, apperr.Validation(
			"CSV header must contain "+strings.Join(transfer.CSVHeader, ","),
			map[string][]string{"missing_columns": missing},
		)
	}

	b := newBatchBuilder(maxRecords)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return transfer.Batch{}, malformedCSV(err)
		}

		line, _ := reader.FieldPos(0)
		getCol := func(name string) string {
			if idx, ok := colIndex[name]; ok && idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}

		rec := transfer.Record{
			Row:        line,
			AuthorName: getCol("author_name"),
			Title:      getCol("title"),
		}
		if err := b.add(rec, getCol("genre"), getCol("published_year")); err != nil {
			return transfer.Batch{}, err
		}
	}

	return b.result()
}

// buildColumnIndexMap maps a lower-cased column name to its index.
func buildColumnIndexMap(header []string) map[string]int {
	colMap := make(map[string]int, len(header))
	for i, colName := range header {
		if i == 0 {
			colName = strings.TrimPrefix(colName, "\ufeff")
		}
		colMap[strings.TrimSpace(strings.ToLower(colName))] = i
	}
	return colMap
}

func malformedCSV(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return apperr.Newf(apperr.ErrValidation, "malformed CSV at line %d: %v", perr.Line, perr.Err)
	}
	return apperr.Newf(apperr.ErrValidation, "malformed CSV: %v", err)
}

// ========================================
// JSON
// ========================================

type jsonAuthor struct {
	Name  string     `json:"name"`
	Books []jsonBook `json:"books"`
}

type jsonBook struct {
	Title         string      `json:"title"`
	Genre         string      `json:"genre"`
	PublishedYear json.Number `json:"published_year"`
}

// ParseJSON reads {"authors":[{"name":...,"books":[{"title","genre","published_year"}]}]}.
// Books are numbered by their position across the whole file. An author
// without a name has all its books ignored.
func ParseJSON(data []byte, maxRecords int) (transfer.Batch, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return transfer.Batch{}, transfer.ErrInvalidJSON
	}

	raw, ok := doc["authors"]
	if !ok {
		return transfer.Batch{}, transfer.ErrMissingAuthors
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil || entries == nil {
		return transfer.Batch{}, transfer.ErrMissingAuthors
	}

	b := newBatchBuilder(maxRecords)
	row := 0
	for i, entry := range entries {
		var a jsonAuthor
		if err := json.Unmarshal(entry, &a); err != nil {
			return transfer.Batch{}, apperr.Newf(apperr.ErrValidation, "authors[%d] is malformed", i)
		}

		name := strings.TrimSpace(a.Name)
		b.addAuthor(name)

		for _, book := range a.Books {
			row++
			rec := transfer.Record{
				Row:        row,
				AuthorName: name,
				Title:      strings.TrimSpace(book.Title),
			}
			if err := b.add(rec, strings.TrimSpace(book.Genre), strings.TrimSpace(book.PublishedYear.String())); err != nil {
				return transfer.Batch{}, err
			}
		}
	}

	return b.result()
}
