package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"bookcatalog-backend/internal/domains/book/model"
	"bookcatalog-backend/internal/domains/transfer"
)

// WriteCSV streams every book as one row under transfer.CSVHeader. The
// output can be fed back to the CSV import unchanged.
func WriteCSV(ctx context.Context, books transfer.BookStore, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transfer.CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	err := books.ForEach(ctx, func(b model.Book) error {
		return cw.Write([]string{b.AuthorName, b.Title, string(b.Genre), strconv.Itoa(b.PublishedYear)})
	})
	if err != nil {
		return fmt.Errorf("export csv: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

type exportBook struct {
	Title         string      `json:"title"`
	Genre         model.Genre `json:"genre"`
	PublishedYear int         `json:"published_year"`
}

type exportAuthor struct {
	Name  string       `json:"name"`
	Books []exportBook `json:"books"`
}

// WriteJSON streams {"authors":[...]} grouping consecutive books by author.
// ForEach orders by author name, so each author appears once.
func WriteJSON(ctx context.Context, books transfer.BookStore, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(`{"authors":[`); err != nil {
		return err
	}

	var current *exportAuthor
	var currentID int64
	first := true

	flush := func() error {
		if current == nil {
			return nil
		}
		if !first {
			if err := bw.WriteByte(','); err != nil {
				return err
			}
		}
		first = false
		data, err := json.Marshal(current)
		if err != nil {
			return err
		}
		_, err = bw.Write(data)
		return err
	}

	err := books.ForEach(ctx, func(b model.Book) error {
		if current == nil || b.AuthorID != currentID {
			if err := flush(); err != nil {
				return err
			}
			current = &exportAuthor{Name: b.AuthorName}
			currentID = b.AuthorID
		}
		current.Books = append(current.Books, exportBook{
			Title:         b.Title,
			Genre:         b.Genre,
			PublishedYear: b.PublishedYear,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("export json: %w", err)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("export json: %w", err)
	}

	if _, err := bw.WriteString("]}\n"); err != nil {
		return err
	}
	return bw.Flush()
}

// XLSXSheet is the worksheet name used by WriteXLSX.
const XLSXSheet = "Catalog"

// WriteXLSX writes the same rows as WriteCSV into a single worksheet with a
// bold header. The stream writer spills to a temp file for large catalogs.
func WriteXLSX(ctx context.Context, books transfer.BookStore, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", XLSXSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(XLSXSheet)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	header := make([]interface{}, len(transfer.CSVHeader))
	for i, name := range transfer.CSVHeader {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	row := 1
	err = books.ForEach(ctx, func(b model.Book) error {
		row++
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return sw.SetRow(cell, []interface{}{b.AuthorName, b.Title, string(b.Genre), b.PublishedYear})
	})
	if err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush xlsx: %w", err)
	}
	_, err = f.WriteTo(w)
	return err
}
