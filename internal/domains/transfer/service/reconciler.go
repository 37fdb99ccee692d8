package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/domains/author"
	"bookcatalog-backend/internal/domains/book/model"
	"bookcatalog-backend/internal/domains/transfer"
)

// Reconciler turns a parsed batch into the minimal set of inserts.
//
// Pass 1 resolves every distinct author name once, creating missing authors
// as it goes (each creation commits on its own). Pass 2 stages books whose
// (author, title) pair is neither stored nor already staged, and the staged
// books are committed in a single transaction.
type Reconciler struct {
	authors transfer.AuthorStore
	books   transfer.BookStore
}

func NewReconciler(authors transfer.AuthorStore, books transfer.BookStore) *Reconciler {
	return &Reconciler{authors: authors, books: books}
}

type bookKey struct {
	authorID int64
	title    string
}

func (r *Reconciler) Reconcile(ctx context.Context, batch transfer.Batch) (*transfer.Summary, error) {
	summary := &transfer.Summary{RecordsIgnored: batch.Ignored()}
	authorIDs := make(map[string]int64, len(batch.Authors))

	// PASS 1: authors
	for _, name := range batch.Authors {
		if _, ok := authorIDs[name]; ok {
			continue
		}
		id, created, err := r.resolveAuthor(ctx, name)
		if err != nil {
			return nil, err
		}
		authorIDs[name] = id
		if created {
			summary.AuthorsCreated++
		}
	}

	// PASS 2: books
	staged := make([]model.Book, 0, len(batch.Records))
	stagedKeys := make(map[bookKey]struct{}, len(batch.Records))

	for _, rec := range batch.Records {
		if rec.Ignorable() {
			continue
		}

		authorID, ok := authorIDs[rec.AuthorName]
		if !ok {
			id, created, err := r.resolveAuthor(ctx, rec.AuthorName)
			if err != nil {
				return nil, err
			}
			authorIDs[rec.AuthorName] = id
			authorID = id
			if created {
				summary.AuthorsCreated++
			}
		}

		key := bookKey{authorID: authorID, title: rec.Title}
		if _, dup := stagedKeys[key]; dup {
			summary.BooksSkipped++
			continue
		}

		exists, err := r.books.ExistsByTitleAndAuthor(ctx, rec.Title, authorID)
		if err != nil {
			return nil, fmt.Errorf("check book %q: %w", rec.Title, err)
		}
		if exists {
			summary.BooksSkipped++
			continue
		}

		stagedKeys[key] = struct{}{}
		staged = append(staged, model.Book{
			Title:         rec.Title,
			Genre:         rec.Genre,
			PublishedYear: rec.PublishedYear,
			AuthorID:      authorID,
		})
	}

	// COMMIT
	created, err := r.books.CreateMany(ctx, staged)
	if err != nil {
		if errors.Is(err, model.ErrDuplicateTitle) {
			log.Warn().Err(err).Int("staged", len(staged)).Msg("book batch lost a race with a concurrent insert")
			return nil, transfer.ErrConcurrentImport
		}
		return nil, fmt.Errorf("commit books: %w", err)
	}
	summary.BooksCreated = created
	summary.Finalize()

	log.Info().
		Int("authors_created", summary.AuthorsCreated).
		Int("books_created", summary.BooksCreated).
		Int("books_skipped", summary.BooksSkipped).
		Int("records_ignored", summary.RecordsIgnored).
		Msg("import reconciled")

	return summary, nil
}

// resolveAuthor returns the id for name, creating the author when absent.
// A unique violation on create means another writer got there first; the
// existing row is re-read.
func (r *Reconciler) resolveAuthor(ctx context.Context, name string) (int64, bool, error) {
	a, err := r.authors.GetByName(ctx, name)
	if err == nil {
		return a.ID, false, nil
	}
	if !errors.Is(err, author.ErrAuthorNotFound) {
		return 0, false, fmt.Errorf("lookup author %q: %w", name, err)
	}

	a, err = r.authors.Create(ctx, name)
	if err == nil {
		return a.ID, true, nil
	}
	if !errors.Is(err, author.ErrDuplicateName) {
		return 0, false, fmt.Errorf("create author %q: %w", name, err)
	}

	a, err = r.authors.GetByName(ctx, name)
	if err != nil {
		return 0, false, fmt.Errorf("re-read author %q: %w", name, err)
	}
	return a.ID, false, nil
}
