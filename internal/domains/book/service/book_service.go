package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/domains/author"
	"bookcatalog-backend/internal/domains/book/model"
	"bookcatalog-backend/internal/domains/book/repository"
	"bookcatalog-backend/internal/shared/utils"
)

// BookService - implements ServiceInterface
type BookService struct {
	repo    repository.RepositoryInterface
	authors author.Repository
}

// NewService - constructor with DI
func NewService(repo repository.RepositoryInterface, authors author.Repository) ServiceInterface {
	return &BookService{repo: repo, authors: authors}
}

// ========================================
// READ
// ========================================

func (s *BookService) GetByID(ctx context.Context, id int64) (*model.BookResponse, error) {
	if id <= 0 {
		return nil, model.ErrInvalidID
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := b.ToResponse()
	return &resp, nil
}

func (s *BookService) List(ctx context.Context, filter model.BookFilter) ([]model.BookResponse, int64, error) {
	if filter.YearMin != nil && filter.YearMax != nil && *filter.YearMin > *filter.YearMax {
		return nil, 0, model.ErrInvalidYearRange
	}

	filter.Limit, filter.Offset = utils.ClampPage(filter.Limit, filter.Offset)
	filter.Order = utils.NormalizeOrder(filter.Order)
	filter.Title = strings.TrimSpace(filter.Title)
	filter.Genre = strings.TrimSpace(filter.Genre)
	filter.Author = strings.TrimSpace(filter.Author)

	books, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]model.BookResponse, len(books))
	for i := range books {
		out[i] = books[i].ToResponse()
	}
	return out, total, nil
}

func (s *BookService) ListByAuthor(ctx context.Context, authorID int64, filter model.BookFilter) ([]model.BookResponse, int64, error) {
	if authorID <= 0 {
		return nil, 0, author.ErrInvalidID
	}
	if err := s.ensureAuthor(ctx, authorID); err != nil {
		return nil, 0, err
	}

	filter.AuthorID = authorID
	return s.List(ctx, filter)
}

// Recommend returns a random match. When nothing matches, the error lists the
// genres that do have books.
func (s *BookService) Recommend(ctx context.Context, filter model.RecommendFilter) (*model.BookResponse, error) {
	filter.Genre = strings.TrimSpace(filter.Genre)
	filter.AuthorName = strings.TrimSpace(filter.AuthorName)

	if filter.AuthorName != "" {
		ok, err := s.repo.AnyAuthorMatches(ctx, filter.AuthorName)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, model.ErrNoMatchingAuthors
		}
	}

	b, err := s.repo.RandomMatch(ctx, filter)
	if err != nil {
		return nil, err
	}
	if b == nil {
		genres, err := s.repo.DistinctGenres(ctx)
		if err != nil {
			return nil, err
		}
		return nil, model.NoRecommendationError(genres)
	}

	resp := b.ToResponse()
	return &resp, nil
}

// ========================================
// WRITE
// ========================================

func (s *BookService) Create(ctx context.Context, req model.CreateBookRequest) (*model.BookResponse, error) {
	if g, ok := model.ParseGenre(string(req.Genre)); ok {
		req.Genre = g
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureAuthor(ctx, req.AuthorID); err != nil {
		return nil, err
	}

	b, err := s.repo.Create(ctx, &model.Book{
		Title:         strings.TrimSpace(req.Title),
		Genre:         req.Genre,
		PublishedYear: req.PublishedYear,
		AuthorID:      req.AuthorID,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("book_id", b.ID).Int64("author_id", b.AuthorID).Msg("book created")
	resp := b.ToResponse()
	return &resp, nil
}

func (s *BookService) Update(ctx context.Context, id int64, req model.UpdateBookRequest) (*model.BookResponse, error) {
	if id <= 0 {
		return nil, model.ErrInvalidID
	}
	if req.Genre != nil {
		if g, ok := model.ParseGenre(string(*req.Genre)); ok {
			req.Genre = &g
		}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.AuthorID != nil && *req.AuthorID != current.AuthorID {
		if err := s.ensureAuthor(ctx, *req.AuthorID); err != nil {
			return nil, err
		}
	}

	updated := *current
	req.Apply(&updated)
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	fresh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := fresh.ToResponse()
	return &resp, nil
}

func (s *BookService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return model.ErrInvalidID
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Int64("book_id", id).Msg("book deleted")
	return nil
}

func (s *BookService) ensureAuthor(ctx context.Context, authorID int64) error {
	if _, err := s.authors.GetByID(ctx, authorID); err != nil {
		if errors.Is(err, author.ErrAuthorNotFound) {
			return model.ErrAuthorNotFound
		}
		return err
	}
	return nil
}
