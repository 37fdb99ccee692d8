package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"bookcatalog-backend/internal/domains/author"
	"bookcatalog-backend/internal/shared/utils"
)

type authorService struct {
	repo author.Repository
}

func NewAuthorService(repo author.Repository) author.Service {
	return &authorService{repo: repo}
}

func (s *authorService) Create(ctx context.Context, req author.CreateAuthorRequest) (*author.AuthorResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.repo.Create(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		return nil, err
	}

	log.Info().Int64("author_id", a.ID).Str("name", a.Name).Msg("author created")
	resp := a.ToResponse()
	return &resp, nil
}

func (s *authorService) GetByID(ctx context.Context, id int64) (*author.AuthorDetailResponse, error) {
	if id <= 0 {
		return nil, author.ErrInvalidID
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountBooks(ctx, id)
	if err != nil {
		return nil, err
	}

	return &author.AuthorDetailResponse{AuthorResponse: a.ToResponse(), BookCount: count}, nil
}

func (s *authorService) List(ctx context.Context, filter author.AuthorFilter) ([]author.AuthorResponse, int64, error) {
	filter.Limit, filter.Offset = utils.ClampPage(filter.Limit, filter.Offset)
	filter.Order = utils.NormalizeOrder(filter.Order)
	filter.Name = strings.TrimSpace(filter.Name)
	if filter.SortBy != "name" {
		filter.SortBy = "id"
	}

	authors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]author.AuthorResponse, len(authors))
	for i := range authors {
		out[i] = authors[i].ToResponse()
	}
	return out, total, nil
}

func (s *authorService) Update(ctx context.Context, id int64, req author.UpdateAuthorRequest) (*author.AuthorResponse, error) {
	if id <= 0 {
		return nil, author.ErrInvalidID
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.repo.Update(ctx, id, strings.TrimSpace(req.Name))
	if err != nil {
		return nil, err
	}

	resp := a.ToResponse()
	return &resp, nil
}

// Delete checks ownership first so the common case gets a clear error; the
// foreign key still guards the race where a book is added in between.
func (s *authorService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return author.ErrInvalidID
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountBooks(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return author.ErrAuthorHasBooks
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	log.Info().Int64("author_id", id).Msg("author deleted")
	return nil
}
