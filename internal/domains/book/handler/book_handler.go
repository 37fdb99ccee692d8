package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bookcatalog-backend/internal/domains/author"
	"bookcatalog-backend/internal/domains/book/model"
	"bookcatalog-backend/internal/domains/book/service"
	"bookcatalog-backend/internal/shared/response"
	"bookcatalog-backend/internal/shared/utils"
)

// BookHandler handles HTTP requests for books
type BookHandler struct {
	service service.ServiceInterface
}

// NewHandler - constructor with DI
func NewHandler(service service.ServiceInterface) *BookHandler {
	return &BookHandler{service: service}
}

// ════════════════════════════════════════════════════════════════
// CREATE: POST /v1/books
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) Create(c *gin.Context) {
	var req model.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp)
}

// ════════════════════════════════════════════════════════════════
// READ: GET /v1/books/:id
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) GetByID(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		response.HandleError(c, model.ErrInvalidID)
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// ════════════════════════════════════════════════════════════════
// LIST: GET /v1/books?title=&genre=&author=&year_min=&year_max=&sort_by=&order=&offset=&limit=
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) List(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	writePage(c, items, total, filter)
}

// GET /v1/authors/:id/books
func (h *BookHandler) ListByAuthor(c *gin.Context) {
	authorID, ok := utils.ParseID(c, "id")
	if !ok {
		response.HandleError(c, author.ErrInvalidID)
		return
	}

	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	items, total, err := h.service.ListByAuthor(c.Request.Context(), authorID, filter)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	writePage(c, items, total, filter)
}

// ════════════════════════════════════════════════════════════════
// RECOMMEND: GET /v1/books/recommend?genre=&author_name=
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) Recommend(c *gin.Context) {
	resp, err := h.service.Recommend(c.Request.Context(), model.RecommendFilter{
		Genre:      c.Query("genre"),
		AuthorName: c.Query("author_name"),
	})
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// ════════════════════════════════════════════════════════════════
// UPDATE: PUT /v1/books/:id
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) Update(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		response.HandleError(c, model.ErrInvalidID)
		return
	}

	var req model.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// ════════════════════════════════════════════════════════════════
// DELETE: DELETE /v1/books/:id
// ════════════════════════════════════════════════════════════════

func (h *BookHandler) Delete(c *gin.Context) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		response.HandleError(c, model.ErrInvalidID)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// parseFilter writes a 400 and returns false on malformed numbers.
func parseFilter(c *gin.Context) (model.BookFilter, bool) {
	limit, okLimit := utils.QueryInt(c, "limit", utils.DefaultPageLimit)
	offset, okOffset := utils.QueryInt(c, "offset", 0)
	if !okLimit || !okOffset {
		response.BadRequest(c, "offset and limit must be integers")
		return model.BookFilter{}, false
	}

	yearMin, okMin := optionalInt(c, "year_min")
	yearMax, okMax := optionalInt(c, "year_max")
	if !okMin || !okMax {
		response.BadRequest(c, "year_min and year_max must be integers")
		return model.BookFilter{}, false
	}

	return model.BookFilter{
		Title:   c.Query("title"),
		Genre:   c.Query("genre"),
		Author:  c.Query("author"),
		YearMin: yearMin,
		YearMax: yearMax,
		SortBy:  c.DefaultQuery("sort_by", "id"),
		Order:   c.DefaultQuery("order", "asc"),
		Limit:   limit,
		Offset:  offset,
	}, true
}

func optionalInt(c *gin.Context, key string) (*int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func writePage(c *gin.Context, items []model.BookResponse, total int64, filter model.BookFilter) {
	limit, offset := utils.ClampPage(filter.Limit, filter.Offset)
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Offset: offset, Limit: limit, Total: total})
}
