package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bookcatalog-backend/internal/domains/user"
	"bookcatalog-backend/internal/shared/apperr"
	"bookcatalog-backend/internal/shared/middleware"
	"bookcatalog-backend/internal/shared/response"
)

// UserHandler serves the /auth endpoints.
type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// ========================================
// AUTHENTICATION ENDPOINTS
// ========================================

// Register handles POST /auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	dto, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, dto)
}

// Token handles POST /auth/token. Accepts a JSON body or an
// application/x-www-form-urlencoded password grant.
func (h *UserHandler) Token(c *gin.Context) {
	var req user.TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	token, err := h.service.IssueToken(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			c.Header("WWW-Authenticate", "Bearer")
		}
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, token)
}

// Me handles GET /auth/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "not authenticated")
		return
	}

	dto, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, dto)
}
