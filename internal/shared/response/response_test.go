package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog-backend/internal/shared/apperr"
)

func handle(t *testing.T, err error) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	HandleError(c, err)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHandleError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("get: %w", apperr.New(apperr.ErrNotFound, "author not found")), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", apperr.New(apperr.ErrConflict, "author owns books"), http.StatusConflict, "CONFLICT"},
		{"unauthorized", apperr.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"rate limited", apperr.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"validation", apperr.New(apperr.ErrValidation, "bad year"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"ozzo", validation.Errors{"name": errors.New("cannot be blank")}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := handle(t, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.False(t, body.Success)
			assert.Equal(t, tc.code, body.Error.Code)
		})
	}
}

func TestHandleError_HidesInternalDetails(t *testing.T) {
	_, body := handle(t, errors.New("dial tcp 10.0.0.3:5432: refused"))
	assert.Equal(t, "internal server error", body.Error.Message)
}

func TestHandleError_ValidationDetails(t *testing.T) {
	w, body := handle(t, apperr.Validation("invalid import rows", []int{2, 5}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid import rows", body.Error.Message)
	assert.Equal(t, []interface{}{float64(2), float64(5)}, body.Error.Details)
}
