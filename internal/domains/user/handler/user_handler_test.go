package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookcatalog-backend/internal/domains/user"
	"bookcatalog-backend/internal/shared/middleware"
	"bookcatalog-backend/pkg/jwt"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Register(ctx context.Context, req user.RegisterRequest) (*user.UserDTO, error) {
	args := m.Called(ctx, req)
	if d, ok := args.Get(0).(*user.UserDTO); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) IssueToken(ctx context.Context, req user.TokenRequest) (*user.TokenResponse, error) {
	args := m.Called(ctx, req)
	if d, ok := args.Get(0).(*user.TokenResponse); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) GetProfile(ctx context.Context, id int64) (*user.UserDTO, error) {
	args := m.Called(ctx, id)
	if d, ok := args.Get(0).(*user.UserDTO); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func newRouter(svc user.Service, tokens *jwt.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(svc)
	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/token", h.Token)
	r.GET("/auth/me", middleware.AuthMiddleware(tokens), h.Me)
	return r
}

func TestUserHandler_RegisterConflict(t *testing.T) {
	svc := new(mockService)
	svc.On("Register", mock.Anything, user.RegisterRequest{Username: "ann", Password: "password1"}).
		Return(nil, user.ErrUsernameTaken)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"username":"ann","password":"password1"}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(svc, jwt.NewManager("s", time.Minute)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUserHandler_TokenAcceptsForm(t *testing.T) {
	svc := new(mockService)
	svc.On("IssueToken", mock.Anything, user.TokenRequest{Username: "ann", Password: "password1"}).
		Return(&user.TokenResponse{AccessToken: "tok", TokenType: "bearer"}, nil)

	form := url.Values{"username": {"ann"}, "password": {"password1"}}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	newRouter(svc, jwt.NewManager("s", time.Minute)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"tok"`)
}

func TestUserHandler_TokenBadCredentials(t *testing.T) {
	svc := new(mockService)
	svc.On("IssueToken", mock.Anything, mock.Anything).Return(nil, user.ErrInvalidCredentials)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(`{"username":"ann","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(svc, jwt.NewManager("s", time.Minute)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestUserHandler_Me(t *testing.T) {
	tokens := jwt.NewManager("s", time.Minute)
	token, _, err := tokens.GenerateAccessToken(9, "ann")
	require.NoError(t, err)

	svc := new(mockService)
	svc.On("GetProfile", mock.Anything, int64(9)).Return(&user.UserDTO{ID: 9, Username: "ann"}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newRouter(svc, tokens).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ann"`)
}
