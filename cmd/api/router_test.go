package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog-backend/internal/config"
	authorHandler "bookcatalog-backend/internal/domains/author/handler"
	bookHandler "bookcatalog-backend/internal/domains/book/handler"
	transferHandler "bookcatalog-backend/internal/domains/transfer/handler"
	userHandler "bookcatalog-backend/internal/domains/user/handler"
	"bookcatalog-backend/internal/shared/middleware"
	"bookcatalog-backend/pkg/container"
	"bookcatalog-backend/pkg/jwt"
	"bookcatalog-backend/pkg/ratelimit"
)

// testContainer wires only what the routing layer touches before a handler
// body runs. Handlers are never invoked by these tests.
func testContainer(t *testing.T, limit int) *container.Container {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics, err := middleware.NewHTTPMetrics(middleware.MetricsOptions{Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)

	return &container.Container{
		Config:          &config.Config{App: config.AppConfig{Version: "test"}},
		JWTManager:      jwt.NewManager("router-test-secret", time.Minute),
		Limiter:         ratelimit.New(ratelimit.Config{Window: time.Minute, Limit: limit}),
		Metrics:         metrics,
		AuthorHandler:   &authorHandler.AuthorHandler{},
		BookHandler:     &bookHandler.BookHandler{},
		UserHandler:     &userHandler.UserHandler{},
		TransferHandler: &transferHandler.TransferHandler{},
	}
}

func do(router http.Handler, method, path string) *httptest.ResponseRecorder {
	return doWith(router, method, path, "198.51.100.7:4100", nil)
}

func doWith(router http.Handler, method, path, remote string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_ProtectedRoutesRequireBearer(t *testing.T) {
	router := SetupRouter(testContainer(t, 100))

	cases := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodPost, "/api/v1/authors"},
		{http.MethodPut, "/api/v1/authors/1"},
		{http.MethodDelete, "/api/v1/authors/1"},
		{http.MethodPost, "/api/v1/books"},
		{http.MethodPut, "/api/v1/books/1"},
		{http.MethodDelete, "/api/v1/books/1"},
		{http.MethodPost, "/api/v1/imports/csv"},
		{http.MethodPost, "/api/v1/imports/json"},
		{http.MethodGet, "/api/v1/imports/jobs/abc"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, do(router, tc.method, tc.path).Code)
		})
	}
}

func TestRouter_RateLimitGuardsAPI(t *testing.T) {
	router := SetupRouter(testContainer(t, 2))

	for i := 0; i < 2; i++ {
		w := do(router, http.MethodGet, "/api/v1/auth/me")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := do(router, http.MethodGet, "/api/v1/auth/me")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRouter_RateLimitIgnoresSpoofedForwardingHeaders(t *testing.T) {
	router := SetupRouter(testContainer(t, 2))

	codes := map[int]int{}
	for i := 1; i <= 25; i++ {
		w := doWith(router, http.MethodGet, "/api/v1/auth/me", "198.51.100.7:4100", map[string]string{
			"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i),
		})
		codes[w.Code]++
	}

	assert.Equal(t, 2, codes[http.StatusUnauthorized])
	assert.Equal(t, 23, codes[http.StatusTooManyRequests])
}

func TestRouter_RateLimitKeysOnClientBehindTrustedProxy(t *testing.T) {
	c := testContainer(t, 2)
	c.Config.App.TrustedProxies = []string{"198.51.100.0/24"}
	router := SetupRouter(c)

	for i := 1; i <= 5; i++ {
		w := doWith(router, http.MethodGet, "/api/v1/auth/me", "198.51.100.7:4100", map[string]string{
			"X-Forwarded-For": fmt.Sprintf("203.0.113.%d", i),
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	for i := 0; i < 2; i++ {
		doWith(router, http.MethodGet, "/api/v1/auth/me", "198.51.100.7:4100", map[string]string{"X-Forwarded-For": "203.0.113.1"})
	}
	w := doWith(router, http.MethodGet, "/api/v1/auth/me", "198.51.100.7:4100", map[string]string{"X-Forwarded-For": "203.0.113.1"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRouter_OperationalEndpointsAreNotLimited(t *testing.T) {
	router := SetupRouter(testContainer(t, 1))

	for i := 0; i < 3; i++ {
		w := do(router, http.MethodGet, "/health")
		// no database in this container
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"disconnected"`)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/metrics").Code)
	}
}
