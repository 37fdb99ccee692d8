package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookcatalog-backend/internal/shared/response"
	"bookcatalog-backend/pkg/jwt"
	"bookcatalog-backend/pkg/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ok(c *gin.Context) { c.Status(http.StatusOK) }

func get(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	return getFrom(r, "198.51.100.7:4242", path, headers)
}

func getFrom(r http.Handler, remote, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter := ratelimit.New(ratelimit.Config{Window: time.Minute, Limit: 2}).
		WithClock(func() time.Time { return now })

	var rejected []string
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.Use(ClientIPMiddleware(), RateLimit(limiter, func(key string) { rejected = append(rejected, key) }))
	r.GET("/books", ok)

	assert.Equal(t, http.StatusOK, get(r, "/books", nil).Code)
	w := get(r, "/books", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = get(r, "/books", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, []string{"198.51.100.7"}, rejected)

	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMITED", body.Error.Code)

	// another client is unaffected
	assert.Equal(t, http.StatusOK, getFrom(r, "203.0.113.9:5000", "/books", nil).Code)

	now = now.Add(61 * time.Second)
	assert.Equal(t, http.StatusOK, get(r, "/books", nil).Code)
}

func TestRateLimit_IgnoresForwardingHeadersFromUntrustedPeer(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{Window: time.Minute, Limit: 2})

	var rejected []string
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.Use(ClientIPMiddleware(), RateLimit(limiter, func(key string) { rejected = append(rejected, key) }))
	r.GET("/books", ok)

	limited := 0
	for i := 1; i <= 25; i++ {
		w := get(r, "/books", map[string]string{
			"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i),
			"X-Real-IP":       fmt.Sprintf("10.1.0.%d", i),
		})
		if w.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	assert.Equal(t, 23, limited)
	require.NotEmpty(t, rejected)
	for _, key := range rejected {
		assert.Equal(t, "198.51.100.7", key)
	}
}

func TestClientIPMiddleware_TrustedProxy(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"no proxy trusted", nil, "198.51.100.7:4242", map[string]string{"X-Forwarded-For": "10.0.0.1"}, "198.51.100.7"},
		{"real ip from untrusted peer", nil, "198.51.100.7:4242", map[string]string{"X-Real-IP": "10.0.0.2"}, "198.51.100.7"},
		{"forwarded by trusted proxy", []string{"198.51.100.0/24"}, "198.51.100.7:4242", map[string]string{"X-Forwarded-For": "203.0.113.5"}, "203.0.113.5"},
		{"chain through trusted proxy", []string{"198.51.100.0/24"}, "198.51.100.7:4242", map[string]string{"X-Forwarded-For": "10.9.9.9, 203.0.113.5"}, "203.0.113.5"},
		{"peer outside trusted range", []string{"198.51.100.0/24"}, "192.0.2.44:4242", map[string]string{"X-Forwarded-For": "203.0.113.5"}, "192.0.2.44"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			require.NoError(t, r.SetTrustedProxies(tt.trusted))
			r.Use(ClientIPMiddleware())
			r.GET("/ip", func(c *gin.Context) { c.String(http.StatusOK, GetClientIP(c)) })

			w := getFrom(r, tt.remote, "/ip", tt.headers)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Minute)
	token, _, err := tokens.GenerateAccessToken(42, "librarian")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		id, found := GetUserID(c)
		require.True(t, found)
		c.JSON(http.StatusOK, gin.H{"id": id, "username": GetUsername(c)})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := get(r, "/me", headers)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestAuthMiddleware_RejectsForeignSecret(t *testing.T) {
	token, _, err := jwt.NewManager("other", time.Minute).GenerateAccessToken(1, "x")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthMiddleware(jwt.NewManager("secret", time.Minute)), ok)

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", map[string]string{"Authorization": "Bearer " + token}).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", ok)

	w := get(r, "/", map[string]string{HeaderRequestID: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))

	w = get(r, "/", nil)
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := get(r, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.OPTIONS("/books", ok)

	req := httptest.NewRequest(http.MethodOptions, "/books", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewHTTPMetrics(MetricsOptions{Registerer: reg})
	require.NoError(t, err)

	limiter := ratelimit.New(ratelimit.Config{Limit: 1})
	require.NoError(t, metrics.TrackLimiter(limiter))

	r := gin.New()
	r.Use(metrics.Handler(), ClientIPMiddleware(), RateLimit(limiter, metrics.OnRateLimited))
	r.GET("/books/:id", ok)

	get(r, "/books/1", nil)
	get(r, "/books/2", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "/books/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "/books/:id", "429")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RateLimited))

	n, err := testutil.GatherAndCount(reg, "bookcatalog_ratelimit_tracked_clients")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	again, err := NewHTTPMetrics(MetricsOptions{Registerer: reg})
	require.NoError(t, err)
	assert.Same(t, metrics.Requests, again.Requests)
}
