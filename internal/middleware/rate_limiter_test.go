package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"maumlog/internal/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T, config *RateLimiterConfig) *RateLimiter {
	t.Helper()
	backend := cache.NewMemoryCache(cache.DefaultConfig(), zap.NewNop())
	return NewRateLimiter(backend, config, zap.NewNop())
}

func TestRateLimitBlocksAfterLimit(t *testing.T) {
	config := DefaultRateLimiterConfig()
	config.IPLimit = 3
	config.Window = time.Minute
	config.EndpointLimits = nil
	limiter := newTestLimiter(t, config)

	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 4; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/boards/my_day/posts", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(last, req)
	}

	require.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, last.Body.String(), "RATE_LIMIT")
}

func TestRateLimitSeparatesClients(t *testing.T) {
	config := DefaultRateLimiterConfig()
	config.IPLimit = 1
	config.EndpointLimits = nil
	limiter := newTestLimiter(t, config)

	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	reqA := httptest.NewRequest(http.MethodGet, "/api/v1/posts/1", nil)
	reqA.RemoteAddr = "10.0.0.1:1234"
	handler.ServeHTTP(first, reqA)
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	reqB := httptest.NewRequest(http.MethodGet, "/api/v1/posts/1", nil)
	reqB.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(second, reqB)
	assert.Equal(t, http.StatusOK, second.Code)
}

func TestRateLimitDisabledPassesThrough(t *testing.T) {
	config := DefaultRateLimiterConfig()
	config.Enabled = false
	config.IPLimit = 0
	limiter := newTestLimiter(t, config)

	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/posts/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
