// File: internal/middleware/rate_limiter.go
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"maumlog/internal/cache"
	"maumlog/internal/contextutils"

	"go.uber.org/zap"
)

// ===============================
// CONFIGURATION
// ===============================

// EndpointLimit overrides the default limit for one route prefix.
type EndpointLimit struct {
	Limit  int           `json:"limit"`
	Window time.Duration `json:"window"`
}

// RateLimiterConfig holds rate limiting configuration
type RateLimiterConfig struct {
	Enabled        bool   `json:"enabled"`
	FailureMode    string `json:"failure_mode"` // "allow" or "deny" on cache errors
	HeadersEnabled bool   `json:"headers_enabled"`

	// Fixed-window defaults. Identified callers get the user limit, the
	// rest share the per-IP limit.
	IPLimit   int           `json:"ip_limit"`
	UserLimit int           `json:"user_limit"`
	Window    time.Duration `json:"window"`

	// Per-prefix overrides for expensive or abuse-prone routes.
	EndpointLimits map[string]*EndpointLimit `json:"endpoint_limits"`
}

// DefaultRateLimiterConfig returns production-ready rate limiting configuration
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Enabled:        true,
		FailureMode:    "allow",
		HeadersEnabled: true,
		IPLimit:        600,
		UserLimit:      1200,
		Window:         time.Minute,
		EndpointLimits: map[string]*EndpointLimit{
			"/api/v1/posts":            {Limit: 30, Window: time.Minute},
			"/api/v1/comments":         {Limit: 60, Window: time.Minute},
			"/api/v1/users":            {Limit: 10, Window: time.Minute},
			"/api/v1/admin/reconcile/": {Limit: 10, Window: time.Minute},
		},
	}
}

// ===============================
// LIMITER
// ===============================

// RateLimiter enforces fixed-window request limits backed by the shared
// cache, so limits hold across instances when the cache is redis.
type RateLimiter struct {
	cache  cache.Cache
	config *RateLimiterConfig
	logger *zap.Logger
}

// limitResult is the outcome of one limit check.
type limitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
	LimitType string
}

// NewRateLimiter creates a rate limiter on the given cache backend
func NewRateLimiter(cacheBackend cache.Cache, config *RateLimiterConfig, logger *zap.Logger) *RateLimiter {
	if config == nil {
		config = DefaultRateLimiterConfig()
	}
	return &RateLimiter{
		cache:  cacheBackend,
		config: config,
		logger: logger,
	}
}

// check applies the strictest matching limit for the request.
func (rl *RateLimiter) check(r *http.Request) (*limitResult, error) {
	ctx := r.Context()

	limit := rl.config.IPLimit
	window := rl.config.Window
	limitType := "ip"
	subject := "ip:" + getClientIP(r)

	if userID := contextutils.GetUserID(ctx); userID > 0 {
		limit = rl.config.UserLimit
		limitType = "user"
		subject = fmt.Sprintf("user:%d", userID)
	}

	// Write endpoints get their own tighter window when configured.
	if override, prefix := rl.endpointOverride(r); override != nil && r.Method != http.MethodGet {
		limit = override.Limit
		window = override.Window
		limitType = "endpoint"
		subject = subject + ":" + prefix
	}

	windowStart := time.Now().Truncate(window)
	key := fmt.Sprintf("ratelimit:%s:%d", subject, windowStart.Unix())

	count, err := rl.cache.Increment(ctx, key, 1)
	if err != nil {
		if setErr := rl.cache.Set(ctx, key, int64(1), window); setErr != nil {
			return nil, fmt.Errorf("rate limit counter unavailable: %w", err)
		}
		count = 1
	} else if count == 1 {
		// First hit in the window owns the expiry.
		if err := rl.cache.SetTTL(ctx, key, window); err != nil {
			rl.logger.Debug("Failed to set rate limit TTL", zap.String("key", key), zap.Error(err))
		}
	}

	result := &limitResult{
		Allowed:   count <= int64(limit),
		Limit:     limit,
		Remaining: limit - int(count),
		ResetTime: windowStart.Add(window),
		LimitType: limitType,
	}
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	return result, nil
}

func (rl *RateLimiter) endpointOverride(r *http.Request) (*EndpointLimit, string) {
	for prefix, override := range rl.config.EndpointLimits {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return override, prefix
		}
	}
	return nil, ""
}

// ===============================
// MIDDLEWARE
// ===============================

// RateLimit enforces the limiter on every request
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.check(r)
			if err != nil {
				limiter.logger.Warn("Rate limit check failed",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				if limiter.config.FailureMode == "deny" {
					writeRateLimitResponse(w, r, &limitResult{ResetTime: time.Now().Add(limiter.config.Window)})
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if limiter.config.HeadersEnabled {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime.Unix(), 10))
			}

			if !result.Allowed {
				limiter.logger.Warn("Rate limit exceeded",
					zap.String("limit_type", result.LimitType),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", getClientIP(r)),
					zap.Int64("user_id", contextutils.GetUserID(r.Context())),
				)
				writeRateLimitResponse(w, r, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeRateLimitResponse(w http.ResponseWriter, r *http.Request, result *limitResult) {
	retryAfter := int(time.Until(result.ResetTime).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	body := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":    "RATE_LIMIT",
			"message": "Too many requests, slow down",
		},
		"request_id": GetRequestID(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(body)
}
