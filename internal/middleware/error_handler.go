// File: internal/middleware/error_handler.go
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"maumlog/internal/contextutils"

	"go.uber.org/zap"
)

// ===============================
// ERROR TRACKING
// ===============================

// ErrorMetrics is a point-in-time snapshot of the error counters.
type ErrorMetrics struct {
	TotalErrors      int64            `json:"total_errors"`
	ErrorsByType     map[string]int64 `json:"errors_by_type"`
	ErrorsByEndpoint map[string]int64 `json:"errors_by_endpoint"`
	ErrorsByStatus   map[int]int64    `json:"errors_by_status"`
	LastError        time.Time        `json:"last_error"`
	ErrorRate        float64          `json:"error_rate"`
}

// ErrorTracker aggregates error responses across requests. Counters are
// cumulative; ErrorRate is computed over the aggregation window.
type ErrorTracker struct {
	window  time.Duration
	logger  *zap.Logger
	mu      sync.RWMutex
	metrics ErrorMetrics
	recent  []time.Time
}

// NewErrorTracker creates a tracker with the given rate window.
func NewErrorTracker(window time.Duration, logger *zap.Logger) *ErrorTracker {
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &ErrorTracker{
		window: window,
		logger: logger,
		metrics: ErrorMetrics{
			ErrorsByType:     make(map[string]int64),
			ErrorsByEndpoint: make(map[string]int64),
			ErrorsByStatus:   make(map[int]int64),
		},
	}
}

func (et *ErrorTracker) record(method, path string, status int) {
	now := time.Now()

	et.mu.Lock()
	defer et.mu.Unlock()

	et.metrics.TotalErrors++
	et.metrics.ErrorsByType[errorTypeFromStatus(status)]++
	et.metrics.ErrorsByStatus[status]++
	et.metrics.ErrorsByEndpoint[fmt.Sprintf("%s %s", method, path)]++
	et.metrics.LastError = now

	cutoff := now.Add(-et.window)
	kept := et.recent[:0]
	for _, t := range et.recent {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	et.recent = append(kept, now)
	et.metrics.ErrorRate = float64(len(et.recent)) / et.window.Seconds()
}

// Metrics returns a copy of the current counters.
func (et *ErrorTracker) Metrics() ErrorMetrics {
	et.mu.RLock()
	defer et.mu.RUnlock()

	snapshot := et.metrics
	snapshot.ErrorsByType = copyCounts(et.metrics.ErrorsByType)
	snapshot.ErrorsByEndpoint = copyCounts(et.metrics.ErrorsByEndpoint)
	snapshot.ErrorsByStatus = copyStatusCounts(et.metrics.ErrorsByStatus)
	return snapshot
}

// ===============================
// MIDDLEWARE
// ===============================

// TrackErrors records every error response in the tracker and logs system
// errors with their request context.
func TrackErrors(tracker *ErrorTracker, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			if rw.status < 400 {
				return
			}

			tracker.record(r.Method, r.URL.Path, rw.status)

			if rw.status >= 500 {
				fields := []zap.Field{
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("error_type", errorTypeFromStatus(rw.status)),
					zap.Int("status", rw.status),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", getClientIP(r)),
				}
				if userID := contextutils.GetUserID(r.Context()); userID > 0 {
					fields = append(fields, zap.Int64("user_id", userID))
				}
				GetRequestLogger(r.Context()).Error("System error response", fields...)
			}
		})
	}
}

// ErrorMetricsHandler exposes the tracker's counters as JSON.
func ErrorMetricsHandler(tracker *ErrorTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(tracker.Metrics()); err != nil {
			http.Error(w, "Failed to encode metrics", http.StatusInternalServerError)
		}
	}
}

// ===============================
// HELPERS
// ===============================

func errorTypeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case http.StatusTooManyRequests:
		return "RATE_LIMIT"
	case http.StatusInternalServerError:
		return "INTERNAL_ERROR"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case http.StatusGatewayTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN_ERROR"
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyStatusCounts(src map[int]int64) map[int]int64 {
	dst := make(map[int]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
