// file: internal/middleware/request_id.go
package middleware

import (
	"context"
	"net/http"
	"time"

	"maumlog/internal/contextutils"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// ContextKey type for context keys to avoid conflicts
type ContextKey string

const (
	// LoggerKey is the context key for the request-scoped logger
	LoggerKey ContextKey = "logger"
	// RequestStartKey is the context key for the request start time
	RequestStartKey ContextKey = "request_start"
)

const (
	HeaderXRequestID     = "X-Request-ID"
	HeaderXCorrelationID = "X-Correlation-ID"
)

// RequestID assigns each request a correlation ID, honoring one supplied
// by an upstream proxy, and seeds the request-scoped logger with it.
func RequestID(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(HeaderXRequestID)
			if requestID == "" {
				requestID = r.Header.Get(HeaderXCorrelationID)
			}
			if requestID == "" {
				if id, err := uuid.NewV4(); err == nil {
					requestID = id.String()
				} else {
					requestID = "req_" + start.Format("20060102150405.000000000")
				}
			}

			// Echo the ID so clients can quote it in bug reports.
			w.Header().Set(HeaderXRequestID, requestID)
			w.Header().Set(HeaderXCorrelationID, requestID)

			requestLogger := logger.With(
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", getClientIP(r)),
			)

			ctx := contextutils.WithRequestID(r.Context(), requestID)
			ctx = context.WithValue(ctx, LoggerKey, requestLogger)
			ctx = context.WithValue(ctx, RequestStartKey, start)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
