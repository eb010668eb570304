// file: internal/middleware/context.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"maumlog/internal/contextutils"
)

// GetRequestID returns the correlation ID stored by the RequestID middleware,
// or an empty string when called outside the middleware chain.
func GetRequestID(ctx context.Context) string {
	return contextutils.GetRequestID(ctx)
}

// GetRequestLogger returns the request-scoped logger seeded by RequestID,
// or a no-op logger when called outside the middleware chain.
func GetRequestLogger(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// GetRequestStart returns when the request entered the middleware chain
func GetRequestStart(ctx context.Context) time.Time {
	if start, ok := ctx.Value(RequestStartKey).(time.Time); ok {
		return start
	}
	return time.Now()
}

// getClientIP resolves the originating client address behind proxies
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the original client when proxies append.
		if first, _, found := strings.Cut(xff, ","); found {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
