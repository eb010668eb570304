// file: internal/middleware/structured_logger.go
package middleware

import (
	"net/http"
	"strings"
	"time"

	"maumlog/internal/contextutils"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig tunes the access log middleware.
type LoggingConfig struct {
	SlowRequestThreshold time.Duration `json:"slow_request_threshold"`
	VerySlowThreshold    time.Duration `json:"very_slow_threshold"`
	LogUserAgent         bool          `json:"log_user_agent"`

	// AuditPrefixes are path prefixes whose requests are always logged with
	// full context, regardless of outcome.
	AuditPrefixes []string `json:"audit_prefixes"`
}

// DefaultLoggingConfig returns production-ready logging configuration
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SlowRequestThreshold: 1 * time.Second,
		VerySlowThreshold:    5 * time.Second,
		LogUserAgent:         true,
		AuditPrefixes:        []string{"/api/v1/admin/"},
	}
}

// RequestLogging logs every request on completion with status, timing and
// the acting user, escalating the level for errors and slow responses.
func RequestLogging(logger *zap.Logger, config *LoggingConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultLoggingConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := GetRequestStart(r.Context())
			requestLogger := GetRequestLogger(r.Context())

			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			duration := time.Since(start)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.status),
				zap.Duration("duration", duration),
				zap.Int64("response_size", rw.bytesWritten),
				zap.String("remote_addr", getClientIP(r)),
			}
			if userID := contextutils.GetUserID(r.Context()); userID > 0 {
				fields = append(fields, zap.Int64("user_id", userID))
			}
			if config.LogUserAgent {
				fields = append(fields, zap.String("user_agent", r.UserAgent()))
			}

			switch level(rw.status, duration, config) {
			case zapcore.ErrorLevel:
				requestLogger.Error("Request failed", fields...)
			case zapcore.WarnLevel:
				requestLogger.Warn("Request completed with warning", fields...)
			default:
				requestLogger.Info("Request completed", fields...)
			}

			if duration > config.SlowRequestThreshold {
				severity := "slow"
				if duration > config.VerySlowThreshold {
					severity = "very_slow"
				}
				requestLogger.Warn("Slow request detected",
					zap.String("severity", severity),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Duration("duration", duration),
					zap.Duration("threshold", config.SlowRequestThreshold),
				)
			}

			logSecurityEvents(requestLogger, r, rw.status)

			if isAuditPath(r.URL.Path, config.AuditPrefixes) {
				requestLogger.Info("Audit event",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", rw.status),
					zap.Int64("user_id", contextutils.GetUserID(r.Context())),
					zap.String("remote_addr", getClientIP(r)),
				)
			}
		})
	}
}

// logSecurityEvents surfaces identity and throttling failures separately so
// they can be alerted on.
func logSecurityEvents(logger *zap.Logger, r *http.Request, status int) {
	switch status {
	case http.StatusUnauthorized:
		logger.Warn("Identity required",
			zap.String("event", "auth_failure"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", getClientIP(r)),
		)
	case http.StatusForbidden:
		logger.Warn("Access denied",
			zap.String("event", "authz_failure"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int64("user_id", contextutils.GetUserID(r.Context())),
		)
	case http.StatusTooManyRequests:
		logger.Warn("Rate limit exceeded",
			zap.String("event", "rate_limit"),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", getClientIP(r)),
		)
	}
}

func level(status int, duration time.Duration, config *LoggingConfig) zapcore.Level {
	if status >= 500 {
		return zapcore.ErrorLevel
	}
	if status >= 400 || duration > config.VerySlowThreshold {
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

func isAuditPath(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
