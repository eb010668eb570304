// File: internal/middleware/recovery.go
package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"maumlog/internal/contextutils"
	"maumlog/internal/responseutil"
	"maumlog/internal/utils/appinfo"

	"go.uber.org/zap"
)

// ===============================
// RECOVERY CONFIGURATION
// ===============================

// RecoveryConfig tunes panic recovery behavior.
type RecoveryConfig struct {
	EnableStackTrace     bool `json:"enable_stack_trace"`
	StackTraceInResponse bool `json:"stack_trace_in_response"`
	MaxStackFrames       int  `json:"max_stack_frames"`
	EnableDetailedErrors bool `json:"enable_detailed_errors"`
	MaskInternalErrors   bool `json:"mask_internal_errors"`
}

// DefaultRecoveryConfig returns production-ready recovery configuration
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		EnableStackTrace:     true,
		StackTraceInResponse: false,
		MaxStackFrames:       20,
		EnableDetailedErrors: true,
		MaskInternalErrors:   true,
	}
}

// PanicInfo carries everything worth logging about a recovered panic.
type PanicInfo struct {
	Timestamp  time.Time    `json:"timestamp"`
	RequestID  string       `json:"request_id"`
	Error      interface{}  `json:"error"`
	StackTrace []StackFrame `json:"stack_trace,omitempty"`
	Method     string       `json:"method"`
	Path       string       `json:"path"`
	RemoteAddr string       `json:"remote_addr"`
	UserID     *int64       `json:"user_id,omitempty"`
}

// StackFrame represents a single stack frame
type StackFrame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

// ===============================
// MIDDLEWARE
// ===============================

// EnhancedRecovery converts panics into 500 responses in the standard error
// envelope, with full request context in the log.
func EnhancedRecovery(config *RecoveryConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultRecoveryConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					info := capturePanicInfo(err, r, config)
					logPanic(GetRequestLogger(r.Context()), info, config)
					sendPanicResponse(w, r, info, config)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RecoveryWithDefaults builds a recovery middleware tuned for the current
// environment.
func RecoveryWithDefaults(logger *zap.Logger) func(http.Handler) http.Handler {
	config := DefaultRecoveryConfig()

	if appinfo.GetEnvironment() == "production" {
		config.StackTraceInResponse = false
		config.MaskInternalErrors = true
		config.EnableDetailedErrors = false
	} else {
		config.StackTraceInResponse = true
		config.MaskInternalErrors = false
		config.EnableDetailedErrors = true
	}

	return EnhancedRecovery(config, logger)
}

// ===============================
// CAPTURE AND LOGGING
// ===============================

func capturePanicInfo(err interface{}, r *http.Request, config *RecoveryConfig) *PanicInfo {
	info := &PanicInfo{
		Timestamp:  time.Now(),
		RequestID:  GetRequestID(r.Context()),
		Error:      err,
		Method:     r.Method,
		Path:       r.URL.Path,
		RemoteAddr: getClientIP(r),
	}
	if userID := contextutils.GetUserID(r.Context()); userID > 0 {
		info.UserID = &userID
	}
	if config.EnableStackTrace {
		info.StackTrace = captureStackTrace(config.MaxStackFrames)
	}
	return info
}

func captureStackTrace(maxFrames int) []StackFrame {
	frames := make([]StackFrame, 0, maxFrames)

	// Skip the recovery plumbing itself.
	for i := 4; i < maxFrames+4; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		name := fn.Name()
		if strings.Contains(name, "runtime.") {
			continue
		}
		frames = append(frames, StackFrame{Function: name, File: file, Line: line})
	}
	return frames
}

func logPanic(logger *zap.Logger, info *PanicInfo, config *RecoveryConfig) {
	fields := []zap.Field{
		zap.String("request_id", info.RequestID),
		zap.Any("panic", info.Error),
		zap.String("method", info.Method),
		zap.String("path", info.Path),
		zap.String("remote_addr", info.RemoteAddr),
	}
	if info.UserID != nil {
		fields = append(fields, zap.Int64("user_id", *info.UserID))
	}
	if config.EnableStackTrace && len(info.StackTrace) > 0 {
		fields = append(fields, zap.Any("stack_trace", info.StackTrace))
	}

	logger.Error("Panic recovered", fields...)
}

// ===============================
// RESPONSE
// ===============================

func sendPanicResponse(w http.ResponseWriter, r *http.Request, info *PanicInfo, config *RecoveryConfig) {
	// Prefer the builder from context so panic responses match the rest of
	// the API surface.
	if builder := responseutil.GetBuilder(r.Context()); builder != nil {
		if rb, ok := builder.(responseutil.ResponseBuilder); ok {
			rb.WriteError(w, r, fmt.Errorf("internal server error"))
			return
		}
	}

	sendFallbackPanicResponse(w, r, info, config)
}

func sendFallbackPanicResponse(w http.ResponseWriter, r *http.Request, info *PanicInfo, config *RecoveryConfig) {
	message := "An unexpected error occurred"
	if !config.MaskInternalErrors && config.EnableDetailedErrors {
		message = fmt.Sprintf("panic: %v", info.Error)
	}

	body := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":    "INTERNAL_ERROR",
			"message": message,
		},
		"request_id": info.RequestID,
		"timestamp":  info.Timestamp.Unix(),
	}
	if config.StackTraceInResponse && len(info.StackTrace) > 0 {
		body["stack_trace"] = info.StackTrace
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write panic response: %v\n", err)
	}
}
