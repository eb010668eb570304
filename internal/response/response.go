// ===============================
// FILE: internal/response/response.go
// ===============================

package response

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"maumlog/internal/contextutils"
	"maumlog/internal/models"
	"maumlog/internal/responseutil"
	"maumlog/internal/services"

	"go.uber.org/zap"
)

// ===============================
// RESPONSE CONFIGURATION
// ===============================

// Config controls how the JSON envelope is rendered
type Config struct {
	PrettyJSON       bool   `json:"pretty_json"`
	IncludeRequestID bool   `json:"include_request_id"`
	IncludeTimestamp bool   `json:"include_timestamp"`
	IncludeVersion   bool   `json:"include_version"`
	APIVersion       string `json:"api_version"`

	MaskInternalErrors bool `json:"mask_internal_errors"`
	CacheHeaders       bool `json:"cache_headers"`
}

// DefaultConfig returns production settings: compact JSON, internal
// errors masked.
func DefaultConfig() *Config {
	return &Config{
		PrettyJSON:         false,
		IncludeRequestID:   true,
		IncludeTimestamp:   true,
		IncludeVersion:     true,
		APIVersion:         "v1",
		MaskInternalErrors: true,
		CacheHeaders:       true,
	}
}

// ===============================
// RESPONSE TYPES
// ===============================

// APIResponse is the envelope every endpoint answers with
type APIResponse struct {
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *ErrorDetail  `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Timestamp int64         `json:"timestamp,omitempty"`
	Version   string        `json:"version,omitempty"`
}

// ErrorDetail carries the client-facing error payload
type ErrorDetail struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Fields  []FieldError           `json:"fields,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// FieldError pins a validation failure to the field that caused it
type FieldError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
}

// ResponseMeta holds envelope metadata
type ResponseMeta struct {
	Pagination *PaginationMeta        `json:"pagination,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// PaginationMeta describes the cursor window a list response covers
type PaginationMeta struct {
	Limit       int     `json:"limit"`
	HasNext     bool    `json:"has_next"`
	HasPrev     bool    `json:"has_prev"`
	StartCursor *string `json:"start_cursor,omitempty"`
	EndCursor   *string `json:"end_cursor,omitempty"`
	TotalCount  *int64  `json:"total_count,omitempty"`
}

// ===============================
// RESPONSE BUILDER
// ===============================

// Builder renders envelopes with consistent metadata and error mapping
type Builder struct {
	config *Config
	logger *zap.Logger
}

// NewBuilder creates a new response builder
func NewBuilder(config *Config, logger *zap.Logger) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Builder{
		config: config,
		logger: logger,
	}
}

// Success wraps data in a successful envelope
func (b *Builder) Success(ctx context.Context, data interface{}) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		RequestID: b.getRequestID(ctx),
		Timestamp: b.getTimestamp(),
		Version:   b.getVersion(),
	}
}

// SuccessWithMeta wraps data plus metadata in a successful envelope
func (b *Builder) SuccessWithMeta(ctx context.Context, data interface{}, meta *ResponseMeta) *APIResponse {
	response := b.Success(ctx, data)
	response.Meta = meta
	return response
}

// Error converts any error into an error envelope and logs it
func (b *Builder) Error(ctx context.Context, err error) *APIResponse {
	errorDetail := b.convertError(err)
	b.logError(ctx, err, errorDetail)

	return &APIResponse{
		Success:   false,
		Error:     errorDetail,
		RequestID: b.getRequestID(ctx),
		Timestamp: b.getTimestamp(),
		Version:   b.getVersion(),
	}
}

// Paginated wraps a list page in an envelope carrying its cursor window
func (b *Builder) Paginated(ctx context.Context, data interface{}, limit int, info models.PageInfo) *APIResponse {
	meta := &ResponseMeta{
		Pagination: &PaginationMeta{
			Limit:       limit,
			HasNext:     info.HasNext,
			HasPrev:     info.HasPrev,
			StartCursor: info.StartCursor,
			EndCursor:   info.EndCursor,
			TotalCount:  info.TotalCount,
		},
	}
	return b.SuccessWithMeta(ctx, data, meta)
}

// ===============================
// HTTP RESPONSE WRITERS
// ===============================

// WriteJSON writes the envelope with content, cache and sniffing headers
func (b *Builder) WriteJSON(w http.ResponseWriter, r *http.Request, response *APIResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if b.config.CacheHeaders {
		b.setCacheHeaders(w, statusCode)
	}

	w.WriteHeader(statusCode)

	encoder := json.NewEncoder(w)
	if b.config.PrettyJSON {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(response); err != nil {
		b.logger.Error("Failed to encode JSON response",
			zap.Error(err),
			zap.String("request_id", b.getRequestID(r.Context())),
		)
	}
}

// WriteSuccess writes data with a 200
func (b *Builder) WriteSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusOK)
}

// WriteCreated writes data with a 201
func (b *Builder) WriteCreated(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusCreated)
}

// WriteNoContent answers 204 with no body
func (b *Builder) WriteNoContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error envelope with the status the error maps to
func (b *Builder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	response := b.Error(r.Context(), err)
	b.WriteJSON(w, r, response, b.statusCodeFor(err))
}

// WritePaginated writes a list page with a 200
func (b *Builder) WritePaginated(w http.ResponseWriter, r *http.Request, data interface{}, limit int, info models.PageInfo) {
	b.WriteJSON(w, r, b.Paginated(r.Context(), data, limit, info), http.StatusOK)
}

// ===============================
// ERROR MAPPING
// ===============================

// convertError maps service errors onto the client-facing detail shape.
// Internal errors are masked when configured so.
func (b *Builder) convertError(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	if valErr, ok := err.(*services.ValidationError); ok {
		fields := make([]FieldError, len(valErr.Fields))
		for i, field := range valErr.Fields {
			fields[i] = FieldError{
				Field:   field.Field,
				Value:   field.Value,
				Message: field.Message,
				Code:    field.Code,
			}
		}
		return &ErrorDetail{
			Type:    valErr.Type,
			Message: valErr.Message,
			Code:    valErr.Code,
			Fields:  fields,
			Details: valErr.Details,
		}
	}

	if serviceErr := services.GetServiceError(err); serviceErr != nil {
		detail := &ErrorDetail{
			Type:    serviceErr.Type,
			Message: serviceErr.Message,
			Code:    serviceErr.Code,
			Details: serviceErr.Details,
		}
		if b.config.MaskInternalErrors && serviceErr.Type == "INTERNAL_ERROR" {
			detail.Message = "An internal error occurred"
			detail.Details = nil
		}
		return detail
	}

	message := err.Error()
	if b.config.MaskInternalErrors {
		message = "An unexpected error occurred"
	}
	return &ErrorDetail{
		Type:    "INTERNAL_ERROR",
		Message: message,
	}
}

func (b *Builder) statusCodeFor(err error) int {
	if serviceErr := services.GetServiceError(err); serviceErr != nil {
		return serviceErr.GetStatusCode()
	}
	return http.StatusInternalServerError
}

func (b *Builder) getRequestID(ctx context.Context) string {
	if !b.config.IncludeRequestID {
		return ""
	}
	return contextutils.GetRequestID(ctx)
}

func (b *Builder) getTimestamp() int64 {
	if !b.config.IncludeTimestamp {
		return 0
	}
	return time.Now().Unix()
}

func (b *Builder) getVersion() string {
	if !b.config.IncludeVersion {
		return ""
	}
	return b.config.APIVersion
}

func (b *Builder) setCacheHeaders(w http.ResponseWriter, statusCode int) {
	if statusCode >= 200 && statusCode < 300 {
		w.Header().Set("Cache-Control", "public, max-age=60")
	} else {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
	}
}

func (b *Builder) logError(ctx context.Context, err error, errorDetail *ErrorDetail) {
	requestID := b.getRequestID(ctx)

	switch errorDetail.Type {
	case "VALIDATION_ERROR", "BUSINESS_ERROR":
		b.logger.Warn("Request error",
			zap.String("request_id", requestID),
			zap.String("error_type", errorDetail.Type),
			zap.String("error_message", errorDetail.Message),
			zap.String("error_code", errorDetail.Code),
		)
	case "INTERNAL_ERROR":
		b.logger.Error("Internal error",
			zap.String("request_id", requestID),
			zap.String("error_type", errorDetail.Type),
			zap.Error(err),
		)
	default:
		b.logger.Info("Request completed with error",
			zap.String("request_id", requestID),
			zap.String("error_type", errorDetail.Type),
			zap.String("error_message", errorDetail.Message),
		)
	}
}

// ===============================
// CONTEXT HELPERS
// ===============================

// GetBuilder extracts the response builder from context
func GetBuilder(ctx context.Context) *Builder {
	if builder, ok := responseutil.GetBuilder(ctx).(*Builder); ok {
		return builder
	}
	return nil
}

// SetBuilder stores the response builder in context
func SetBuilder(ctx context.Context, builder *Builder) context.Context {
	return responseutil.SetBuilder(ctx, builder)
}

// QuickError answers with the context builder, or a default one when the
// middleware has not run yet.
func QuickError(w http.ResponseWriter, r *http.Request, err error) {
	if builder := GetBuilder(r.Context()); builder != nil {
		builder.WriteError(w, r, err)
		return
	}
	NewBuilder(DefaultConfig(), zap.NewNop()).WriteError(w, r, err)
}

// Middleware injects the builder into every request context
func Middleware(builder *Builder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := SetBuilder(r.Context(), builder)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
