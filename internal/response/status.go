// File: internal/response/status.go
package response

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ===============================
// STATUS CODE MAPPING
// ===============================

// StatusCodeMap maps error types to HTTP status codes
var StatusCodeMap = map[string]int{
	"VALIDATION_ERROR":    http.StatusBadRequest,
	"UNAUTHORIZED":        http.StatusUnauthorized,
	"FORBIDDEN":           http.StatusForbidden,
	"NOT_FOUND":           http.StatusNotFound,
	"CONFLICT":            http.StatusConflict,
	"BUSINESS_ERROR":      http.StatusUnprocessableEntity,
	"RATE_LIMIT":          http.StatusTooManyRequests,
	"INTERNAL_ERROR":      http.StatusInternalServerError,
	"SERVICE_UNAVAILABLE": http.StatusServiceUnavailable,
}

// GetStatusCodeFromErrorType returns appropriate HTTP status code for error type
func GetStatusCodeFromErrorType(errorType string) int {
	if code, exists := StatusCodeMap[errorType]; exists {
		return code
	}
	return http.StatusInternalServerError
}

// IsSuccessStatus checks if status code indicates success (2xx)
func IsSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

// IsClientError checks if status code indicates client error (4xx)
func IsClientError(code int) bool {
	return code >= 400 && code < 500
}

// IsServerError checks if status code indicates server error (5xx)
func IsServerError(code int) bool {
	return code >= 500 && code < 600
}

// ===============================
// STATUS RESPONSE BUILDERS
// ===============================

// StatusResponse represents a response with just status information
type StatusResponse struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Success   bool   `json:"success"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteStatusResponse writes a status-only response
func (b *Builder) WriteStatusResponse(w http.ResponseWriter, r *http.Request, code int, message string) {
	if message == "" {
		message = http.StatusText(code)
	}

	apiResp := &APIResponse{
		Success:   IsSuccessStatus(code),
		RequestID: b.getRequestID(r.Context()),
		Timestamp: time.Now().Unix(),
	}
	if !apiResp.Success {
		apiResp.Error = &ErrorDetail{
			Type:    "STATUS",
			Message: message,
		}
	}

	b.WriteJSON(w, r, apiResp, code)
}

// WriteBadRequest writes a bad request response (400)
func (b *Builder) WriteBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "Bad request"
	}
	b.WriteStatusResponse(w, r, http.StatusBadRequest, message)
}

// WriteUnauthorized writes an unauthorized response (401)
func (b *Builder) WriteUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "Authentication required"
	}
	b.WriteStatusResponse(w, r, http.StatusUnauthorized, message)
}

// WriteForbidden writes a forbidden response (403)
func (b *Builder) WriteForbidden(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "Access forbidden"
	}
	b.WriteStatusResponse(w, r, http.StatusForbidden, message)
}

// WriteNotFound writes a not found response (404)
func (b *Builder) WriteNotFound(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "Resource not found"
	}
	b.WriteStatusResponse(w, r, http.StatusNotFound, message)
}

// WriteMethodNotAllowed writes a method not allowed response (405)
func (b *Builder) WriteMethodNotAllowed(w http.ResponseWriter, r *http.Request, allowedMethods []string) {
	if len(allowedMethods) > 0 {
		w.Header().Set("Allow", strings.Join(allowedMethods, ", "))
	}
	b.WriteStatusResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}

// WriteConflict writes a conflict response (409)
func (b *Builder) WriteConflict(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "Resource conflict"
	}
	b.WriteStatusResponse(w, r, http.StatusConflict, message)
}

// WriteTooManyRequests writes a rate limit response (429)
func (b *Builder) WriteTooManyRequests(w http.ResponseWriter, r *http.Request, retryAfter string) {
	if retryAfter != "" {
		w.Header().Set("Retry-After", retryAfter)
	}
	b.WriteStatusResponse(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
}

// WriteInternalServerError writes an internal server error response (500)
func (b *Builder) WriteInternalServerError(w http.ResponseWriter, r *http.Request, message string) {
	if message == "" {
		message = "Internal server error"
	}
	b.WriteStatusResponse(w, r, http.StatusInternalServerError, message)
}

// WriteServiceUnavailable writes a service unavailable response (503)
func (b *Builder) WriteServiceUnavailable(w http.ResponseWriter, r *http.Request, retryAfter string) {
	if retryAfter != "" {
		w.Header().Set("Retry-After", retryAfter)
	}
	b.WriteStatusResponse(w, r, http.StatusServiceUnavailable, "Service temporarily unavailable")
}

// ===============================
// HEALTH CHECK RESPONSES
// ===============================

// HealthStatus represents system health status
type HealthStatus struct {
	Status      string                 `json:"status"`
	Timestamp   int64                  `json:"timestamp"`
	Version     string                 `json:"version,omitempty"`
	Environment string                 `json:"environment,omitempty"`
	Uptime      float64                `json:"uptime_seconds,omitempty"`
	Services    map[string]interface{} `json:"services,omitempty"`
}

// WriteHealthCheck writes a health check response
func (b *Builder) WriteHealthCheck(w http.ResponseWriter, r *http.Request, health *HealthStatus) {
	code := http.StatusOK
	if health.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	response := b.Success(r.Context(), health)
	b.WriteJSON(w, r, response, code)
}

// ===============================
// QUICK RESPONSE HELPERS
// ===============================

// QuickStatusResponse is a helper for simple status responses
func QuickStatusResponse(w http.ResponseWriter, r *http.Request, code int, message string) {
	if builder := GetBuilder(r.Context()); builder != nil {
		builder.WriteStatusResponse(w, r, code, message)
		return
	}

	// Fallback
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"status":%d,"message":"%s","success":%t}`,
		code, message, IsSuccessStatus(code))
}

// QuickNotFound is a helper for 404 responses
func QuickNotFound(w http.ResponseWriter, r *http.Request) {
	QuickStatusResponse(w, r, http.StatusNotFound, "Not found")
}

// QuickInternalError is a helper for 500 responses
func QuickInternalError(w http.ResponseWriter, r *http.Request) {
	QuickStatusResponse(w, r, http.StatusInternalServerError, "Internal server error")
}
