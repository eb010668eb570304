package response

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"maumlog/internal/models"
	"maumlog/internal/pagination"
)

// ===============================
// PAGINATION CONFIGURATION
// ===============================

// PaginationConfig holds configuration for cursor pagination parsing
type PaginationConfig struct {
	DefaultLimit      int      `json:"default_limit"`
	MaxLimit          int      `json:"max_limit"`
	AllowedSortFields []string `json:"allowed_sort_fields"`
	DefaultSort       string   `json:"default_sort"`
	DefaultOrder      string   `json:"default_order"`
}

// DefaultPaginationConfig returns sensible pagination defaults
func DefaultPaginationConfig() *PaginationConfig {
	return &PaginationConfig{
		DefaultLimit:      pagination.DefaultLimit,
		MaxLimit:          pagination.MaxLimit,
		AllowedSortFields: []string{"created_at", "like_count"},
		DefaultSort:       "created_at",
		DefaultOrder:      "desc",
	}
}

// ===============================
// PARAMETER PARSING
// ===============================

// PaginationParser parses cursor pagination parameters from requests
type PaginationParser struct {
	config *PaginationConfig
}

// NewPaginationParser creates a new pagination parser
func NewPaginationParser(config *PaginationConfig) *PaginationParser {
	if config == nil {
		config = DefaultPaginationConfig()
	}
	return &PaginationParser{config: config}
}

// ParseFromQuery extracts cursor pagination parameters from query values
func (p *PaginationParser) ParseFromQuery(query url.Values) (*models.PaginationParams, error) {
	params := &models.PaginationParams{
		Limit:     p.config.DefaultLimit,
		Direction: "next",
		Sort:      p.config.DefaultSort,
		Order:     p.config.DefaultOrder,
	}

	// A cursor that fails to decode is treated as absent so the client
	// lands on the first page instead of surfacing a 400.
	if cursor := strings.TrimSpace(query.Get("cursor")); cursor != "" {
		if _, err := pagination.Decode(cursor); err == nil {
			params.Cursor = cursor
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid limit parameter: %s", limitStr)
		}
		if limit < 1 {
			return nil, fmt.Errorf("limit must be positive")
		}
		if limit > p.config.MaxLimit {
			limit = p.config.MaxLimit
		}
		params.Limit = limit
	}

	if direction := query.Get("direction"); direction != "" {
		if direction != "next" && direction != "prev" {
			return nil, fmt.Errorf("direction must be next or prev")
		}
		params.Direction = direction
	}

	if sort := query.Get("sort"); sort != "" {
		if err := p.validateSortField(sort); err != nil {
			return nil, err
		}
		params.Sort = sort
	}

	if order := strings.ToLower(query.Get("order")); order != "" {
		if order != "asc" && order != "desc" {
			return nil, fmt.Errorf("order must be asc or desc")
		}
		params.Order = order
	}

	return params, nil
}

// ParseFromRequest extracts cursor pagination parameters from an HTTP request
func (p *PaginationParser) ParseFromRequest(r *http.Request) (*models.PaginationParams, error) {
	return p.ParseFromQuery(r.URL.Query())
}

// validateSortField checks if the sort field is allowed
func (p *PaginationParser) validateSortField(sort string) error {
	for _, field := range p.config.AllowedSortFields {
		if field == sort {
			return nil
		}
	}
	return fmt.Errorf("invalid sort field: %s (allowed: %s)",
		sort, strings.Join(p.config.AllowedSortFields, ", "))
}

// ===============================
// PAGINATION MIDDLEWARE
// ===============================

type paginationContextKey string

const paginationParamsKey paginationContextKey = "pagination_params"

// PaginationMiddleware parses cursor parameters and stores them in context.
// Requests with malformed parameters are rejected before reaching handlers.
func PaginationMiddleware(parser *PaginationParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			params, err := parser.ParseFromRequest(r)
			if err != nil {
				QuickError(w, r, fmt.Errorf("invalid pagination parameters: %w", err))
				return
			}

			ctx := context.WithValue(r.Context(), paginationParamsKey, params)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPaginationParams extracts pagination parameters from context
func GetPaginationParams(ctx context.Context) *models.PaginationParams {
	if params, ok := ctx.Value(paginationParamsKey).(*models.PaginationParams); ok {
		return params
	}
	return &models.PaginationParams{
		Limit:     pagination.DefaultLimit,
		Direction: "next",
	}
}

// ===============================
// RESPONSE HELPERS
// ===============================

// WritePage writes a paginated list envelope with cursor metadata
func (b *Builder) WritePage(w http.ResponseWriter, r *http.Request, items interface{}, limit int, info models.PageInfo) {
	b.WritePaginated(w, r, items, limit, info)
}
