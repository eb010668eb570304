// ===============================
// internal/handlers/api/v1/admin/admin_controller.go
// ===============================

package admin

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"maumlog/internal/response"
	"maumlog/internal/services"
	"maumlog/internal/utils/appinfo"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminController exposes operational endpoints: counter reconciliation,
// health probes and service metrics.
type AdminController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	startTime         time.Time
}

// NewAdminController creates an admin controller
func NewAdminController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *AdminController {
	return &AdminController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		startTime:         time.Now(),
	}
}

// ===============================
// RECONCILIATION ENDPOINTS
// ===============================

// ReconcilePost handles POST /api/v1/admin/reconcile/posts/{postID}
func (c *AdminController) ReconcilePost(w http.ResponseWriter, r *http.Request) {
	postID, err := c.idParam(r, "postID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid post ID", err))
		return
	}

	result, err := c.serviceCollection.GetReconcilerService().ReconcilePost(r.Context(), postID)
	if err != nil {
		c.handleServiceError(w, r, err, "reconcile post")
		return
	}

	if result.CommentCorrected || result.LikeCorrected {
		c.logger.Warn("Post counters drifted",
			zap.Int64("post_id", postID),
			zap.Int("comment_count", result.CommentCount),
			zap.Int("like_count", result.LikeCount),
			zap.Bool("comment_corrected", result.CommentCorrected),
			zap.Bool("like_corrected", result.LikeCorrected),
		)
	}

	c.responseBuilder.WriteSuccess(w, r, result)
}

// ReconcileCommentLikes handles POST /api/v1/admin/reconcile/comments/{commentID}
func (c *AdminController) ReconcileCommentLikes(w http.ResponseWriter, r *http.Request) {
	commentID, err := c.idParam(r, "commentID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid comment ID", err))
		return
	}

	count, corrected, err := c.serviceCollection.GetReconcilerService().ReconcileCommentLikes(r.Context(), commentID)
	if err != nil {
		c.handleServiceError(w, r, err, "reconcile comment likes")
		return
	}

	if corrected {
		c.logger.Warn("Comment like counter drifted",
			zap.Int64("comment_id", commentID),
			zap.Int("like_count", count),
		)
	}

	c.responseBuilder.WriteSuccess(w, r, map[string]interface{}{
		"comment_id": commentID,
		"like_count": count,
		"corrected":  corrected,
	})
}

// ===============================
// HEALTH AND METRICS ENDPOINTS
// ===============================

// Health handles GET /health
func (c *AdminController) Health(w http.ResponseWriter, r *http.Request) {
	health, err := c.serviceCollection.HealthCheck(r.Context())
	if err != nil {
		c.handleServiceError(w, r, err, "health check")
		return
	}

	servicesMap := make(map[string]interface{}, len(health.Services)+len(health.Dependencies))
	for name, status := range health.Services {
		servicesMap[name] = status
	}
	for name, status := range health.Dependencies {
		servicesMap[name] = status
	}

	c.responseBuilder.WriteHealthCheck(w, r, &response.HealthStatus{
		Status:      health.Status,
		Timestamp:   health.Timestamp.Unix(),
		Version:     appinfo.GetVersion(),
		Environment: appinfo.GetEnvironment(),
		Uptime:      time.Since(c.startTime).Seconds(),
		Services:    servicesMap,
	})
}

// Ready handles GET /ready: the service accepts traffic once the collection
// is initialized and the database answers.
func (c *AdminController) Ready(w http.ResponseWriter, r *http.Request) {
	if !c.serviceCollection.IsInitialized() {
		c.responseBuilder.WriteServiceUnavailable(w, r, "")
		return
	}

	health, err := c.serviceCollection.HealthCheck(r.Context())
	if err != nil || health.Status == "unhealthy" {
		c.responseBuilder.WriteServiceUnavailable(w, r, "")
		return
	}

	c.responseBuilder.WriteStatusResponse(w, r, http.StatusOK, "ready")
}

// Live handles GET /live: process liveness only.
func (c *AdminController) Live(w http.ResponseWriter, r *http.Request) {
	c.responseBuilder.WriteStatusResponse(w, r, http.StatusOK, "alive")
}

// Metrics handles GET /api/v1/admin/metrics
func (c *AdminController) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := c.serviceCollection.GetMetrics(r.Context())
	if err != nil {
		c.handleServiceError(w, r, err, "get metrics")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, metrics)
}

// ===============================
// HELPER METHODS
// ===============================

// handleServiceError handles service errors with proper logging and response
func (c *AdminController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	c.logger.Error("Admin service error",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)

	c.responseBuilder.WriteError(w, r, err)
}

// idParam extracts a positive int64 route parameter.
func (c *AdminController) idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
