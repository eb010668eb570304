// ===============================
// internal/handlers/api/v1/notifications/notifications_controller.go
// ===============================

package notifications

import (
	"fmt"
	"net/http"
	"strconv"

	"maumlog/internal/contextutils"
	"maumlog/internal/models"
	"maumlog/internal/response"
	"maumlog/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	"go.uber.org/zap"
)

// NotificationController handles the per-user notification feed: listing,
// read marking and the badge count.
type NotificationController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	paginationParser  *response.PaginationParser
	queryDecoder      *schema.Decoder
}

// NewNotificationController creates a notification controller
func NewNotificationController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *NotificationController {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &NotificationController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		paginationParser:  response.NewPaginationParser(response.DefaultPaginationConfig()),
		queryDecoder:      decoder,
	}
}

// listQuery carries the GET query parameters of the feed endpoint.
type listQuery struct {
	UnreadOnly bool   `schema:"unread_only"`
	Type       string `schema:"type"`
}

// ListNotifications handles GET /api/v1/notifications
func (c *NotificationController) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	params, err := c.paginationParser.ParseFromRequest(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid pagination parameters", err))
		return
	}

	var q listQuery
	if err := c.queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid query parameters", err))
		return
	}

	req := &services.ListNotificationsRequest{
		UserID: userID,
		Params: *params,
		Filter: models.NotificationFilter{
			UnreadOnly: q.UnreadOnly,
			Type:       models.NotificationType(q.Type),
		},
	}

	page, err := c.serviceCollection.GetNotificationService().ListNotifications(r.Context(), req)
	if err != nil {
		c.handleServiceError(w, r, err, "list notifications")
		return
	}

	c.responseBuilder.WritePaginated(w, r, page.Items, params.Limit, page.PageInfo)
}

// DeleteNotification handles DELETE /api/v1/notifications/{notificationID}
func (c *NotificationController) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	notificationID, err := c.idParam(r, "notificationID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid notification ID", err))
		return
	}

	if err := c.serviceCollection.GetNotificationService().DeleteNotification(r.Context(), notificationID, userID); err != nil {
		c.handleServiceError(w, r, err, "delete notification")
		return
	}

	c.responseBuilder.WriteNoContent(w, r)
}

// MarkRead handles POST /api/v1/notifications/{notificationID}/read
func (c *NotificationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	notificationID, err := c.idParam(r, "notificationID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid notification ID", err))
		return
	}

	if err := c.serviceCollection.GetNotificationService().MarkRead(r.Context(), notificationID, userID); err != nil {
		c.handleServiceError(w, r, err, "mark notification read")
		return
	}

	c.responseBuilder.WriteNoContent(w, r)
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (c *NotificationController) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	marked, err := c.serviceCollection.GetNotificationService().MarkAllRead(r.Context(), userID)
	if err != nil {
		c.handleServiceError(w, r, err, "mark all notifications read")
		return
	}

	c.logger.Info("All notifications marked read via API",
		zap.Int64("user_id", userID),
		zap.Int64("marked", marked),
	)

	c.responseBuilder.WriteSuccess(w, r, map[string]int64{"marked": marked})
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (c *NotificationController) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	count, err := c.serviceCollection.GetNotificationService().UnreadCount(r.Context(), userID)
	if err != nil {
		c.handleServiceError(w, r, err, "get unread count")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, map[string]int{"unread_count": count})
}

// ===============================
// HELPER METHODS
// ===============================

// handleServiceError handles service errors with proper logging and response
func (c *NotificationController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	c.logger.Error("Notification service error",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)

	c.responseBuilder.WriteError(w, r, err)
}

// idParam extracts a positive int64 route parameter.
func (c *NotificationController) idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
