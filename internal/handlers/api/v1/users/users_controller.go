// ===============================
// internal/handlers/api/v1/users/users_controller.go
// ===============================

package users

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"maumlog/internal/contextutils"
	"maumlog/internal/models"
	"maumlog/internal/response"
	"maumlog/internal/services"
	"maumlog/internal/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserController handles account endpoints. Authentication happens upstream;
// this surface only manages the profile and notification preferences.
type UserController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewUserController creates a user controller
func NewUserController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *UserController {
	return &UserController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// CreateUser handles POST /api/v1/users
func (c *UserController) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError(err.Error(), err))
		return
	}

	user, err := c.serviceCollection.GetUserService().CreateUser(r.Context(), &req)
	if err != nil {
		c.handleServiceError(w, r, err, "create user")
		return
	}

	c.logger.Info("User created via API",
		zap.Int64("user_id", user.ID),
		zap.String("nickname", user.Nickname),
	)

	c.responseBuilder.WriteCreated(w, r, user)
}

// GetUser handles GET /api/v1/users/{userID}
func (c *UserController) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := c.idParam(r, "userID")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid user ID", err))
		return
	}

	user, err := c.serviceCollection.GetUserService().GetUserByID(r.Context(), userID)
	if err != nil {
		c.handleServiceError(w, r, err, "get user")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, user)
}

// GetMe handles GET /api/v1/users/me
func (c *UserController) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	user, err := c.serviceCollection.GetUserService().GetUserByID(r.Context(), userID)
	if err != nil {
		c.handleServiceError(w, r, err, "get current user")
		return
	}

	c.responseBuilder.WriteSuccess(w, r, user)
}

// UpdateNotificationSettings handles PUT /api/v1/users/me/notification-settings
func (c *UserController) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	var settings models.NotificationSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	if err := c.serviceCollection.GetUserService().UpdateNotificationSettings(r.Context(), userID, settings); err != nil {
		c.handleServiceError(w, r, err, "update notification settings")
		return
	}

	c.logger.Info("Notification settings updated via API",
		zap.Int64("user_id", userID),
		zap.Int("categories", len(settings)),
	)

	c.responseBuilder.WriteSuccess(w, r, settings)
}

// DeleteMe handles DELETE /api/v1/users/me
func (c *UserController) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID := contextutils.GetUserID(r.Context())

	if err := c.serviceCollection.GetUserService().DeleteUser(r.Context(), userID); err != nil {
		c.handleServiceError(w, r, err, "delete user")
		return
	}

	c.logger.Info("User deleted via API", zap.Int64("user_id", userID))

	c.responseBuilder.WriteNoContent(w, r)
}

// ===============================
// HELPER METHODS
// ===============================

// handleServiceError handles service errors with proper logging and response
func (c *UserController) handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	c.logger.Error("User service error",
		zap.Error(err),
		zap.String("operation", operation),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)

	c.responseBuilder.WriteError(w, r, err)
}

// idParam extracts a positive int64 route parameter.
func (c *UserController) idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
