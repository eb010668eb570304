// ===============================
// internal/router/router.go
// ===============================

package router

import (
	"net/http"
	"time"

	"maumlog/internal/config"
	"maumlog/internal/handlers/api/v1/admin"
	"maumlog/internal/handlers/api/v1/comments"
	"maumlog/internal/handlers/api/v1/notifications"
	"maumlog/internal/handlers/api/v1/posts"
	"maumlog/internal/handlers/api/v1/users"
	"maumlog/internal/middleware"
	"maumlog/internal/response"
	"maumlog/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// New builds the HTTP router: global middleware stack, health probes and the
// versioned API surface.
func New(
	serviceCollection *services.ServiceCollection,
	cfg *config.Config,
	logger *zap.Logger,
) http.Handler {
	responseBuilder := response.NewBuilder(response.DefaultConfig(), logger)

	r := chi.NewRouter()

	// ===============================
	// GLOBAL MIDDLEWARE
	// ===============================

	r.Use(middleware.RequestID(logger))
	r.Use(middleware.RecoveryWithDefaults(logger))
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(""))
	r.Use(middleware.RequestLogging(logger, middleware.DefaultLoggingConfig()))
	r.Use(response.Middleware(responseBuilder))
	r.Use(middleware.Identity(logger))

	errorTracker := middleware.NewErrorTracker(5*time.Minute, logger)
	r.Use(middleware.TrackErrors(errorTracker, logger))

	if limiter := buildRateLimiter(serviceCollection, cfg, logger); limiter != nil {
		r.Use(middleware.RateLimit(limiter))
	}

	// ===============================
	// CONTROLLERS
	// ===============================

	adminController := admin.NewAdminController(serviceCollection, logger, responseBuilder)
	userController := users.NewUserController(serviceCollection, logger, responseBuilder)
	postController := posts.NewPostController(serviceCollection, logger, responseBuilder)
	commentController := comments.NewCommentController(serviceCollection, logger, responseBuilder)
	notificationController := notifications.NewNotificationController(serviceCollection, logger, responseBuilder)

	// ===============================
	// HEALTH PROBES
	// ===============================

	r.Get(cfg.Monitoring.HealthCheckPath, adminController.Health)
	r.Get(cfg.Monitoring.ReadinessPath, adminController.Ready)
	r.Get(cfg.Monitoring.LivenessPath, adminController.Live)

	// ===============================
	// API V1
	// ===============================

	r.Route("/api/v1", func(api chi.Router) {
		// Account creation happens before the caller has an identity.
		api.Post("/users", userController.CreateUser)

		// Public reads
		api.Get("/users/{userID}", userController.GetUser)
		api.Get("/boards/{board}/posts", postController.ListBoard)
		api.Get("/posts/{postID}", postController.GetPost)
		api.Get("/posts/{postID}/comments", commentController.GetCommentTree)
		api.Get("/comments/{commentID}", commentController.GetComment)

		// Identity-scoped routes
		api.Group(func(auth chi.Router) {
			auth.Use(middleware.RequireIdentity())

			auth.Get("/users/me", userController.GetMe)
			auth.Delete("/users/me", userController.DeleteMe)
			auth.Get("/users/me/posts", postController.GetMyPosts)
			auth.Put("/users/me/notification-settings", userController.UpdateNotificationSettings)

			auth.Post("/posts", postController.CreatePost)
			auth.Put("/posts/{postID}", postController.UpdatePost)
			auth.Delete("/posts/{postID}", postController.DeletePost)
			auth.Post("/posts/{postID}/like", postController.ToggleLike)
			auth.Post("/posts/{postID}/encourage", postController.SendEncouragement)

			auth.Post("/comments", commentController.CreateComment)
			auth.Put("/comments/{commentID}", commentController.UpdateComment)
			auth.Delete("/comments/{commentID}", commentController.DeleteComment)
			auth.Post("/comments/{commentID}/like", commentController.ToggleLike)

			auth.Get("/notifications", notificationController.ListNotifications)
			auth.Get("/notifications/unread-count", notificationController.UnreadCount)
			auth.Post("/notifications/read-all", notificationController.MarkAllRead)
			auth.Post("/notifications/{notificationID}/read", notificationController.MarkRead)
			auth.Delete("/notifications/{notificationID}", notificationController.DeleteNotification)
		})

		// Operational endpoints
		api.Route("/admin", func(ops chi.Router) {
			ops.Use(middleware.RequireIdentity())

			ops.Post("/reconcile/posts/{postID}", adminController.ReconcilePost)
			ops.Post("/reconcile/comments/{commentID}", adminController.ReconcileCommentLikes)
			if cfg.Monitoring.EnableMetrics {
				ops.Get("/metrics", adminController.Metrics)
				ops.Get("/errors", middleware.ErrorMetricsHandler(errorTracker))
			}
		})
	})

	return r
}

// buildRateLimiter wires the cache-backed limiter when a cache backend is
// available.
func buildRateLimiter(
	serviceCollection *services.ServiceCollection,
	cfg *config.Config,
	logger *zap.Logger,
) *middleware.RateLimiter {
	if serviceCollection.Cache == nil {
		return nil
	}

	limiterConfig := middleware.DefaultRateLimiterConfig()
	return middleware.NewRateLimiter(serviceCollection.Cache, limiterConfig, logger)
}
