// file: internal/repositories/collection.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"maumlog/internal/database"

	"go.uber.org/zap"
)

// Collection holds all repository instances for dependency injection
type Collection struct {
	User         UserRepository
	Post         PostRepository
	Comment      CommentRepository
	Notification NotificationRepository

	// Database and logger for custom operations
	db     *database.Manager
	logger *zap.Logger
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	EnableQueryLogging bool
	SlowQueryThreshold time.Duration
}

// NewCollection creates a new repository collection with all dependencies
func NewCollection(db *database.Manager, logger *zap.Logger, config *RepositoryConfig) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("database manager is required")
	}

	if logger == nil {
		// Create default logger if none provided
		logger, _ = zap.NewProduction()
	}

	if config == nil {
		config = &RepositoryConfig{
			EnableQueryLogging: true,
			SlowQueryThreshold: 100 * time.Millisecond,
		}
	}

	collection := &Collection{
		db:     db,
		logger: logger,
	}

	collection.User = NewUserRepository(db, logger)
	collection.Post = NewPostRepository(db, logger)
	collection.Comment = NewCommentRepository(db, logger)
	collection.Notification = NewNotificationRepository(db, logger)

	logger.Info("Repository collection initialized successfully",
		zap.Bool("query_logging", config.EnableQueryLogging),
		zap.Duration("slow_query_threshold", config.SlowQueryThreshold),
	)

	return collection, nil
}

// ===============================
// HEALTH AND MONITORING
// ===============================

// HealthCheck performs health checks on the database and each repository
func (c *Collection) HealthCheck(ctx context.Context) map[string]interface{} {
	health := make(map[string]interface{})

	dbHealth := c.db.Health(ctx)
	health["database"] = map[string]interface{}{
		"status":        dbHealth.Status,
		"response_time": dbHealth.ResponseTime,
		"errors":        dbHealth.Errors,
	}

	health["repositories"] = c.checkRepositoriesHealth(ctx)

	metrics := c.db.Metrics()
	health["performance"] = map[string]interface{}{
		"query_count":        metrics.QueryCount,
		"error_count":        metrics.ErrorCount,
		"slow_query_count":   metrics.SlowQueryCount,
		"avg_query_duration": metrics.AvgQueryDuration,
	}

	return health
}

// checkRepositoriesHealth checks basic functionality of each repository
func (c *Collection) checkRepositoriesHealth(ctx context.Context) map[string]interface{} {
	checks := make(map[string]interface{})

	checks["user"] = c.testRepositoryHealth(ctx, "users", func() error {
		_, err := c.User.GetByID(ctx, 1)
		return err
	})

	checks["post"] = c.testRepositoryHealth(ctx, "posts", func() error {
		_, err := c.Post.CountComments(ctx, 1)
		return err
	})

	checks["comment"] = c.testRepositoryHealth(ctx, "comments", func() error {
		_, err := c.Comment.CountByPostID(ctx, 1)
		return err
	})

	checks["notification"] = c.testRepositoryHealth(ctx, "notifications", func() error {
		_, err := c.Notification.UnreadCount(ctx, 1)
		return err
	})

	return checks
}

// testRepositoryHealth runs a test operation for a repository
func (c *Collection) testRepositoryHealth(ctx context.Context, name string, testFn func() error) map[string]interface{} {
	start := time.Now()
	err := testFn()
	duration := time.Since(start)

	result := map[string]interface{}{
		"duration": duration,
		"healthy":  err == nil,
	}

	if err != nil {
		result["error"] = err.Error()
		c.logger.Warn("Repository health check failed",
			zap.String("repository", name),
			zap.Error(err),
			zap.Duration("duration", duration),
		)
	}

	return result
}

// ===============================
// MAINTENANCE OPERATIONS
// ===============================

// CleanupOldNotifications trims read notifications older than the retention
// window
func (c *Collection) CleanupOldNotifications(ctx context.Context, retention time.Duration) (int64, error) {
	deleted, err := c.Notification.DeleteOld(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup notifications: %w", err)
	}
	return deleted, nil
}
