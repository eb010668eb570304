// ===============================
// FILE: internal/services/cache_service.go
// ===============================

package services

import (
	"context"
	"fmt"
	"time"

	"maumlog/internal/cache"

	"go.uber.org/zap"
)

// cacheService implements CacheService on top of the cache backend. It only
// caches the unread-badge count; everything else reads through to storage.
type cacheService struct {
	cache  cache.Cache
	logger *zap.Logger
	ttl    time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(backend cache.Cache, logger *zap.Logger, ttl time.Duration) CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &cacheService{
		cache:  backend,
		logger: logger,
		ttl:    ttl,
	}
}

func unreadCountKey(userID int64) string {
	return fmt.Sprintf("notifications:unread:%d", userID)
}

// GetUnreadCount returns the cached badge count, if present
func (s *cacheService) GetUnreadCount(ctx context.Context, userID int64) (int, bool) {
	value, ok := s.cache.Get(ctx, unreadCountKey(userID))
	if !ok {
		return 0, false
	}

	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		// Stale or foreign entry; drop it rather than serve garbage.
		_ = s.cache.Delete(ctx, unreadCountKey(userID))
		return 0, false
	}
}

// SetUnreadCount caches the badge count
func (s *cacheService) SetUnreadCount(ctx context.Context, userID int64, count int) {
	if err := s.cache.Set(ctx, unreadCountKey(userID), count, s.ttl); err != nil {
		s.logger.Warn("Failed to cache unread count",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}

// InvalidateUnreadCount drops the cached badge count after any feed change
func (s *cacheService) InvalidateUnreadCount(ctx context.Context, userID int64) {
	if err := s.cache.Delete(ctx, unreadCountKey(userID)); err != nil {
		s.logger.Warn("Failed to invalidate unread count",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}
}
