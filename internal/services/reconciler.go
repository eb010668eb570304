// ===============================
// FILE: internal/services/reconciler.go
// ===============================

package services

import (
	"context"

	"maumlog/internal/events"
	"maumlog/internal/repositories"

	"go.uber.org/zap"
)

// reconcilerService settles the cached counter columns against the
// authoritative row counts. Every operation is idempotent: reconciling a
// post that is already in step changes nothing.
type reconcilerService struct {
	postRepo    repositories.PostRepository
	commentRepo repositories.CommentRepository
	events      events.EventBus
	logger      *zap.Logger
}

// NewReconcilerService creates a new counter reconciler
func NewReconcilerService(
	postRepo repositories.PostRepository,
	commentRepo repositories.CommentRepository,
	eventBus events.EventBus,
	logger *zap.Logger,
) ReconcilerService {
	return &reconcilerService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		events:      eventBus,
		logger:      logger,
	}
}

// ReconcilePost recounts the post's comment and like rows and rewrites the
// cached columns only where they drifted
func (s *reconcilerService) ReconcilePost(ctx context.Context, postID int64) (*ReconcileResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID, nil)
	if err != nil {
		return nil, NewInternalError("failed to get post")
	}
	if post == nil {
		return nil, EntityNotFoundError("post", postID)
	}

	commentCount, commentCorrected, err := s.postRepo.ReconcileCommentCount(ctx, nil, postID)
	if err != nil {
		return nil, NewInternalError("failed to reconcile comment count")
	}

	likeCount, likeCorrected, err := s.postRepo.ReconcileLikeCount(ctx, nil, postID)
	if err != nil {
		return nil, NewInternalError("failed to reconcile like count")
	}

	result := &ReconcileResult{
		PostID:           postID,
		CommentCount:     commentCount,
		LikeCount:        likeCount,
		CommentCorrected: commentCorrected,
		LikeCorrected:    likeCorrected,
	}

	if commentCorrected || likeCorrected {
		s.logger.Warn("Counter drift corrected",
			zap.Int64("post_id", postID),
			zap.Int("comment_count", commentCount),
			zap.Int("like_count", likeCount),
			zap.Bool("comment_corrected", commentCorrected),
			zap.Bool("like_corrected", likeCorrected),
		)
		if s.events != nil {
			_ = s.events.PublishAsync(ctx, events.NewCountersReconciledEvent(
				postID, commentCount, likeCount, commentCorrected, likeCorrected,
			))
		}
	}
	return result, nil
}

// ReconcileCommentLikes settles one comment's cached like count
func (s *reconcilerService) ReconcileCommentLikes(ctx context.Context, commentID int64) (int, bool, error) {
	count, corrected, err := s.commentRepo.ReconcileLikeCount(ctx, nil, commentID)
	if err != nil {
		return 0, false, NewInternalError("failed to reconcile comment likes")
	}
	if corrected {
		s.logger.Warn("Comment like drift corrected",
			zap.Int64("comment_id", commentID),
			zap.Int("like_count", count),
		)
	}
	return count, corrected, nil
}
