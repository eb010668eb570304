// ===============================
// FILE: internal/services/comment_service.go
// ===============================

package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"maumlog/internal/events"
	"maumlog/internal/models"
	"maumlog/internal/repositories"
	"maumlog/internal/thread"

	"go.uber.org/zap"
)

// commentService implements CommentService
type commentService struct {
	commentRepo  repositories.CommentRepository
	postRepo     repositories.PostRepository
	notification NotificationService
	events       events.EventBus
	logger       *zap.Logger
	config       *CommentServiceConfig
}

// CommentServiceConfig holds comment service configuration
type CommentServiceConfig struct {
	MaxContentLength int `json:"max_content_length"`
	BestMax          int `json:"best_max"`
	BestMinLikes     int `json:"best_min_likes"`
}

// NewCommentService creates a new comment service
func NewCommentService(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	notification NotificationService,
	eventBus events.EventBus,
	logger *zap.Logger,
	config *CommentServiceConfig,
) CommentService {
	if config == nil {
		config = DefaultCommentConfig()
	}

	return &commentService{
		commentRepo:  commentRepo,
		postRepo:     postRepo,
		notification: notification,
		events:       eventBus,
		logger:       logger,
		config:       config,
	}
}

// DefaultCommentConfig returns default comment service configuration
func DefaultCommentConfig() *CommentServiceConfig {
	return &CommentServiceConfig{
		MaxContentLength: 2000,
		BestMax:          thread.DefaultBestMax,
		BestMinLikes:     thread.DefaultBestMinLikes,
	}
}

// ===============================
// CORE CRUD OPERATIONS
// ===============================

// CreateComment stores a comment, settles the cached counters in the same
// transaction, and fans out notifications once the write has committed.
func (s *commentService) CreateComment(ctx context.Context, req *CreateCommentRequest) (*models.Comment, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, req.PostID, nil)
	if err != nil {
		return nil, NewInternalError("failed to load post")
	}
	if post == nil {
		return nil, EntityNotFoundError("post", req.PostID)
	}

	// Reply targets are validated again inside the repository transaction;
	// this early check just gives callers a clean parent reference for the
	// fan-out below.
	var parent *models.Comment
	if req.ParentCommentID != nil {
		parent, err = s.commentRepo.GetByID(ctx, *req.ParentCommentID)
		if err != nil {
			return nil, NewInternalError("failed to load parent comment")
		}
		if parent != nil && parent.PostID != req.PostID {
			parent = nil
		}
	}

	comment := &models.Comment{
		PostID:          req.PostID,
		UserID:          req.UserID,
		Content:         strings.TrimSpace(req.Content),
		IsAnonymous:     req.IsAnonymous,
		ParentCommentID: req.ParentCommentID,
	}
	if parent == nil {
		comment.ParentCommentID = nil
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, NewInternalError("failed to create comment")
	}

	s.logger.Info("Comment created",
		zap.Int64("comment_id", comment.ID),
		zap.Int64("post_id", comment.PostID),
		zap.Int64("user_id", comment.UserID),
		zap.Bool("anonymous", comment.IsAnonymous),
	)

	if s.events != nil {
		_ = s.events.PublishAsync(ctx, events.NewCommentCreatedEvent(
			comment.ID, comment.PostID, comment.UserID,
			comment.ParentCommentID, comment.IsAnonymous,
		))
	}

	// Delivery is best-effort and must never undo the committed comment.
	if s.notification != nil {
		eventType := models.NotificationComment
		if comment.ParentCommentID != nil {
			eventType = models.NotificationReply
		}
		s.notification.Dispatch(ctx, &ActionEvent{
			Type:            eventType,
			PostID:          comment.PostID,
			CommentID:       &comment.ID,
			ParentCommentID: comment.ParentCommentID,
			ActorID:         comment.UserID,
			Anonymous:       comment.IsAnonymous,
		})
	}

	return comment, nil
}

// GetCommentByID retrieves a single comment
func (s *commentService) GetCommentByID(ctx context.Context, id int64) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, NewInternalError("failed to get comment")
	}
	if comment == nil {
		return nil, EntityNotFoundError("comment", id)
	}
	return comment, nil
}

// UpdateComment edits a comment's content, owner only
func (s *commentService) UpdateComment(ctx context.Context, req *UpdateCommentRequest) (*models.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, InvalidInputError("content", "must not be empty")
	}
	if utf8.RuneCountInString(content) > s.config.MaxContentLength {
		return nil, InvalidInputError("content", fmt.Sprintf("must not exceed %d characters", s.config.MaxContentLength))
	}

	comment, err := s.commentRepo.GetByID(ctx, req.CommentID)
	if err != nil {
		return nil, NewInternalError("failed to get comment")
	}
	if comment == nil {
		return nil, EntityNotFoundError("comment", req.CommentID)
	}
	if comment.UserID != req.UserID {
		return nil, InsufficientPermissionsError("update", "comment")
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, NewInternalError("failed to update comment")
	}
	return comment, nil
}

// DeleteComment removes a comment and its reply subtree, owner only
func (s *commentService) DeleteComment(ctx context.Context, commentID, userID int64) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return NewInternalError("failed to get comment")
	}
	if comment == nil {
		return EntityNotFoundError("comment", commentID)
	}
	if comment.UserID != userID {
		return InsufficientPermissionsError("delete", "comment")
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return NewInternalError("failed to delete comment")
	}

	s.logger.Info("Comment deleted",
		zap.Int64("comment_id", commentID),
		zap.Int64("post_id", comment.PostID),
		zap.Int64("user_id", userID),
	)

	if s.events != nil {
		_ = s.events.PublishAsync(ctx, events.NewCommentDeletedEvent(commentID, comment.PostID, userID))
	}
	return nil
}

// ===============================
// TREE SHAPING
// ===============================

// GetCommentTree loads the post's flat comment rows and shapes them into the
// ranked forest plus the best-comment bucket.
func (s *commentService) GetCommentTree(ctx context.Context, req *CommentTreeRequest) (*models.CommentTree, error) {
	post, err := s.postRepo.GetByID(ctx, req.PostID, req.ViewerID)
	if err != nil {
		return nil, NewInternalError("failed to load post")
	}
	if post == nil {
		return nil, EntityNotFoundError("post", req.PostID)
	}

	rows, err := s.commentRepo.ListByPostID(ctx, req.PostID, req.ViewerID)
	if err != nil {
		return nil, NewInternalError("failed to list comments")
	}

	built := thread.BuildForest(rows)
	if built.OrphanCount > 0 {
		s.logger.Warn("Orphaned comments excluded from tree",
			zap.Int64("post_id", req.PostID),
			zap.Int("orphans", built.OrphanCount),
		)
	}

	// A mismatch between the stored counter and the rows we just loaded means
	// the denormalized count drifted. Repair it best-effort without failing
	// the read.
	if post.CommentCount != built.TotalCount {
		if _, _, rerr := s.postRepo.ReconcileCommentCount(ctx, nil, req.PostID); rerr != nil {
			s.logger.Warn("Failed to repair drifted comment count",
				zap.Int64("post_id", req.PostID),
				zap.Int("stored", post.CommentCount),
				zap.Int("actual", built.TotalCount),
				zap.Error(rerr),
			)
		} else {
			s.logger.Info("Repaired drifted comment count",
				zap.Int64("post_id", req.PostID),
				zap.Int("stored", post.CommentCount),
				zap.Int("actual", built.TotalCount),
			)
		}
	}

	mode := req.Sort
	if mode == "" {
		mode = thread.SortRanked
	}
	thread.SortForest(built.Roots, mode)

	tree := &models.CommentTree{
		Roots:      built.Roots,
		TotalCount: built.TotalCount,
		RootCount:  built.RootCount,
		ReplyCount: built.ReplyCount,
	}

	if req.SplitBest {
		tree.Best, tree.Roots = thread.SplitBest(built.Roots, s.config.BestMax, s.config.BestMinLikes)
	} else {
		tree.Best = thread.SelectBest(built.Roots, s.config.BestMax, s.config.BestMinLikes)
	}
	return tree, nil
}

// ===============================
// ENGAGEMENT OPERATIONS
// ===============================

// ToggleLike flips the user's like on a comment and notifies the comment
// author on the like edge.
func (s *commentService) ToggleLike(ctx context.Context, commentID, userID int64) (*LikeResult, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, NewInternalError("failed to get comment")
	}
	if comment == nil {
		return nil, EntityNotFoundError("comment", commentID)
	}

	liked, likeCount, err := s.commentRepo.ToggleLike(ctx, commentID, userID)
	if err != nil {
		return nil, NewInternalError("failed to toggle comment like")
	}

	if s.events != nil {
		_ = s.events.PublishAsync(ctx, events.NewCommentLikeToggledEvent(commentID, userID, liked, likeCount))
	}

	if liked && s.notification != nil {
		s.notification.Dispatch(ctx, &ActionEvent{
			Type:      models.NotificationReaction,
			PostID:    comment.PostID,
			CommentID: &commentID,
			ActorID:   userID,
		})
	}

	return &LikeResult{Liked: liked, LikeCount: likeCount}, nil
}

// ===============================
// VALIDATION
// ===============================

func (s *commentService) validateCreateRequest(req *CreateCommentRequest) error {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return InvalidInputError("content", "must not be empty")
	}
	if utf8.RuneCountInString(content) > s.config.MaxContentLength {
		return InvalidInputError("content", fmt.Sprintf("must not exceed %d characters", s.config.MaxContentLength))
	}
	if req.PostID <= 0 {
		return InvalidInputError("post_id", "must be a positive ID")
	}
	if req.UserID <= 0 {
		return InvalidInputError("user_id", "must be a positive ID")
	}
	return nil
}
