// ===============================
// FILE: internal/services/post_service.go
// ===============================

package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"maumlog/internal/events"
	"maumlog/internal/models"
	"maumlog/internal/pagination"
	"maumlog/internal/repositories"

	"go.uber.org/zap"
)

// postService implements PostService
type postService struct {
	postRepo     repositories.PostRepository
	notification NotificationService
	events       events.EventBus
	logger       *zap.Logger
	config       *PostServiceConfig
}

// PostServiceConfig holds the board-specific validation bounds. Lengths are
// counted in characters, not bytes.
type PostServiceConfig struct {
	TitleMinLength int `json:"title_min_length"`
	TitleMaxLength int `json:"title_max_length"`
	WallContentMin int `json:"wall_content_min"`
	WallContentMax int `json:"wall_content_max"`
	DayContentMax  int `json:"day_content_max"`
	EncourageMax   int `json:"encourage_max"`
}

// NewPostService creates a new post service
func NewPostService(
	postRepo repositories.PostRepository,
	notification NotificationService,
	eventBus events.EventBus,
	logger *zap.Logger,
	config *PostServiceConfig,
) PostService {
	if config == nil {
		config = DefaultPostConfig()
	}

	return &postService{
		postRepo:     postRepo,
		notification: notification,
		events:       eventBus,
		logger:       logger,
		config:       config,
	}
}

// DefaultPostConfig returns default post service configuration
func DefaultPostConfig() *PostServiceConfig {
	return &PostServiceConfig{
		TitleMinLength: 5,
		TitleMaxLength: 100,
		WallContentMin: 20,
		WallContentMax: 2000,
		DayContentMax:  1000,
		EncourageMax:   500,
	}
}

// ===============================
// CORE CRUD OPERATIONS
// ===============================

// CreatePost validates board-specific rules and stores the entry. The
// comfort wall requires a title; day entries never carry one.
func (s *postService) CreatePost(ctx context.Context, req *CreatePostRequest) (*models.Post, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:      req.UserID,
		Board:       req.Board,
		Content:     strings.TrimSpace(req.Content),
		IsAnonymous: req.IsAnonymous,
	}
	if req.Board == models.BoardComfortWall {
		title := strings.TrimSpace(*req.Title)
		post.Title = &title
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, NewInternalError("failed to create post")
	}

	if s.events != nil {
		_ = s.events.PublishAsync(ctx, events.NewPostCreatedEvent(
			post.ID, post.UserID, string(post.Board), post.IsAnonymous,
		))
	}
	return post, nil
}

// GetPostByID retrieves a post with the viewer's like flag
func (s *postService) GetPostByID(ctx context.Context, id int64, viewerID *int64) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, NewInternalError("failed to get post")
	}
	if post == nil {
		return nil, EntityNotFoundError("post", id)
	}
	return post, nil
}

// UpdatePost edits a post, owner only. The board's validation bounds apply
// to the edit the same way they applied to the create.
func (s *postService) UpdatePost(ctx context.Context, req *UpdatePostRequest) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, req.PostID, nil)
	if err != nil {
		return nil, NewInternalError("failed to get post")
	}
	if post == nil {
		return nil, EntityNotFoundError("post", req.PostID)
	}
	if post.UserID != req.UserID {
		return nil, InsufficientPermissionsError("update", "post")
	}

	content := strings.TrimSpace(req.Content)
	if err := s.validateContent(post.Board, content); err != nil {
		return nil, err
	}

	post.Content = content
	if post.Board == models.BoardComfortWall && req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if err := s.validateTitle(title); err != nil {
			return nil, err
		}
		post.Title = &title
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, NewInternalError("failed to update post")
	}
	return post, nil
}

// DeletePost removes a post and everything hanging off it, owner only
func (s *postService) DeletePost(ctx context.Context, postID, userID int64) error {
	post, err := s.postRepo.GetByID(ctx, postID, nil)
	if err != nil {
		return NewInternalError("failed to get post")
	}
	if post == nil {
		return EntityNotFoundError("post", postID)
	}
	if post.UserID != userID {
		return InsufficientPermissionsError("delete", "post")
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return NewInternalError("failed to delete post")
	}

	s.logger.Info("Post deleted",
		zap.Int64("post_id", postID),
		zap.Int64("user_id", userID),
	)

	if s.events != nil {
		_ = s.events.PublishAsync(ctx, events.NewPostDeletedEvent(postID, userID))
	}
	return nil
}

// ===============================
// LISTING
// ===============================

// ListBoard walks one board newest first
func (s *postService) ListBoard(ctx context.Context, req *ListBoardRequest) (*models.PaginatedResponse[*models.Post], error) {
	if !req.Board.Valid() {
		return nil, InvalidInputError("board", "unknown board")
	}

	req.Params.Limit = pagination.ClampLimit(req.Params.Limit)
	page, err := s.postRepo.ListByBoard(ctx, req.Board, req.Params, req.ViewerID)
	if err != nil {
		return nil, NewInternalError("failed to list posts")
	}
	return page, nil
}

// GetPostsByUser walks one author's posts newest first
func (s *postService) GetPostsByUser(ctx context.Context, userID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Post], error) {
	if userID <= 0 {
		return nil, InvalidInputError("user_id", "must be a positive ID")
	}

	params.Limit = pagination.ClampLimit(params.Limit)
	page, err := s.postRepo.ListByUserID(ctx, userID, params)
	if err != nil {
		return nil, NewInternalError("failed to list posts")
	}
	return page, nil
}

// ===============================
// ENGAGEMENT OPERATIONS
// ===============================

// ToggleLike flips the user's like on a post and notifies the author on the
// like edge only.
func (s *postService) ToggleLike(ctx context.Context, postID, userID int64) (*LikeResult, error) {
	post, err := s.postRepo.GetByID(ctx, postID, nil)
	if err != nil {
		return nil, NewInternalError("failed to get post")
	}
	if post == nil {
		return nil, EntityNotFoundError("post", postID)
	}

	liked, likeCount, err := s.postRepo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return nil, NewInternalError("failed to toggle post like")
	}

	if s.events != nil {
		_ = s.events.PublishAsync(ctx, events.NewPostLikeToggledEvent(postID, userID, liked, likeCount))
	}

	if liked && s.notification != nil {
		s.notification.Dispatch(ctx, &ActionEvent{
			Type:    models.NotificationReaction,
			PostID:  postID,
			ActorID: userID,
		})
	}

	return &LikeResult{Liked: liked, LikeCount: likeCount}, nil
}

// SendEncouragement delivers a cheer to the post author without creating any
// visible content. Cheering your own post is a no-op.
func (s *postService) SendEncouragement(ctx context.Context, req *EncouragementRequest) error {
	if utf8.RuneCountInString(req.Message) > s.config.EncourageMax {
		return InvalidInputError("message", fmt.Sprintf("must not exceed %d characters", s.config.EncourageMax))
	}

	post, err := s.postRepo.GetByID(ctx, req.PostID, nil)
	if err != nil {
		return NewInternalError("failed to get post")
	}
	if post == nil {
		return EntityNotFoundError("post", req.PostID)
	}

	if s.notification != nil {
		s.notification.Dispatch(ctx, &ActionEvent{
			Type:      models.NotificationEncouragement,
			PostID:    req.PostID,
			ActorID:   req.ActorID,
			Anonymous: req.IsAnonymous,
			Message:   strings.TrimSpace(req.Message),
		})
	}
	return nil
}

// ===============================
// VALIDATION
// ===============================

func (s *postService) validateCreateRequest(req *CreatePostRequest) error {
	if req.UserID <= 0 {
		return InvalidInputError("user_id", "must be a positive ID")
	}
	if !req.Board.Valid() {
		return InvalidInputError("board", "unknown board")
	}

	if err := s.validateContent(req.Board, strings.TrimSpace(req.Content)); err != nil {
		return err
	}

	if req.Board == models.BoardComfortWall {
		if req.Title == nil {
			return InvalidInputError("title", "required for comfort wall posts")
		}
		if err := s.validateTitle(strings.TrimSpace(*req.Title)); err != nil {
			return err
		}
	}
	return nil
}

func (s *postService) validateTitle(title string) error {
	length := utf8.RuneCountInString(title)
	if length < s.config.TitleMinLength || length > s.config.TitleMaxLength {
		return InvalidInputError("title", fmt.Sprintf(
			"must be between %d and %d characters", s.config.TitleMinLength, s.config.TitleMaxLength))
	}
	return nil
}

func (s *postService) validateContent(board models.Board, content string) error {
	length := utf8.RuneCountInString(content)
	switch board {
	case models.BoardComfortWall:
		if length < s.config.WallContentMin || length > s.config.WallContentMax {
			return InvalidInputError("content", fmt.Sprintf(
				"must be between %d and %d characters", s.config.WallContentMin, s.config.WallContentMax))
		}
	default:
		if length < 1 || length > s.config.DayContentMax {
			return InvalidInputError("content", fmt.Sprintf(
				"must be between 1 and %d characters", s.config.DayContentMax))
		}
	}
	return nil
}
