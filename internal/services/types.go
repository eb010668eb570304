// file: internal/services/types.go
package services

import (
	"maumlog/internal/models"
	"maumlog/internal/thread"
)

// ===============================
// USER SERVICE TYPES
// ===============================

// CreateUserRequest carries the fields for a new account
type CreateUserRequest struct {
	Nickname        string                      `json:"nickname" validate:"required,min=2,max=30"`
	ProfileImageURL *string                     `json:"profile_image_url,omitempty" validate:"omitempty,url"`
	Notifications   models.NotificationSettings `json:"notification_settings,omitempty"`
}

// ===============================
// POST SERVICE TYPES
// ===============================

// CreatePostRequest carries the fields for a new diary entry. Title is
// required on the comfort wall and ignored elsewhere.
type CreatePostRequest struct {
	UserID      int64        `json:"user_id" validate:"required"`
	Board       models.Board `json:"board" validate:"required"`
	Title       *string      `json:"title,omitempty" validate:"omitempty,max=200"`
	Content     string       `json:"content" validate:"required,min=1,max=5000"`
	IsAnonymous bool         `json:"is_anonymous"`
}

// UpdatePostRequest carries an owner-scoped edit
type UpdatePostRequest struct {
	PostID  int64   `json:"post_id" validate:"required"`
	UserID  int64   `json:"user_id" validate:"required"`
	Title   *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Content string  `json:"content" validate:"required,min=1,max=5000"`
}

// ListBoardRequest is a cursor walk over one board
type ListBoardRequest struct {
	Board    models.Board            `json:"board" validate:"required"`
	Params   models.PaginationParams `json:"params"`
	ViewerID *int64                  `json:"viewer_id,omitempty"`
}

// LikeResult is the outcome of a like toggle
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// EncouragementRequest sends a cheer to a post author without creating any
// visible content
type EncouragementRequest struct {
	PostID      int64  `json:"post_id" validate:"required"`
	ActorID     int64  `json:"actor_id" validate:"required"`
	Message     string `json:"message,omitempty" validate:"max=500"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// ===============================
// COMMENT SERVICE TYPES
// ===============================

// CreateCommentRequest carries the fields for a new comment. A
// ParentCommentID that does not resolve within the same post is dropped and
// the comment is stored as a root.
type CreateCommentRequest struct {
	PostID          int64  `json:"post_id" validate:"required"`
	UserID          int64  `json:"user_id" validate:"required"`
	Content         string `json:"content" validate:"required,min=1,max=2000"`
	IsAnonymous     bool   `json:"is_anonymous"`
	ParentCommentID *int64 `json:"parent_comment_id,omitempty"`
}

// UpdateCommentRequest carries an owner-scoped edit
type UpdateCommentRequest struct {
	CommentID int64  `json:"comment_id" validate:"required"`
	UserID    int64  `json:"user_id" validate:"required"`
	Content   string `json:"content" validate:"required,min=1,max=2000"`
}

// CommentTreeRequest shapes one post's comments. Sort selects ranked
// (like_count desc, recency tiebreak) or chronological sibling order;
// SplitBest moves the best bucket out of the regular roots.
type CommentTreeRequest struct {
	PostID    int64           `json:"post_id" validate:"required"`
	ViewerID  *int64          `json:"viewer_id,omitempty"`
	Sort      thread.SortMode `json:"sort,omitempty"`
	SplitBest bool            `json:"split_best,omitempty"`
}

// ===============================
// NOTIFICATION SERVICE TYPES
// ===============================

// ActionEvent describes one committed social action for fan-out. The
// dispatcher decides who hears about it and how the actor is presented.
type ActionEvent struct {
	Type            models.NotificationType `json:"type"`
	PostID          int64                   `json:"post_id"`
	CommentID       *int64                  `json:"comment_id,omitempty"`
	ParentCommentID *int64                  `json:"parent_comment_id,omitempty"`
	ActorID         int64                   `json:"actor_id"`
	Anonymous       bool                    `json:"anonymous"`
	Message         string                  `json:"message,omitempty"`
}

// ListNotificationsRequest walks one user's feed
type ListNotificationsRequest struct {
	UserID int64                     `json:"user_id" validate:"required"`
	Params models.PaginationParams   `json:"params"`
	Filter models.NotificationFilter `json:"filter"`
}

// ===============================
// RECONCILER TYPES
// ===============================

// ReconcileResult reports one post's counter settlement
type ReconcileResult struct {
	PostID           int64 `json:"post_id"`
	CommentCount     int   `json:"comment_count"`
	LikeCount        int   `json:"like_count"`
	CommentCorrected bool  `json:"comment_corrected"`
	LikeCorrected    bool  `json:"like_corrected"`
}
