// file: internal/repositories/interfaces.go
package repositories

import (
	"context"
	"database/sql"
	"time"

	"maumlog/internal/models"
)

// ===============================
// CORE REPOSITORY INTERFACES
// ===============================

// UserRepository defines the contract for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error)
	GetByNickname(ctx context.Context, nickname string) (*models.User, error)
	UpdateNotificationSettings(ctx context.Context, userID int64, settings models.NotificationSettings) error
	Delete(ctx context.Context, id int64) error
}

// PostRepository defines the contract for post data operations
type PostRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int64, viewerID *int64) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id int64) error

	// Listing and filtering
	ListByBoard(ctx context.Context, board models.Board, params models.PaginationParams, viewerID *int64) (*models.PaginatedResponse[*models.Post], error)
	ListByUserID(ctx context.Context, userID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Post], error)

	// Engagement operations
	ToggleLike(ctx context.Context, postID, userID int64) (liked bool, likeCount int, err error)
	HasLiked(ctx context.Context, postID, userID int64) (bool, error)

	// Counter reconciliation. A nil tx runs against the pooled connection.
	CountComments(ctx context.Context, postID int64) (int, error)
	CountLikes(ctx context.Context, postID int64) (int, error)
	ReconcileCommentCount(ctx context.Context, tx *sql.Tx, postID int64) (count int, corrected bool, err error)
	ReconcileLikeCount(ctx context.Context, tx *sql.Tx, postID int64) (count int, corrected bool, err error)
}

// CommentRepository defines the contract for comment data operations.
//
// Create and Delete are transactional: the row change, the parent reply_count
// adjustment, and the post comment_count reconciliation commit or roll back
// together.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id int64) error

	// ListByPostID returns every comment on the post, oldest first, with the
	// author join and the viewer's like flag applied. Tree shaping happens in
	// the service layer.
	ListByPostID(ctx context.Context, postID int64, viewerID *int64) ([]*models.Comment, error)
	CountByPostID(ctx context.Context, postID int64) (int, error)

	// Engagement operations
	ToggleLike(ctx context.Context, commentID, userID int64) (liked bool, likeCount int, err error)
	ReconcileLikeCount(ctx context.Context, tx *sql.Tx, commentID int64) (count int, corrected bool, err error)
}

// NotificationRepository defines the contract for notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id int64) (*models.Notification, error)

	// ListByRecipient walks the recipient's feed newest first. The response
	// carries the recipient's total row count alongside the cursor metadata.
	ListByRecipient(ctx context.Context, userID int64, params models.PaginationParams, filter models.NotificationFilter) (*models.PaginatedResponse[*models.Notification], error)
	MarkAsRead(ctx context.Context, notificationID, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) (int64, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	Delete(ctx context.Context, notificationID, userID int64) error
	DeleteOld(ctx context.Context, olderThan time.Time) (int64, error)
}
