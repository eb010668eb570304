// file: internal/services/interface.go
package services

import (
	"context"

	"maumlog/internal/models"
)

// ===============================
// CORE SERVICE INTERFACES
// ===============================

// UserService defines user business logic
type UserService interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByNickname(ctx context.Context, nickname string) (*models.User, error)
	UpdateNotificationSettings(ctx context.Context, userID int64, settings models.NotificationSettings) error
	DeleteUser(ctx context.Context, userID int64) error
}

// PostService defines post business logic for both boards
type PostService interface {
	// Core CRUD operations
	CreatePost(ctx context.Context, req *CreatePostRequest) (*models.Post, error)
	GetPostByID(ctx context.Context, id int64, viewerID *int64) (*models.Post, error)
	UpdatePost(ctx context.Context, req *UpdatePostRequest) (*models.Post, error)
	DeletePost(ctx context.Context, postID, userID int64) error

	// Listing
	ListBoard(ctx context.Context, req *ListBoardRequest) (*models.PaginatedResponse[*models.Post], error)
	GetPostsByUser(ctx context.Context, userID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Post], error)

	// Engagement operations
	ToggleLike(ctx context.Context, postID, userID int64) (*LikeResult, error)
	SendEncouragement(ctx context.Context, req *EncouragementRequest) error
}

// CommentService defines comment business logic: writes keep the cached
// counters honest, reads shape the flat rows into a ranked tree.
type CommentService interface {
	CreateComment(ctx context.Context, req *CreateCommentRequest) (*models.Comment, error)
	GetCommentByID(ctx context.Context, id int64) (*models.Comment, error)
	UpdateComment(ctx context.Context, req *UpdateCommentRequest) (*models.Comment, error)
	DeleteComment(ctx context.Context, commentID, userID int64) error

	// GetCommentTree returns the post's full comment forest, ranked or
	// chronological, with the best-comment bucket attached.
	GetCommentTree(ctx context.Context, req *CommentTreeRequest) (*models.CommentTree, error)

	// Engagement operations
	ToggleLike(ctx context.Context, commentID, userID int64) (*LikeResult, error)
}

// NotificationService defines the fan-out and feed business logic
type NotificationService interface {
	// Dispatch fans one social action out to its recipients. It is
	// best-effort: delivery failures are logged and swallowed, so it is
	// safe to call after the triggering write has committed.
	Dispatch(ctx context.Context, event *ActionEvent)

	ListNotifications(ctx context.Context, req *ListNotificationsRequest) (*models.PaginatedResponse[*models.Notification], error)
	MarkRead(ctx context.Context, notificationID, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	DeleteNotification(ctx context.Context, notificationID, userID int64) error
}

// ReconcilerService recounts authoritative rows and settles the cached
// counter columns
type ReconcilerService interface {
	ReconcilePost(ctx context.Context, postID int64) (*ReconcileResult, error)
	ReconcileCommentLikes(ctx context.Context, commentID int64) (int, bool, error)
}

// CacheService provides caching operations for hot read paths
type CacheService interface {
	GetUnreadCount(ctx context.Context, userID int64) (int, bool)
	SetUnreadCount(ctx context.Context, userID int64, count int)
	InvalidateUnreadCount(ctx context.Context, userID int64)
}
