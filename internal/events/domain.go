// ===============================
// FILE: internal/events/domain.go
// ===============================

package events

import "time"

// ===============================
// DOMAIN EVENTS
// ===============================

type PostCreatedEvent struct {
	BaseEvent
	PostID    int64     `json:"post_id"`
	Board     string    `json:"board"`
	Anonymous bool      `json:"anonymous"`
	CreatedAt time.Time `json:"created_at"`
}

type PostDeletedEvent struct {
	BaseEvent
	PostID    int64     `json:"post_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type PostLikeToggledEvent struct {
	BaseEvent
	PostID    int64 `json:"post_id"`
	Liked     bool  `json:"liked"`
	LikeCount int   `json:"like_count"`
}

type CommentCreatedEvent struct {
	BaseEvent
	CommentID       int64     `json:"comment_id"`
	PostID          int64     `json:"post_id"`
	ParentCommentID *int64    `json:"parent_comment_id,omitempty"`
	Anonymous       bool      `json:"anonymous"`
	CreatedAt       time.Time `json:"created_at"`
}

type CommentDeletedEvent struct {
	BaseEvent
	CommentID int64     `json:"comment_id"`
	PostID    int64     `json:"post_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type CommentLikeToggledEvent struct {
	BaseEvent
	CommentID int64 `json:"comment_id"`
	Liked     bool  `json:"liked"`
	LikeCount int   `json:"like_count"`
}

type NotificationDispatchedEvent struct {
	BaseEvent
	NotificationID int64  `json:"notification_id"`
	RecipientID    int64  `json:"recipient_id"`
	Type           string `json:"type"`
	PostID         *int64 `json:"post_id,omitempty"`
}

type CountersReconciledEvent struct {
	BaseEvent
	PostID           int64 `json:"post_id"`
	CommentCount     int   `json:"comment_count"`
	LikeCount        int   `json:"like_count"`
	CommentCorrected bool  `json:"comment_corrected"`
	LikeCorrected    bool  `json:"like_corrected"`
}

// ===============================
// EVENT CONSTRUCTORS
// ===============================

func newBase(eventType string, userID *int64) BaseEvent {
	return BaseEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		UserID:    userID,
	}
}

// NewPostCreatedEvent records a post landing on a board
func NewPostCreatedEvent(postID, userID int64, board string, anonymous bool) *PostCreatedEvent {
	return &PostCreatedEvent{
		BaseEvent: newBase("post.created", &userID),
		PostID:    postID,
		Board:     board,
		Anonymous: anonymous,
		CreatedAt: time.Now(),
	}
}

// NewPostDeletedEvent records an author removing their post
func NewPostDeletedEvent(postID, userID int64) *PostDeletedEvent {
	return &PostDeletedEvent{
		BaseEvent: newBase("post.deleted", &userID),
		PostID:    postID,
		DeletedAt: time.Now(),
	}
}

// NewPostLikeToggledEvent records a like or unlike with the new total
func NewPostLikeToggledEvent(postID, userID int64, liked bool, likeCount int) *PostLikeToggledEvent {
	return &PostLikeToggledEvent{
		BaseEvent: newBase("post.like_toggled", &userID),
		PostID:    postID,
		Liked:     liked,
		LikeCount: likeCount,
	}
}

// NewCommentCreatedEvent records a comment or reply landing on a post
func NewCommentCreatedEvent(commentID, postID, userID int64, parentCommentID *int64, anonymous bool) *CommentCreatedEvent {
	return &CommentCreatedEvent{
		BaseEvent:       newBase("comment.created", &userID),
		CommentID:       commentID,
		PostID:          postID,
		ParentCommentID: parentCommentID,
		Anonymous:       anonymous,
		CreatedAt:       time.Now(),
	}
}

// NewCommentDeletedEvent records an author removing their comment
func NewCommentDeletedEvent(commentID, postID, userID int64) *CommentDeletedEvent {
	return &CommentDeletedEvent{
		BaseEvent: newBase("comment.deleted", &userID),
		CommentID: commentID,
		PostID:    postID,
		DeletedAt: time.Now(),
	}
}

// NewCommentLikeToggledEvent records a comment like or unlike
func NewCommentLikeToggledEvent(commentID, userID int64, liked bool, likeCount int) *CommentLikeToggledEvent {
	return &CommentLikeToggledEvent{
		BaseEvent: newBase("comment.like_toggled", &userID),
		CommentID: commentID,
		Liked:     liked,
		LikeCount: likeCount,
	}
}

// NewNotificationDispatchedEvent records a notification reaching its feed
func NewNotificationDispatchedEvent(notificationID, recipientID int64, notificationType string, postID *int64) *NotificationDispatchedEvent {
	return &NotificationDispatchedEvent{
		BaseEvent:      newBase("notification.dispatched", &recipientID),
		NotificationID: notificationID,
		RecipientID:    recipientID,
		Type:           notificationType,
		PostID:         postID,
	}
}

// NewCountersReconciledEvent records a counter repair and what it fixed
func NewCountersReconciledEvent(postID int64, commentCount, likeCount int, commentCorrected, likeCorrected bool) *CountersReconciledEvent {
	return &CountersReconciledEvent{
		BaseEvent:        newBase("counters.reconciled", nil),
		PostID:           postID,
		CommentCount:     commentCount,
		LikeCount:        likeCount,
		CommentCorrected: commentCorrected,
		LikeCorrected:    likeCorrected,
	}
}
