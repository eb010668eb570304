// file: internal/models/models.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ===============================
// CORE ENTITIES
// ===============================

// Board identifies which wall a post belongs to.
type Board string

const (
	BoardMyDay       Board = "my_day"
	BoardComfortWall Board = "comfort_wall"
)

// Valid reports whether b is a known board.
func (b Board) Valid() bool {
	return b == BoardMyDay || b == BoardComfortWall
}

// User represents an account. Authentication lives outside this engine; the
// fields here are what comment trees and notifications need.
type User struct {
	ID              int64                `json:"user_id" db:"id"`
	Nickname        string               `json:"nickname" db:"nickname" validate:"required,min=2,max=30"`
	ProfileImageURL *string              `json:"profile_image_url,omitempty" db:"profile_image_url"`
	Notifications   NotificationSettings `json:"notification_settings" db:"notification_settings"`
	CreatedAt       time.Time            `json:"created_at" db:"created_at"`
}

// NotificationSettings is the per-user preference map stored as JSONB.
// A nil map means every category is enabled; a category is suppressed only
// when its flag is explicitly false.
type NotificationSettings map[string]bool

// Enabled reports whether notifications of the given category should be sent.
func (s NotificationSettings) Enabled(category string) bool {
	if s == nil {
		return true
	}
	v, ok := s[category]
	return !ok || v
}

// Scan implements sql.Scanner for the JSONB column.
func (s *NotificationSettings) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into NotificationSettings", value)
	}
}

// Value implements driver.Valuer.
func (s NotificationSettings) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Post is a diary entry on one of the two boards. LikeCount and CommentCount
// are cached columns; the authoritative values are the like/comment row
// counts, and drift is corrected by the counter reconciler.
type Post struct {
	ID           int64     `json:"post_id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id" validate:"required"`
	Board        Board     `json:"board" db:"board" validate:"required"`
	Title        *string   `json:"title,omitempty" db:"title"`
	Content      string    `json:"content" db:"content" validate:"required"`
	IsAnonymous  bool      `json:"is_anonymous" db:"is_anonymous"`
	LikeCount    int       `json:"like_count" db:"like_count"`
	CommentCount int       `json:"comment_count" db:"comment_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	// Joined fields (not columns)
	AuthorNickname *string `json:"nickname,omitempty" db:"-"`
	UserLiked      bool    `json:"user_liked,omitempty" db:"-"`
}

// Author returns the displayable author for the post, nil when anonymous.
func (p *Post) Author() *string {
	if p.IsAnonymous {
		return nil
	}
	return p.AuthorNickname
}

// Comment is a single comment row. ParentCommentID is nil for root comments;
// a non-nil parent must belong to the same post. ReplyCount is the cached
// direct-reply counter kept on the parent side.
type Comment struct {
	ID              int64     `json:"comment_id" db:"id"`
	PostID          int64     `json:"post_id" db:"post_id" validate:"required"`
	UserID          int64     `json:"user_id" db:"user_id" validate:"required"`
	Content         string    `json:"content" db:"content" validate:"required,min=1,max=2000"`
	IsAnonymous     bool      `json:"is_anonymous" db:"is_anonymous"`
	ParentCommentID *int64    `json:"parent_comment_id,omitempty" db:"parent_comment_id"`
	LikeCount       int       `json:"like_count" db:"like_count"`
	ReplyCount      int       `json:"reply_count" db:"reply_count"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`

	// Joined fields (not columns)
	AuthorNickname *string `json:"nickname,omitempty" db:"-"`
	AuthorImageURL *string `json:"profile_image_url,omitempty" db:"-"`
	UserLiked      bool    `json:"user_liked,omitempty" db:"-"`
}

// IsRoot reports whether the comment is a top-level comment.
func (c *Comment) IsRoot() bool {
	return c.ParentCommentID == nil
}

// CommentNode is a comment with its reply subtree attached, as produced by
// the thread builder. Replies is never nil.
type CommentNode struct {
	*Comment
	IsBest  bool           `json:"is_best"`
	Replies []*CommentNode `json:"replies"`
}

// NotificationType enumerates the social actions that can fan out.
type NotificationType string

const (
	NotificationComment       NotificationType = "comment"
	NotificationReply         NotificationType = "reply"
	NotificationReaction      NotificationType = "reaction"
	NotificationEncouragement NotificationType = "encouragement"
	NotificationChallenge     NotificationType = "challenge"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationComment, NotificationReply, NotificationReaction,
		NotificationEncouragement, NotificationChallenge:
		return true
	}
	return false
}

// Notification is a single per-recipient notification row. SenderID and
// SenderNickname are nil when the triggering action was anonymous.
type Notification struct {
	ID             int64            `json:"notification_id" db:"id"`
	RecipientID    int64            `json:"user_id" db:"user_id"`
	Type           NotificationType `json:"notification_type" db:"notification_type"`
	RelatedID      *int64           `json:"related_id,omitempty" db:"related_id"`
	PostID         *int64           `json:"post_id,omitempty" db:"post_id"`
	SenderID       *int64           `json:"sender_id,omitempty" db:"sender_id"`
	SenderNickname *string          `json:"sender_nickname,omitempty" db:"sender_nickname"`
	Title          string           `json:"title" db:"title"`
	Message        string           `json:"message" db:"message"`
	IsRead         bool             `json:"is_read" db:"is_read"`
	ReadAt         *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// NotificationFilter narrows a recipient's feed walk. A zero value matches
// every row.
type NotificationFilter struct {
	UnreadOnly bool             `json:"unread_only,omitempty"`
	Type       NotificationType `json:"type,omitempty"`
}

// ===============================
// PAGINATION TYPES
// ===============================

// PaginationParams carries the caller's cursor-walk parameters into the
// repository layer. Limit is clamped to [1,100] by the paginator.
type PaginationParams struct {
	Cursor    string `json:"cursor,omitempty"`
	Limit     int    `json:"limit" validate:"min=0,max=100"`
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=next prev"`
	Sort      string `json:"sort,omitempty"`
	Order     string `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
}

// PageInfo is cursor-walk metadata attached to every paginated response.
type PageInfo struct {
	HasNext     bool    `json:"has_next"`
	HasPrev     bool    `json:"has_prev"`
	StartCursor *string `json:"start_cursor"`
	EndCursor   *string `json:"end_cursor"`
	TotalCount  *int64  `json:"total_count,omitempty"`
}

// PaginatedResponse is the generic paginated list envelope.
type PaginatedResponse[T any] struct {
	Items    []T      `json:"items"`
	PageInfo PageInfo `json:"page_info"`
}

// CommentTree is the shaped read-path result for one post's comments: the
// full ranked forest plus the best-comment bucket. Best entries also appear
// in Roots unless the caller asked for deduplicated buckets.
type CommentTree struct {
	Roots      []*CommentNode `json:"roots"`
	Best       []*CommentNode `json:"best"`
	TotalCount int            `json:"total_count"`
	RootCount  int            `json:"root_count"`
	ReplyCount int            `json:"reply_count"`
}
