// ===============================
// FILE: internal/services/notification_service.go
// ===============================

package services

import (
	"context"
	"fmt"

	"maumlog/internal/events"
	"maumlog/internal/models"
	"maumlog/internal/repositories"

	"go.uber.org/zap"
)

// AnonymousLabel is the display name used when the acting user chose to stay
// anonymous.
const AnonymousLabel = "익명 사용자"

// notificationService implements NotificationService
type notificationService struct {
	notificationRepo repositories.NotificationRepository
	postRepo         repositories.PostRepository
	commentRepo      repositories.CommentRepository
	userRepo         repositories.UserRepository
	cache            CacheService
	events           events.EventBus
	logger           *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	postRepo repositories.PostRepository,
	commentRepo repositories.CommentRepository,
	userRepo repositories.UserRepository,
	cache CacheService,
	eventBus events.EventBus,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		postRepo:         postRepo,
		commentRepo:      commentRepo,
		userRepo:         userRepo,
		cache:            cache,
		events:           eventBus,
		logger:           logger,
	}
}

// ===============================
// FAN-OUT
// ===============================

// delivery is one resolved recipient for an action.
type delivery struct {
	recipientID int64
	title       string
	message     string
}

// Dispatch resolves the recipients for one committed action and inserts their
// notification rows. Every failure is logged and swallowed: a notification
// must never undo or block the action that triggered it.
func (s *notificationService) Dispatch(ctx context.Context, event *ActionEvent) {
	if event == nil || !event.Type.Valid() {
		return
	}

	deliveries, err := s.resolve(ctx, event)
	if err != nil {
		s.logger.Warn("Notification fan-out skipped",
			zap.String("type", string(event.Type)),
			zap.Int64("post_id", event.PostID),
			zap.Error(err),
		)
		return
	}

	for _, d := range deliveries {
		notification := &models.Notification{
			RecipientID: d.recipientID,
			Type:        event.Type,
			RelatedID:   event.CommentID,
			PostID:      &event.PostID,
			Title:       d.title,
			Message:     d.message,
		}
		// Anonymity masking: the stored row must not identify the actor.
		if !event.Anonymous {
			actorID := event.ActorID
			notification.SenderID = &actorID
			if nickname := s.actorNickname(ctx, event.ActorID); nickname != "" {
				notification.SenderNickname = &nickname
			}
		}

		if err := s.notificationRepo.Create(ctx, notification); err != nil {
			s.logger.Warn("Notification delivery failed",
				zap.String("type", string(event.Type)),
				zap.Int64("recipient_id", d.recipientID),
				zap.Error(err),
			)
			continue
		}

		if s.cache != nil {
			s.cache.InvalidateUnreadCount(ctx, d.recipientID)
		}
		if s.events != nil {
			_ = s.events.PublishAsync(ctx, events.NewNotificationDispatchedEvent(
				notification.ID, d.recipientID, string(event.Type), notification.PostID,
			))
		}
	}
}

// resolve applies the recipient rules: the post author hears about actions on
// their post unless they acted themselves; on replies the parent comment
// author hears too, unless they are the actor or already covered as the post
// author.
func (s *notificationService) resolve(ctx context.Context, event *ActionEvent) ([]delivery, error) {
	post, err := s.postRepo.GetByID(ctx, event.PostID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if post == nil {
		return nil, fmt.Errorf("post %d not found", event.PostID)
	}

	actorName := AnonymousLabel
	if !event.Anonymous {
		if nickname := s.actorNickname(ctx, event.ActorID); nickname != "" {
			actorName = nickname
		}
	}

	var deliveries []delivery

	switch event.Type {
	case models.NotificationComment:
		if post.UserID != event.ActorID {
			deliveries = append(deliveries, delivery{
				recipientID: post.UserID,
				title:       "새 댓글",
				message:     fmt.Sprintf("%s님이 회원님의 게시글에 댓글을 남겼습니다.", actorName),
			})
		}

	case models.NotificationReply:
		var parentAuthorID int64 = -1
		if event.ParentCommentID != nil {
			parent, err := s.commentRepo.GetByID(ctx, *event.ParentCommentID)
			if err != nil {
				return nil, fmt.Errorf("failed to load parent comment: %w", err)
			}
			if parent != nil {
				parentAuthorID = parent.UserID
			}
		}
		if parentAuthorID > 0 && parentAuthorID != event.ActorID {
			deliveries = append(deliveries, delivery{
				recipientID: parentAuthorID,
				title:       "새 답글",
				message:     fmt.Sprintf("%s님이 회원님의 댓글에 답글을 남겼습니다.", actorName),
			})
		}
		// The post author hears about the reply too, once.
		if post.UserID != event.ActorID && post.UserID != parentAuthorID {
			deliveries = append(deliveries, delivery{
				recipientID: post.UserID,
				title:       "새 댓글",
				message:     fmt.Sprintf("%s님이 회원님의 게시글에 댓글을 남겼습니다.", actorName),
			})
		}

	case models.NotificationReaction:
		recipientID := post.UserID
		message := fmt.Sprintf("%s님이 회원님의 게시글을 좋아합니다.", actorName)
		if event.CommentID != nil {
			comment, err := s.commentRepo.GetByID(ctx, *event.CommentID)
			if err != nil {
				return nil, fmt.Errorf("failed to load comment: %w", err)
			}
			if comment == nil {
				return nil, fmt.Errorf("comment %d not found", *event.CommentID)
			}
			recipientID = comment.UserID
			message = fmt.Sprintf("%s님이 회원님의 댓글을 좋아합니다.", actorName)
		}
		if recipientID != event.ActorID {
			deliveries = append(deliveries, delivery{
				recipientID: recipientID,
				title:       "좋아요",
				message:     message,
			})
		}

	case models.NotificationEncouragement:
		if post.UserID != event.ActorID {
			message := fmt.Sprintf("%s님이 회원님을 응원합니다.", actorName)
			if event.Message != "" {
				message = fmt.Sprintf("%s님의 응원: %s", actorName, event.Message)
			}
			deliveries = append(deliveries, delivery{
				recipientID: post.UserID,
				title:       "응원",
				message:     message,
			})
		}

	case models.NotificationChallenge:
		if post.UserID != event.ActorID {
			deliveries = append(deliveries, delivery{
				recipientID: post.UserID,
				title:       "챌린지",
				message:     fmt.Sprintf("%s님이 회원님의 챌린지에 참여했습니다.", actorName),
			})
		}
	}

	return s.filterByPreference(ctx, event.Type, deliveries), nil
}

// filterByPreference drops recipients who explicitly disabled the category.
// A missing user or unreadable settings row fails open: the notification is
// still delivered.
func (s *notificationService) filterByPreference(ctx context.Context, t models.NotificationType, deliveries []delivery) []delivery {
	kept := deliveries[:0]
	for _, d := range deliveries {
		user, err := s.userRepo.GetByID(ctx, d.recipientID)
		if err != nil {
			s.logger.Warn("Failed to load notification preferences",
				zap.Int64("user_id", d.recipientID),
				zap.Error(err),
			)
			kept = append(kept, d)
			continue
		}
		if user == nil {
			continue
		}
		if user.Notifications.Enabled(string(t)) {
			kept = append(kept, d)
		}
	}
	return kept
}

func (s *notificationService) actorNickname(ctx context.Context, actorID int64) string {
	user, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil || user == nil {
		return ""
	}
	return user.Nickname
}

// ===============================
// FEED OPERATIONS
// ===============================

// ListNotifications walks the user's feed newest first
func (s *notificationService) ListNotifications(ctx context.Context, req *ListNotificationsRequest) (*models.PaginatedResponse[*models.Notification], error) {
	if req.UserID <= 0 {
		return nil, InvalidInputError("user_id", "must be a positive ID")
	}

	if req.Filter.Type != "" && !req.Filter.Type.Valid() {
		return nil, InvalidInputError("type", "unknown notification type")
	}

	page, err := s.notificationRepo.ListByRecipient(ctx, req.UserID, req.Params, req.Filter)
	if err != nil {
		return nil, NewInternalError("failed to list notifications")
	}
	return page, nil
}

// MarkRead marks one notification read for its recipient
func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID int64) error {
	if err := s.notificationRepo.MarkAsRead(ctx, notificationID, userID); err != nil {
		return EntityNotFoundError("notification", notificationID)
	}
	if s.cache != nil {
		s.cache.InvalidateUnreadCount(ctx, userID)
	}
	return nil
}

// MarkAllRead marks the user's whole feed read and returns how many rows
// changed
func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	updated, err := s.notificationRepo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, NewInternalError("failed to mark notifications read")
	}
	if s.cache != nil {
		s.cache.InvalidateUnreadCount(ctx, userID)
	}
	return updated, nil
}

// DeleteNotification removes one notification for its recipient
func (s *notificationService) DeleteNotification(ctx context.Context, notificationID, userID int64) error {
	if err := s.notificationRepo.Delete(ctx, notificationID, userID); err != nil {
		return EntityNotFoundError("notification", notificationID)
	}
	if s.cache != nil {
		s.cache.InvalidateUnreadCount(ctx, userID)
	}
	return nil
}

// UnreadCount returns the user's unread badge count, cached on the hot path
func (s *notificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	if s.cache != nil {
		if count, ok := s.cache.GetUnreadCount(ctx, userID); ok {
			return count, nil
		}
	}

	count, err := s.notificationRepo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, NewInternalError("failed to count unread notifications")
	}

	if s.cache != nil {
		s.cache.SetUnreadCount(ctx, userID, count)
	}
	return count, nil
}
