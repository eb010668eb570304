// file: internal/repositories/notification_repository.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"maumlog/internal/database"
	"maumlog/internal/models"
	"maumlog/internal/pagination"

	"go.uber.org/zap"
)

// notificationRepository implements NotificationRepository
type notificationRepository struct {
	*BaseRepository
}

// NewNotificationRepository creates a new instance of NotificationRepository
func NewNotificationRepository(db *database.Manager, logger *zap.Logger) NotificationRepository {
	return &notificationRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// notificationKeyset is the newest-first feed walk.
var notificationKeyset = pagination.Keyset{
	SortField:     "n.created_at",
	Order:         pagination.OrderDesc,
	TiebreakField: "n.id",
}

// Create inserts one notification row
func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	query := `
		INSERT INTO notifications (
			user_id, notification_type, related_id, post_id,
			sender_id, sender_nickname, title, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_read, created_at`

	err := r.QueryRowContext(
		ctx, query,
		notification.RecipientID, notification.Type,
		notification.RelatedID, notification.PostID,
		notification.SenderID, notification.SenderNickname,
		notification.Title, notification.Message,
	).Scan(&notification.ID, &notification.IsRead, &notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetByID retrieves a notification by ID
func (r *notificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	query := `
		SELECT
			n.id, n.user_id, n.notification_type, n.related_id, n.post_id,
			n.sender_id, n.sender_nickname, n.title, n.message,
			n.is_read, n.read_at, n.created_at
		FROM notifications n
		WHERE n.id = $1`

	var n models.Notification
	err := r.QueryRowContext(ctx, query, id).Scan(
		&n.ID, &n.RecipientID, &n.Type, &n.RelatedID, &n.PostID,
		&n.SenderID, &n.SenderNickname, &n.Title, &n.Message,
		&n.IsRead, &n.ReadAt, &n.CreatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification by ID: %w", err)
	}
	return &n, nil
}

// ListByRecipient walks the recipient's feed newest first and attaches the
// feed's total row count to the page metadata
func (r *notificationRepository) ListByRecipient(ctx context.Context, userID int64, params models.PaginationParams, filter models.NotificationFilter) (*models.PaginatedResponse[*models.Notification], error) {
	where := "n.user_id = $1"
	args := []interface{}{userID}
	if filter.UnreadOnly {
		where += " AND n.is_read = false"
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		where += fmt.Sprintf(" AND n.notification_type = $%d", len(args))
	}

	plan := notificationKeyset.Build(params.Cursor, params.Limit, params.Direction, len(args))
	filterArgs := append([]interface{}(nil), args...)

	query := `
		SELECT
			n.id, n.user_id, n.notification_type, n.related_id, n.post_id,
			n.sender_id, n.sender_nickname, n.title, n.message,
			n.is_read, n.read_at, n.created_at
		FROM notifications n
		WHERE ` + where

	if plan.Predicate != "" {
		query += " AND " + plan.Predicate
		args = append(args, plan.Args...)
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT %d", plan.OrderBy, plan.FetchLimit)

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		err := rows.Scan(
			&n.ID, &n.RecipientID, &n.Type, &n.RelatedID, &n.PostID,
			&n.SenderID, &n.SenderNickname, &n.Title, &n.Message,
			&n.IsRead, &n.ReadAt, &n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	items, pageInfo := pagination.Page(notifications, plan.Limit, params.Cursor != "",
		func(n *models.Notification) (time.Time, int64) { return n.CreatedAt, n.ID })

	total, err := r.GetTotalCount(ctx,
		"SELECT COUNT(*) FROM notifications n WHERE "+where, filterArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	pageInfo.TotalCount = &total

	return &models.PaginatedResponse[*models.Notification]{Items: items, PageInfo: pageInfo}, nil
}

// MarkAsRead marks one notification read, scoped to the recipient
func (r *notificationRepository) MarkAsRead(ctx context.Context, notificationID, userID int64) error {
	result, err := r.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = true, read_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2 AND is_read = false`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	// Already-read rows are a no-op, but a row that is not the recipient's
	// (or does not exist) is an error.
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		var exists bool
		err := r.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM notifications WHERE id = $1 AND user_id = $2)`,
			notificationID, userID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check notification: %w", err)
		}
		if !exists {
			return fmt.Errorf("notification not found")
		}
	}
	return nil
}

// MarkAllAsRead marks every unread notification for the user and returns how
// many rows changed
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID int64) (int64, error) {
	result, err := r.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = true, read_at = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND is_read = false`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

// UnreadCount returns the user's unread notification count
func (r *notificationRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// Delete removes one notification, scoped to the recipient
func (r *notificationRepository) Delete(ctx context.Context, notificationID, userID int64) error {
	result, err := r.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

// DeleteOld removes notifications created before the given time
func (r *notificationRepository) DeleteOld(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.ExecContext(ctx,
		`DELETE FROM notifications WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old notifications: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		r.GetLogger().Info("Old notifications deleted",
			zap.Int64("count", rowsAffected),
			zap.Time("older_than", olderThan),
		)
	}
	return rowsAffected, nil
}
