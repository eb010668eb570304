// file: internal/repositories/user_repository.go
package repositories

import (
	"context"
	"fmt"
	"strings"

	"maumlog/internal/database"
	"maumlog/internal/models"

	"go.uber.org/zap"
)

// userRepository implements UserRepository with high-performance patterns
type userRepository struct {
	*BaseRepository
}

// NewUserRepository creates a new optimized user repository
func NewUserRepository(db *database.Manager, logger *zap.Logger) UserRepository {
	return &userRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

// ===============================
// BASIC CRUD OPERATIONS
// ===============================

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (nickname, profile_image_url, notification_settings)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.QueryRowContext(
		ctx, query,
		user.Nickname, user.ProfileImageURL, user.Notifications,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		r.GetLogger().Error("Failed to create user",
			zap.Error(err),
			zap.String("nickname", user.Nickname),
		)
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, nickname, profile_image_url, notification_settings, created_at
		FROM users WHERE id = $1`

	var user models.User
	err := r.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Nickname, &user.ProfileImageURL,
		&user.Notifications, &user.CreatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

// GetByIDs retrieves multiple users in one round trip
func (r *userRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, nickname, profile_image_url, notification_settings, created_at
		FROM users WHERE id IN (%s)`, strings.Join(placeholders, ", "))

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by IDs: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID, &user.Nickname, &user.ProfileImageURL,
			&user.Notifications, &user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

// GetByNickname retrieves a user by their unique nickname
func (r *userRepository) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	query := `
		SELECT id, nickname, profile_image_url, notification_settings, created_at
		FROM users WHERE nickname = $1`

	var user models.User
	err := r.QueryRowContext(ctx, query, nickname).Scan(
		&user.ID, &user.Nickname, &user.ProfileImageURL,
		&user.Notifications, &user.CreatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by nickname: %w", err)
	}
	return &user, nil
}

// UpdateNotificationSettings replaces the user's notification preference map
func (r *userRepository) UpdateNotificationSettings(ctx context.Context, userID int64, settings models.NotificationSettings) error {
	result, err := r.ExecContext(ctx,
		`UPDATE users SET notification_settings = $2 WHERE id = $1`,
		userID, settings,
	)
	if err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

// Delete removes a user
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}
