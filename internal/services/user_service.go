// ===============================
// FILE: internal/services/user_service.go
// ===============================

package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"maumlog/internal/models"
	"maumlog/internal/repositories"

	"go.uber.org/zap"
)

// userService implements UserService
type userService struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// CreateUser registers a new account
func (s *userService) CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	nickname := strings.TrimSpace(req.Nickname)
	// Rune count, not bytes: Hangul nicknames are three bytes per character.
	if n := utf8.RuneCountInString(nickname); n < 2 || n > 30 {
		return nil, InvalidInputError("nickname", "must be between 2 and 30 characters")
	}

	existing, err := s.userRepo.GetByNickname(ctx, nickname)
	if err != nil {
		return nil, NewInternalError("failed to check nickname")
	}
	if existing != nil {
		return nil, NewConflictError("nickname already taken", "NICKNAME_TAKEN")
	}

	user := &models.User{
		Nickname:        nickname,
		ProfileImageURL: req.ProfileImageURL,
		Notifications:   req.Notifications,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, NewInternalError("failed to create user")
	}

	s.logger.Info("User created",
		zap.Int64("user_id", user.ID),
		zap.String("nickname", user.Nickname),
	)
	return user, nil
}

// GetUserByID retrieves a user
func (s *userService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, NewInternalError("failed to get user")
	}
	if user == nil {
		return nil, EntityNotFoundError("user", id)
	}
	return user, nil
}

// GetUserByNickname retrieves a user by their unique nickname
func (s *userService) GetUserByNickname(ctx context.Context, nickname string) (*models.User, error) {
	user, err := s.userRepo.GetByNickname(ctx, nickname)
	if err != nil {
		return nil, NewInternalError("failed to get user")
	}
	if user == nil {
		return nil, EntityNotFoundError("user", nickname)
	}
	return user, nil
}

// UpdateNotificationSettings replaces the user's preference map
func (s *userService) UpdateNotificationSettings(ctx context.Context, userID int64, settings models.NotificationSettings) error {
	if err := s.userRepo.UpdateNotificationSettings(ctx, userID, settings); err != nil {
		return EntityNotFoundError("user", userID)
	}
	return nil
}

// DeleteUser removes an account
func (s *userService) DeleteUser(ctx context.Context, userID int64) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return EntityNotFoundError("user", userID)
	}
	s.logger.Info("User deleted", zap.Int64("user_id", userID))
	return nil
}
