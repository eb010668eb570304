package services

import (
	"context"
	"strings"
	"testing"

	"maumlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserFixture(t *testing.T) (*fixture, UserService) {
	t.Helper()
	f := newFixture(t)
	svc := NewUserService(f.users, zap.NewNop())
	return f, svc
}

func TestCreateUserTrimsAndValidatesNickname(t *testing.T) {
	_, svc := newUserFixture(t)

	_, err := svc.CreateUser(context.Background(), &CreateUserRequest{Nickname: " a "})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	user, err := svc.CreateUser(context.Background(), &CreateUserRequest{Nickname: "  지민  "})
	require.NoError(t, err)
	assert.Equal(t, "지민", user.Nickname)
	assert.NotZero(t, user.ID)
}

func TestCreateUserNicknameBoundsCountRunes(t *testing.T) {
	_, svc := newUserFixture(t)

	// 30 Hangul characters is 90 bytes; a byte-length bound would reject it.
	long := strings.Repeat("가", 30)
	user, err := svc.CreateUser(context.Background(), &CreateUserRequest{Nickname: long})
	require.NoError(t, err)
	assert.Equal(t, long, user.Nickname)

	_, err = svc.CreateUser(context.Background(), &CreateUserRequest{Nickname: strings.Repeat("가", 31)})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	// Two Hangul characters sit on the lower bound.
	user, err = svc.CreateUser(context.Background(), &CreateUserRequest{Nickname: "하늘"})
	require.NoError(t, err)
	assert.Equal(t, "하늘", user.Nickname)
}

func TestCreateUserRejectsDuplicateNickname(t *testing.T) {
	_, svc := newUserFixture(t)

	_, err := svc.CreateUser(context.Background(), &CreateUserRequest{Nickname: "지민"})
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), &CreateUserRequest{Nickname: "지민"})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, "CONFLICT"))
}

func TestUpdateNotificationSettingsRoundTrip(t *testing.T) {
	f, svc := newUserFixture(t)
	f.seedUser(1, "지민", nil)

	settings := models.NotificationSettings{"comment": false, "reaction": true}
	require.NoError(t, svc.UpdateNotificationSettings(context.Background(), 1, settings))

	user, err := svc.GetUserByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, user.Notifications.Enabled("comment"))
	assert.True(t, user.Notifications.Enabled("reaction"))
	assert.True(t, user.Notifications.Enabled("encouragement"), "unset categories stay enabled")
}

func TestDeleteUserUnknownIsNotFound(t *testing.T) {
	_, svc := newUserFixture(t)

	err := svc.DeleteUser(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}
