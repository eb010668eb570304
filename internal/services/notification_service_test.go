package services

import (
	"context"
	"testing"

	"maumlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	users         *fakeUserRepo
	posts         *fakePostRepo
	comments      *fakeCommentRepo
	notifications *fakeNotificationRepo
	notification  NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:         newFakeUserRepo(),
		posts:         newFakePostRepo(),
		comments:      newFakeCommentRepo(),
		notifications: newFakeNotificationRepo(),
	}
	f.posts.comments = f.comments
	f.notification = NewNotificationService(
		f.notifications, f.posts, f.comments, f.users, nil, nil, zap.NewNop(),
	)
	return f
}

func (f *fixture) seedUser(id int64, nickname string, settings models.NotificationSettings) *models.User {
	return f.users.seed(&models.User{ID: id, Nickname: nickname, Notifications: settings})
}

func (f *fixture) seedPost(id, authorID int64) *models.Post {
	return f.posts.seed(&models.Post{
		ID:      id,
		UserID:  authorID,
		Board:   models.BoardMyDay,
		Content: "오늘 하루",
	})
}

func TestDispatchCommentNotifiesPostAuthor(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)

	commentID := int64(100)
	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type:      models.NotificationComment,
		PostID:    10,
		CommentID: &commentID,
		ActorID:   2,
	})

	rows := f.notifications.forRecipient(1)
	require.Len(t, rows, 1)
	assert.Equal(t, models.NotificationComment, rows[0].Type)
	require.NotNil(t, rows[0].SenderID)
	assert.Equal(t, int64(2), *rows[0].SenderID)
	require.NotNil(t, rows[0].SenderNickname)
	assert.Equal(t, "하늘", *rows[0].SenderNickname)
	assert.Contains(t, rows[0].Message, "하늘")
}

func TestDispatchExcludesSelfAction(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedPost(10, 1)

	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type:    models.NotificationComment,
		PostID:  10,
		ActorID: 1, // commenting on own post
	})

	assert.Empty(t, f.notifications.forRecipient(1))
}

func TestDispatchAnonymousMasksActor(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)

	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type:      models.NotificationComment,
		PostID:    10,
		ActorID:   2,
		Anonymous: true,
	})

	rows := f.notifications.forRecipient(1)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].SenderID)
	assert.Nil(t, rows[0].SenderNickname)
	assert.NotContains(t, rows[0].Message, "하늘")
	assert.Contains(t, rows[0].Message, AnonymousLabel)
}

func TestDispatchReplyNotifiesParentAuthorAndPostAuthorOnce(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", nil) // post author
	f.seedUser(2, "하늘", nil) // parent comment author
	f.seedUser(3, "바다", nil) // replier
	f.seedPost(10, 1)
	parent := f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 2, Content: "응원해요"})

	replyID := int64(51)
	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type:            models.NotificationReply,
		PostID:          10,
		CommentID:       &replyID,
		ParentCommentID: &parent.ID,
		ActorID:         3,
	})

	parentRows := f.notifications.forRecipient(2)
	require.Len(t, parentRows, 1)
	assert.Equal(t, models.NotificationReply, parentRows[0].Type)

	postRows := f.notifications.forRecipient(1)
	require.Len(t, postRows, 1)
}

func TestDispatchReplyDedupsWhenParentAuthorIsPostAuthor(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(3, "바다", nil)
	f.seedPost(10, 1)
	parent := f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 1, Content: "첫 댓글"})

	replyID := int64(51)
	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type:            models.NotificationReply,
		PostID:          10,
		CommentID:       &replyID,
		ParentCommentID: &parent.ID,
		ActorID:         3,
	})

	// One row, not one per role.
	rows := f.notifications.forRecipient(1)
	require.Len(t, rows, 1)
	assert.Equal(t, models.NotificationReply, rows[0].Type)
}

func TestDispatchRespectsDisabledPreference(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", models.NotificationSettings{"comment": false})
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)

	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type:    models.NotificationComment,
		PostID:  10,
		ActorID: 2,
	})

	assert.Empty(t, f.notifications.forRecipient(1))
}

func TestDispatchMissingCategoryDefaultsEnabled(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", models.NotificationSettings{"reaction": false})
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)

	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type:    models.NotificationComment,
		PostID:  10,
		ActorID: 2,
	})

	assert.Len(t, f.notifications.forRecipient(1), 1)
}

func TestDispatchSwallowsDeliveryFailure(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)
	f.notifications.failCreate = true

	// Must not panic or surface an error.
	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type:    models.NotificationComment,
		PostID:  10,
		ActorID: 2,
	})

	assert.Empty(t, f.notifications.forRecipient(1))
}

func TestDispatchReactionOnCommentNotifiesCommentAuthor(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedUser(3, "바다", nil)
	f.seedPost(10, 1)
	comment := f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 2, Content: "좋아요"})

	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type:      models.NotificationReaction,
		PostID:    10,
		CommentID: &comment.ID,
		ActorID:   3,
	})

	assert.Empty(t, f.notifications.forRecipient(1))
	rows := f.notifications.forRecipient(2)
	require.Len(t, rows, 1)
	assert.Equal(t, models.NotificationReaction, rows[0].Type)
}

func TestDispatchEncouragementCarriesMessage(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)

	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type:    models.NotificationEncouragement,
		PostID:  10,
		ActorID: 2,
		Message: "힘내세요!",
	})

	rows := f.notifications.forRecipient(1)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Message, "힘내세요!")
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)

	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type:    models.NotificationComment,
		PostID:  10,
		ActorID: 2,
	})
	rows := f.notifications.forRecipient(1)
	require.Len(t, rows, 1)

	// The wrong user cannot mark it read.
	err := f.notification.MarkRead(context.Background(), rows[0].ID, 2)
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))

	require.NoError(t, f.notification.MarkRead(context.Background(), rows[0].ID, 1))

	count, err := f.notification.UnreadCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAllReadReturnsChangedRows(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)

	for i := 0; i < 3; i++ {
		f.notification.Dispatch(context.Background(), &ActionEvent{
			Type:    models.NotificationComment,
			PostID:  10,
			ActorID: 2,
		})
	}

	marked, err := f.notification.MarkAllRead(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)

	// Idempotent: a second pass changes nothing.
	marked, err = f.notification.MarkAllRead(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestListNotificationsTypeFilter(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)

	commentID := int64(100)
	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type: models.NotificationComment, PostID: 10, CommentID: &commentID, ActorID: 2,
	})
	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type: models.NotificationEncouragement, PostID: 10, ActorID: 2, Message: "힘내세요",
	})

	page, err := f.notification.ListNotifications(context.Background(), &ListNotificationsRequest{
		UserID: 1,
		Filter: models.NotificationFilter{Type: models.NotificationEncouragement},
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, models.NotificationEncouragement, page.Items[0].Type)

	_, err = f.notification.ListNotifications(context.Background(), &ListNotificationsRequest{
		UserID: 1,
		Filter: models.NotificationFilter{Type: models.NotificationType("spam")},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestDeleteNotificationScopedToRecipient(t *testing.T) {
	f := newFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)

	commentID := int64(100)
	f.notification.Dispatch(context.Background(), &ActionEvent{
		Type: models.NotificationComment, PostID: 10, CommentID: &commentID, ActorID: 2,
	})
	rows := f.notifications.forRecipient(1)
	require.Len(t, rows, 1)

	err := f.notification.DeleteNotification(context.Background(), rows[0].ID, 2)
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))

	require.NoError(t, f.notification.DeleteNotification(context.Background(), rows[0].ID, 1))
	assert.Empty(t, f.notifications.forRecipient(1))
}
