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

func newPostFixture(t *testing.T) (*fixture, PostService) {
	t.Helper()
	f := newFixture(t)
	svc := NewPostService(f.posts, f.notification, nil, zap.NewNop(), nil)
	return f, svc
}

func strPtr(s string) *string { return &s }

func TestCreatePostComfortWallRequiresTitle(t *testing.T) {
	f, svc := newPostFixture(t)
	f.seedUser(1, "지민", nil)

	content := "요즘 계속 마음이 무거워서 누군가의 위로가 간절히 필요해요"

	_, err := svc.CreatePost(context.Background(), &CreatePostRequest{
		UserID:  1,
		Board:   models.BoardComfortWall,
		Content: content,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	post, err := svc.CreatePost(context.Background(), &CreatePostRequest{
		UserID:  1,
		Board:   models.BoardComfortWall,
		Title:   strPtr("  오늘 너무 힘들어요  "),
		Content: content,
	})
	require.NoError(t, err)
	require.NotNil(t, post.Title)
	assert.Equal(t, "오늘 너무 힘들어요", *post.Title)
}

func TestCreatePostMyDayIgnoresTitle(t *testing.T) {
	f, svc := newPostFixture(t)
	f.seedUser(1, "지민", nil)

	post, err := svc.CreatePost(context.Background(), &CreatePostRequest{
		UserID:  1,
		Board:   models.BoardMyDay,
		Title:   strPtr("무시되는 제목"),
		Content: "오늘 하루 기록",
	})
	require.NoError(t, err)
	assert.Nil(t, post.Title)
}

func TestCreatePostRejectsUnknownBoard(t *testing.T) {
	_, svc := newPostFixture(t)

	_, err := svc.CreatePost(context.Background(), &CreatePostRequest{
		UserID:  1,
		Board:   models.Board("free_board"),
		Content: "아무 글",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestCreatePostEnforcesBoardContentBounds(t *testing.T) {
	_, svc := newPostFixture(t)

	cases := []struct {
		name    string
		board   models.Board
		title   *string
		content string
	}{
		{"my day over limit", models.BoardMyDay, nil, strings.Repeat("가", 1001)},
		{"comfort wall too short", models.BoardComfortWall, strPtr("위로받고 싶은 밤"), "너무 짧은 글"},
		{"comfort wall over limit", models.BoardComfortWall, strPtr("위로받고 싶은 밤"), strings.Repeat("가", 2001)},
		{"comfort wall title too short", models.BoardComfortWall, strPtr("하루"), strings.Repeat("가", 30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreatePost(context.Background(), &CreatePostRequest{
				UserID:  1,
				Board:   tc.board,
				Title:   tc.title,
				Content: tc.content,
			})
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}

	post, err := svc.CreatePost(context.Background(), &CreatePostRequest{
		UserID:  1,
		Board:   models.BoardMyDay,
		Content: strings.Repeat("가", 1000),
	})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
}

func TestUpdatePostOwnerOnly(t *testing.T) {
	f, svc := newPostFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	post := f.seedPost(10, 1)

	_, err := svc.UpdatePost(context.Background(), &UpdatePostRequest{
		PostID:  post.ID,
		UserID:  2,
		Content: "남의 글 수정",
	})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, "FORBIDDEN"))
}

func TestToggleLikeNotifiesAuthorOnLikeEdgeOnly(t *testing.T) {
	f, svc := newPostFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)

	result, err := svc.ToggleLike(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.LikeCount)
	assert.Len(t, f.notifications.forRecipient(1), 1)

	result, err = svc.ToggleLike(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.Zero(t, result.LikeCount)
	assert.Len(t, f.notifications.forRecipient(1), 1, "unlike must not notify")
}

func TestToggleLikeSelfDoesNotNotify(t *testing.T) {
	f, svc := newPostFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedPost(10, 1)

	result, err := svc.ToggleLike(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Empty(t, f.notifications.forRecipient(1))
}

func TestSendEncouragementDeliversToAuthor(t *testing.T) {
	f, svc := newPostFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)

	err := svc.SendEncouragement(context.Background(), &EncouragementRequest{
		PostID:  10,
		ActorID: 2,
		Message: "응원합니다",
	})
	require.NoError(t, err)

	rows := f.notifications.forRecipient(1)
	require.Len(t, rows, 1)
	assert.Equal(t, models.NotificationEncouragement, rows[0].Type)
	assert.Contains(t, rows[0].Message, "응원합니다")
}

func TestSendEncouragementAnonymousMasksSender(t *testing.T) {
	f, svc := newPostFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)

	err := svc.SendEncouragement(context.Background(), &EncouragementRequest{
		PostID:      10,
		ActorID:     2,
		Message:     "힘내세요",
		IsAnonymous: true,
	})
	require.NoError(t, err)

	rows := f.notifications.forRecipient(1)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].SenderID, "anonymous cheer must not expose the sender ID")
	assert.Nil(t, rows[0].SenderNickname)
	assert.Contains(t, rows[0].Message, AnonymousLabel)
}

func TestSendEncouragementToOwnPostIsNoOp(t *testing.T) {
	f, svc := newPostFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedPost(10, 1)

	err := svc.SendEncouragement(context.Background(), &EncouragementRequest{
		PostID:  10,
		ActorID: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, f.notifications.forRecipient(1))
}

func TestListBoardRejectsUnknownBoard(t *testing.T) {
	_, svc := newPostFixture(t)

	_, err := svc.ListBoard(context.Background(), &ListBoardRequest{
		Board: models.Board("everything"),
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}
