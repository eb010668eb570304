package services

import (
	"context"
	"testing"

	"maumlog/internal/models"
	"maumlog/internal/thread"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCommentFixture(t *testing.T) (*fixture, CommentService) {
	t.Helper()
	f := newFixture(t)
	svc := NewCommentService(f.comments, f.posts, f.notification, nil, zap.NewNop(), nil)
	return f, svc
}

func TestCreateCommentRejectsEmptyContent(t *testing.T) {
	f, svc := newCommentFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedPost(10, 1)

	_, err := svc.CreateComment(context.Background(), &CreateCommentRequest{
		PostID:  10,
		UserID:  1,
		Content: "   ",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestCreateCommentUnknownPost(t *testing.T) {
	_, svc := newCommentFixture(t)

	_, err := svc.CreateComment(context.Background(), &CreateCommentRequest{
		PostID:  999,
		UserID:  1,
		Content: "안녕하세요",
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestCreateCommentCrossPostParentFallsBackToRoot(t *testing.T) {
	f, svc := newCommentFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)
	f.seedPost(11, 1)
	other := f.comments.seed(&models.Comment{ID: 50, PostID: 11, UserID: 2, Content: "다른 글"})

	comment, err := svc.CreateComment(context.Background(), &CreateCommentRequest{
		PostID:          10,
		UserID:          2,
		Content:         "답글인가요",
		ParentCommentID: &other.ID,
	})
	require.NoError(t, err)
	assert.Nil(t, comment.ParentCommentID, "cross-post parent must be dropped")
}

func TestCreateCommentReplyFansOutOnce(t *testing.T) {
	f, svc := newCommentFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)
	parent := f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 1, Content: "첫 댓글"})

	_, err := svc.CreateComment(context.Background(), &CreateCommentRequest{
		PostID:          10,
		UserID:          2,
		Content:         "답글입니다",
		ParentCommentID: &parent.ID,
	})
	require.NoError(t, err)

	// Post author and parent author are the same user: exactly one row.
	rows := f.notifications.forRecipient(1)
	require.Len(t, rows, 1)
	assert.Equal(t, models.NotificationReply, rows[0].Type)
}

func TestUpdateCommentOwnerOnly(t *testing.T) {
	f, svc := newCommentFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)
	comment := f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 1, Content: "원본"})

	_, err := svc.UpdateComment(context.Background(), &UpdateCommentRequest{
		CommentID: comment.ID,
		UserID:    2,
		Content:   "수정 시도",
	})
	require.Error(t, err)
	assert.True(t, IsErrorType(err, "FORBIDDEN"))

	updated, err := svc.UpdateComment(context.Background(), &UpdateCommentRequest{
		CommentID: comment.ID,
		UserID:    1,
		Content:   "수정 완료",
	})
	require.NoError(t, err)
	assert.Equal(t, "수정 완료", updated.Content)
}

func TestDeleteCommentCascadesReplies(t *testing.T) {
	f, svc := newCommentFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedPost(10, 1)
	root := f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 1, Content: "루트"})
	f.comments.seed(&models.Comment{ID: 51, PostID: 10, UserID: 1, Content: "답글", ParentCommentID: &root.ID})

	require.NoError(t, svc.DeleteComment(context.Background(), root.ID, 1))

	count, err := f.comments.CountByPostID(context.Background(), 10)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetCommentTreeRankedWithBestBucket(t *testing.T) {
	f, svc := newCommentFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedPost(10, 1)

	popular := f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 1, Content: "인기", LikeCount: thread.DefaultBestMinLikes + 2})
	f.comments.seed(&models.Comment{ID: 51, PostID: 10, UserID: 1, Content: "보통", LikeCount: 0})
	f.comments.seed(&models.Comment{ID: 52, PostID: 10, UserID: 1, Content: "답글", ParentCommentID: &popular.ID})

	tree, err := svc.GetCommentTree(context.Background(), &CommentTreeRequest{
		PostID: 10,
		Sort:   thread.SortRanked,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, tree.TotalCount)
	assert.Equal(t, 2, tree.RootCount)
	assert.Equal(t, 1, tree.ReplyCount)
	require.NotEmpty(t, tree.Roots)
	assert.Equal(t, popular.ID, tree.Roots[0].ID, "ranked order puts the liked root first")

	require.Len(t, tree.Best, 1)
	assert.Equal(t, popular.ID, tree.Best[0].ID)
	// Without split_best the best comment still appears among the roots.
	assert.Len(t, tree.Roots, 2)
}

func TestGetCommentTreeSplitBestRemovesFromRoots(t *testing.T) {
	f, svc := newCommentFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedPost(10, 1)

	popular := f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 1, Content: "인기", LikeCount: thread.DefaultBestMinLikes + 2})
	f.comments.seed(&models.Comment{ID: 51, PostID: 10, UserID: 1, Content: "보통", LikeCount: 0})

	tree, err := svc.GetCommentTree(context.Background(), &CommentTreeRequest{
		PostID:    10,
		Sort:      thread.SortRanked,
		SplitBest: true,
	})
	require.NoError(t, err)

	require.Len(t, tree.Best, 1)
	assert.Equal(t, popular.ID, tree.Best[0].ID)
	require.Len(t, tree.Roots, 1)
	assert.NotEqual(t, popular.ID, tree.Roots[0].ID)
}

func TestToggleCommentLikeNotifiesOnLikeEdgeOnly(t *testing.T) {
	f, svc := newCommentFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedUser(2, "하늘", nil)
	f.seedPost(10, 1)
	comment := f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 1, Content: "댓글"})

	result, err := svc.ToggleLike(context.Background(), comment.ID, 2)
	require.NoError(t, err)
	assert.True(t, result.Liked)
	assert.Equal(t, 1, result.LikeCount)
	assert.Len(t, f.notifications.forRecipient(1), 1)

	// Unlike: no second notification.
	result, err = svc.ToggleLike(context.Background(), comment.ID, 2)
	require.NoError(t, err)
	assert.False(t, result.Liked)
	assert.Zero(t, result.LikeCount)
	assert.Len(t, f.notifications.forRecipient(1), 1)
}

func TestGetCommentTreeRepairsDriftedCommentCount(t *testing.T) {
	f, svc := newCommentFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedPost(10, 1)
	f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 1, Content: "첫 댓글"})
	f.comments.seed(&models.Comment{ID: 51, PostID: 10, UserID: 1, Content: "둘째 댓글"})
	f.posts.drift(10, 7, 0)

	tree, err := svc.GetCommentTree(context.Background(), &CommentTreeRequest{PostID: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, tree.TotalCount)

	post, err := f.posts.GetByID(context.Background(), 10, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, post.CommentCount, "stale counter should be repaired on read")
}
