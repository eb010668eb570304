package services

import (
	"context"
	"testing"

	"maumlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newReconcilerFixture(t *testing.T) (*fixture, ReconcilerService) {
	t.Helper()
	f := newFixture(t)
	svc := NewReconcilerService(f.posts, f.comments, nil, zap.NewNop())
	return f, svc
}

func TestReconcilePostCorrectsDrift(t *testing.T) {
	f, svc := newReconcilerFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedPost(10, 1)
	f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 1, Content: "하나"})
	f.comments.seed(&models.Comment{ID: 51, PostID: 10, UserID: 1, Content: "둘"})
	_, _, err := f.posts.ToggleLike(context.Background(), 10, 1)
	require.NoError(t, err)

	// Force the cached columns out of step.
	f.posts.drift(10, 7, 0)

	result, err := svc.ReconcilePost(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CommentCount)
	assert.Equal(t, 1, result.LikeCount)
	assert.True(t, result.CommentCorrected)
	assert.True(t, result.LikeCorrected)
}

func TestReconcilePostIdempotent(t *testing.T) {
	f, svc := newReconcilerFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedPost(10, 1)
	f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 1, Content: "하나"})
	f.posts.drift(10, 9, 3)

	first, err := svc.ReconcilePost(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, first.CommentCorrected)

	second, err := svc.ReconcilePost(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, second.CommentCorrected)
	assert.False(t, second.LikeCorrected)
	assert.Equal(t, first.CommentCount, second.CommentCount)
	assert.Equal(t, first.LikeCount, second.LikeCount)
}

func TestReconcilePostUnknownPost(t *testing.T) {
	_, svc := newReconcilerFixture(t)

	_, err := svc.ReconcilePost(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestReconcileCommentLikes(t *testing.T) {
	f, svc := newReconcilerFixture(t)
	f.seedUser(1, "지민", nil)
	f.seedPost(10, 1)
	comment := f.comments.seed(&models.Comment{ID: 50, PostID: 10, UserID: 1, Content: "댓글", LikeCount: 5})

	count, corrected, err := svc.ReconcileCommentLikes(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.True(t, corrected)

	count, corrected, err = svc.ReconcileCommentLikes(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.False(t, corrected)
}
