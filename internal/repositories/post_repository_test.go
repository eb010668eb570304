package repositories

import (
	"testing"

	"maumlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimTopPageOverfetch(t *testing.T) {
	posts := []*models.Post{
		{ID: 3, LikeCount: 9},
		{ID: 1, LikeCount: 5},
		{ID: 2, LikeCount: 2},
	}

	items, info := trimTopPage(posts, 2)
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].ID)
	assert.True(t, info.HasNext)
	assert.False(t, info.HasPrev)

	// The popular ranking never hands out resume tokens.
	assert.Nil(t, info.StartCursor)
	assert.Nil(t, info.EndCursor)
}

func TestTrimTopPageExactFit(t *testing.T) {
	posts := []*models.Post{{ID: 1}, {ID: 2}}

	items, info := trimTopPage(posts, 2)
	assert.Len(t, items, 2)
	assert.False(t, info.HasNext)
}

func TestPopularOrderRanksByLikesThenRecency(t *testing.T) {
	assert.Equal(t, "p.like_count DESC, p.created_at DESC, p.id DESC", popularOrderBy)
}
