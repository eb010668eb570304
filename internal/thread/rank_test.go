package thread

import (
	"testing"
	"time"

	"maumlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortForestRankedOrder(t *testing.T) {
	t1 := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	rows := []*models.Comment{
		comment(1, nil, 5, t1),
		comment(2, nil, 5, t2),
		comment(3, nil, 3, t3),
	}

	result := BuildForest(rows)
	SortForest(result.Roots, SortRanked)

	require.Len(t, result.Roots, 3)
	// Equal like counts break ties by recency, newest first.
	assert.Equal(t, int64(2), result.Roots[0].ID)
	assert.Equal(t, int64(1), result.Roots[1].ID)
	assert.Equal(t, int64(3), result.Roots[2].ID)
}

func TestSortForestChronological(t *testing.T) {
	t1 := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	rows := []*models.Comment{
		comment(1, nil, 5, t1.Add(2*time.Hour)),
		comment(2, nil, 9, t1),
		comment(3, nil, 1, t1.Add(time.Hour)),
	}

	result := BuildForest(rows)
	SortForest(result.Roots, SortChronological)

	assert.Equal(t, int64(2), result.Roots[0].ID)
	assert.Equal(t, int64(3), result.Roots[1].ID)
	assert.Equal(t, int64(1), result.Roots[2].ID)
}

func TestSortForestSortsRepliesRecursively(t *testing.T) {
	t1 := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	rows := []*models.Comment{
		comment(1, nil, 0, t1),
		comment(2, ptr(1), 1, t1.Add(time.Minute)),
		comment(3, ptr(1), 7, t1.Add(2*time.Minute)),
		comment(4, ptr(3), 0, t1.Add(4*time.Minute)),
		comment(5, ptr(3), 2, t1.Add(3*time.Minute)),
	}

	result := BuildForest(rows)
	SortForest(result.Roots, SortRanked)

	root := result.Roots[0]
	require.Len(t, root.Replies, 2)
	assert.Equal(t, int64(3), root.Replies[0].ID)
	assert.Equal(t, int64(2), root.Replies[1].ID)

	nested := root.Replies[0].Replies
	require.Len(t, nested, 2)
	assert.Equal(t, int64(5), nested[0].ID)
	assert.Equal(t, int64(4), nested[1].ID)
}

func TestSelectBestTopThreeWithLikes(t *testing.T) {
	t1 := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	var rows []*models.Comment
	for i, likes := range []int{0, 1, 2, 3, 4} {
		rows = append(rows, comment(int64(i+1), nil, likes, t1.Add(time.Duration(i)*time.Minute)))
	}

	result := BuildForest(rows)
	best := SelectBest(result.Roots, DefaultBestMax, DefaultBestMinLikes)

	require.Len(t, best, 3)
	assert.Equal(t, 4, best[0].LikeCount)
	assert.Equal(t, 3, best[1].LikeCount)
	assert.Equal(t, 2, best[2].LikeCount)
	for _, n := range best {
		assert.True(t, n.IsBest)
		assert.Positive(t, n.LikeCount)
	}
}

func TestSelectBestIgnoresReplies(t *testing.T) {
	t1 := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	rows := []*models.Comment{
		comment(1, nil, 1, t1),
		comment(2, ptr(1), 50, t1.Add(time.Minute)), // replies never qualify
	}

	result := BuildForest(rows)
	best := SelectBest(result.Roots, DefaultBestMax, DefaultBestMinLikes)

	require.Len(t, best, 1)
	assert.Equal(t, int64(1), best[0].ID)
}

func TestSelectBestEmptyWhenNoLikes(t *testing.T) {
	t1 := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	result := BuildForest([]*models.Comment{
		comment(1, nil, 0, t1),
		comment(2, nil, 0, t1.Add(time.Minute)),
	})

	best := SelectBest(result.Roots, DefaultBestMax, DefaultBestMinLikes)
	assert.Empty(t, best)
}

func TestSplitBestSeparatesWithoutLoss(t *testing.T) {
	t1 := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	var rows []*models.Comment
	for i := 1; i <= 5; i++ {
		rows = append(rows, comment(int64(i), nil, i, t1.Add(time.Duration(i)*time.Minute)))
	}

	result := BuildForest(rows)
	SortForest(result.Roots, SortRanked)
	best, regular := SplitBest(result.Roots, DefaultBestMax, DefaultBestMinLikes)

	require.Len(t, best, 3)
	require.Len(t, regular, 2)

	seen := make(map[int64]bool)
	for _, n := range best {
		seen[n.ID] = true
	}
	for _, n := range regular {
		assert.False(t, seen[n.ID], "comment %d present in both lists", n.ID)
	}
	assert.Len(t, seen, 3)
}
