// file: internal/thread/rank.go
package thread

import (
	"sort"

	"maumlog/internal/models"
)

// SortMode selects the sibling ordering applied at every level of a forest.
type SortMode string

const (
	// SortRanked orders siblings by like_count desc, then created_at desc.
	SortRanked SortMode = "ranked"
	// SortChronological orders siblings by created_at asc.
	SortChronological SortMode = "chronological"
)

// Default best-comment selection parameters.
const (
	DefaultBestMax      = 3
	DefaultBestMinLikes = 1
)

// SortForest orders every sibling group in the forest: the root list and,
// recursively, each node's replies. Sibling order is local to each parent: a
// low-ranked root's replies are still ranked among themselves.
func SortForest(nodes []*models.CommentNode, mode SortMode) {
	sortSiblings(nodes, mode)
	for _, node := range nodes {
		SortForest(node.Replies, mode)
	}
}

func sortSiblings(nodes []*models.CommentNode, mode SortMode) {
	if mode == SortChronological {
		sort.SliceStable(nodes, func(i, j int) bool {
			return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
		})
		return
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].LikeCount != nodes[j].LikeCount {
			return nodes[i].LikeCount > nodes[j].LikeCount
		}
		return nodes[i].CreatedAt.After(nodes[j].CreatedAt)
	})
}

// SelectBest returns the best-comment bucket: root nodes with at least
// minLikes likes, in ranked order, capped at max. Non-positive max/minLikes
// fall back to the defaults. The returned nodes are the same instances that
// appear in the full forest, flagged IsBest.
func SelectBest(roots []*models.CommentNode, max, minLikes int) []*models.CommentNode {
	if max <= 0 {
		max = DefaultBestMax
	}
	if minLikes <= 0 {
		minLikes = DefaultBestMinLikes
	}

	best := make([]*models.CommentNode, 0, max)
	for _, node := range roots {
		if node.LikeCount >= minLikes {
			best = append(best, node)
		}
	}
	sortSiblings(best, SortRanked)
	if len(best) > max {
		best = best[:max]
	}
	for _, node := range best {
		node.IsBest = true
	}
	return best
}

// SplitBest partitions ranked roots into (best, regular) buckets with
// regular = roots minus best by node identity. Used when the caller wants
// deduplicated buckets instead of the default overlapping tree+best shape.
func SplitBest(roots []*models.CommentNode, max, minLikes int) (best, regular []*models.CommentNode) {
	best = SelectBest(roots, max, minLikes)
	inBest := make(map[*models.CommentNode]bool, len(best))
	for _, node := range best {
		inBest[node] = true
	}
	regular = make([]*models.CommentNode, 0, len(roots))
	for _, node := range roots {
		if !inBest[node] {
			regular = append(regular, node)
		}
	}
	return best, regular
}
