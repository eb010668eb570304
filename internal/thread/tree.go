// file: internal/thread/tree.go

// Package thread reconstructs a post's reply forest from flat comment rows
// and applies sibling ranking and best-comment selection. Everything here is
// a pure in-memory transform: no storage access, no errors. Malformed input
// (orphaned replies) degrades to omission so a read path never breaks over
// data quality.
package thread

import (
	"maumlog/internal/models"
)

// BuildResult carries the forest plus the bookkeeping counts the read path
// reports back to callers.
type BuildResult struct {
	Roots       []*models.CommentNode
	TotalCount  int // nodes present in the forest (roots + all replies)
	RootCount   int
	ReplyCount  int
	OrphanCount int // rows excluded because their parent was missing
}

// BuildForest links flat comment rows into a forest of root nodes with
// nested replies. Two passes: index every row by id, then attach each row to
// its parent. A row whose parent id resolves to no row in the input (a
// deleted parent, or a cross-post reference) is an orphan and is silently
// excluded from the output along with its own subtree.
func BuildForest(rows []*models.Comment) BuildResult {
	index := make(map[int64]*models.CommentNode, len(rows))
	for _, row := range rows {
		index[row.ID] = &models.CommentNode{
			Comment: row,
			Replies: []*models.CommentNode{},
		}
	}

	var result BuildResult
	for _, row := range rows {
		node := index[row.ID]
		if row.ParentCommentID == nil {
			result.Roots = append(result.Roots, node)
			continue
		}
		parent, ok := index[*row.ParentCommentID]
		if !ok {
			result.OrphanCount++
			continue
		}
		parent.Replies = append(parent.Replies, node)
	}

	// An orphan's descendants are attached to it, not to the forest, so a
	// simple traversal gives the visible counts.
	result.RootCount = len(result.Roots)
	result.TotalCount = countNodes(result.Roots)
	result.ReplyCount = result.TotalCount - result.RootCount
	if result.Roots == nil {
		result.Roots = []*models.CommentNode{}
	}
	return result
}

func countNodes(nodes []*models.CommentNode) int {
	n := 0
	for _, node := range nodes {
		n += 1 + countNodes(node.Replies)
	}
	return n
}
