// file: internal/pagination/keyset.go
package pagination

import (
	"fmt"
	"strings"
	"time"

	"maumlog/internal/models"
)

const (
	// DefaultLimit is applied when the caller does not specify a page size.
	DefaultLimit = 20
	// MaxLimit caps a single page fetch.
	MaxLimit = 100

	// DirectionNext walks forward through the result set.
	DirectionNext = "next"
	// DirectionPrev walks backward.
	DirectionPrev = "prev"

	// OrderAsc and OrderDesc are the supported sort orders.
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Keyset describes one cursor-paginated walk: the sort column, its order,
// and the unique tiebreak column (typically the primary key) that keeps the
// walk stable when multiple rows share a sort value.
type Keyset struct {
	SortField     string
	Order         string
	TiebreakField string
}

// Query is the storage-ready output of a keyset build: an optional SQL
// predicate with positional args, the ORDER BY clause for the walk, the
// clamped page size, and the over-fetch count (Limit+1) used to detect a
// following page without a second query.
type Query struct {
	Predicate  string
	Args       []interface{}
	OrderBy    string
	Limit      int
	FetchLimit int
}

// ClampLimit normalizes a requested page size into [1, MaxLimit], applying
// DefaultLimit when unset.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Build constructs the fetch plan for one page. A missing or malformed
// cursor yields an empty predicate (first page); a valid cursor yields the
// composite predicate
//
//	sort <op> $n OR (sort = $n AND tiebreak <op> $n+1)
//
// which, unlike a bare sort comparison, neither skips nor repeats rows when
// sort values collide. argOffset is the number of positional args already
// bound by the caller's query, so the fragment composes into a larger WHERE.
func (k Keyset) Build(cursor string, limit int, direction string, argOffset int) Query {
	sortExpr := k.sortExpr()
	q := Query{
		Limit:   ClampLimit(limit),
		OrderBy: fmt.Sprintf("%s %s, %s %s", sortExpr, strings.ToUpper(k.order()), k.TiebreakField, strings.ToUpper(k.order())),
	}
	q.FetchLimit = q.Limit + 1

	if cursor == "" {
		return q
	}
	decoded, err := Decode(cursor)
	if err != nil {
		// First-page fallback; the caller may log the DecodeError if it
		// wants data-quality visibility.
		return q
	}

	op := k.operator(direction)
	q.Predicate = fmt.Sprintf(
		"(%s %s $%d OR (%s = $%d AND %s %s $%d))",
		sortExpr, op, argOffset+1,
		sortExpr, argOffset+1,
		k.TiebreakField, op, argOffset+2,
	)
	q.Args = []interface{}{decoded.Time(), decoded.ID}
	return q
}

// sortExpr truncates the timestamptz sort column to the millisecond
// precision the cursor token carries. Comparing the raw column against a
// truncated cursor value would leave rows with sub-millisecond digits
// stranded at page boundaries: neither strictly past the cursor nor equal
// to it, so the walk would skip them.
func (k Keyset) sortExpr() string {
	return fmt.Sprintf("date_trunc('milliseconds', %s)", k.SortField)
}

func (k Keyset) order() string {
	if k.Order == OrderAsc {
		return OrderAsc
	}
	return OrderDesc
}

// operator picks the comparison for the walk: "<" for a descending next
// walk, ">" for ascending, flipped when walking backwards.
func (k Keyset) operator(direction string) string {
	op := "<"
	if k.order() == OrderAsc {
		op = ">"
	}
	if direction == DirectionPrev {
		if op == "<" {
			op = ">"
		} else {
			op = "<"
		}
	}
	return op
}

// Page trims an over-fetched row slice to the requested limit and derives
// the page metadata. cursorOf extracts the (sort value, tiebreak id) pair of
// a row; start/end cursors always come from the first and last returned row,
// never from the discarded extra one. hadCursor feeds has_prev, matching the
// forward-walk convention of the API layer.
func Page[T any](rows []T, limit int, hadCursor bool, cursorOf func(T) (time.Time, int64)) ([]T, models.PageInfo) {
	limit = ClampLimit(limit)
	info := models.PageInfo{HasPrev: hadCursor}

	if len(rows) > limit {
		info.HasNext = true
		rows = rows[:limit]
	}
	if len(rows) == 0 {
		return rows, info
	}

	firstTS, firstID := cursorOf(rows[0])
	lastTS, lastID := cursorOf(rows[len(rows)-1])
	start := Encode(firstTS, firstID)
	end := Encode(lastTS, lastID)
	info.StartCursor = &start
	info.EndCursor = &end
	return rows, info
}
