package pagination

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	id int64
	ts time.Time
}

// fetch emulates the storage collaborator: it applies the composite keyset
// predicate, orders by (ts, id) descending, and returns FetchLimit rows.
// Timestamps are truncated to milliseconds first, the way the generated
// date_trunc('milliseconds', …) expression behaves against a timestamptz
// column that stores microseconds.
func fetch(dataset []row, q Query) []row {
	var out []row
	for _, r := range dataset {
		if q.Predicate == "" {
			out = append(out, r)
			continue
		}
		ts := r.ts.Truncate(time.Millisecond)
		cursorTS := q.Args[0].(time.Time)
		cursorID := q.Args[1].(int64)
		if ts.Before(cursorTS) || (ts.Equal(cursorTS) && r.id < cursorID) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti := out[i].ts.Truncate(time.Millisecond)
		tj := out[j].ts.Truncate(time.Millisecond)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i].id > out[j].id
	})
	if len(out) > q.FetchLimit {
		out = out[:q.FetchLimit]
	}
	return out
}

func walkAll(t *testing.T, dataset []row, limit int) map[int64]bool {
	t.Helper()
	ks := Keyset{SortField: "created_at", Order: OrderDesc, TiebreakField: "id"}
	cursorOf := func(r row) (time.Time, int64) { return r.ts, r.id }

	seen := make(map[int64]bool)
	cursor := ""
	pages := 0
	for {
		q := ks.Build(cursor, limit, DirectionNext, 0)
		rows, info := Page(fetch(dataset, q), limit, cursor != "", cursorOf)
		pages++
		require.LessOrEqual(t, pages, 60, "walk did not terminate")

		for _, r := range rows {
			assert.False(t, seen[r.id], "row %d repeated at limit %d", r.id, limit)
			seen[r.id] = true
		}
		if !info.HasNext {
			break
		}
		require.NotNil(t, info.EndCursor)
		cursor = *info.EndCursor
	}
	return seen
}

func TestKeysetWalkCompleteNoSkipNoDup(t *testing.T) {
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	// 27 rows with heavy timestamp collisions: three rows share every
	// timestamp, the failure mode a bare sort-value predicate corrupts.
	var dataset []row
	for i := 0; i < 27; i++ {
		dataset = append(dataset, row{
			id: int64(i + 1),
			ts: base.Add(time.Duration(i/3) * time.Second),
		})
	}

	for _, limit := range []int{1, 4, 5, 27, 50} {
		seen := walkAll(t, dataset, limit)
		assert.Len(t, seen, len(dataset), "limit %d missed rows", limit)
	}
}

func TestKeysetWalkSubMillisecondTimestamps(t *testing.T) {
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	// Rows 100µs apart, the resolution a timestamptz column actually stores.
	// The cursor token only carries milliseconds, so the walk must still
	// visit every row exactly once instead of stranding the ones whose
	// sub-millisecond digits never compare equal to a cursor value.
	var dataset []row
	for i := 0; i < 10; i++ {
		dataset = append(dataset, row{
			id: int64(i + 1),
			ts: base.Add(time.Duration(i) * 100 * time.Microsecond),
		})
	}

	for _, limit := range []int{1, 2, 3, 7} {
		seen := walkAll(t, dataset, limit)
		assert.Len(t, seen, len(dataset), "limit %d missed rows", limit)
	}
}

func TestBuildFirstPage(t *testing.T) {
	ks := Keyset{SortField: "created_at", Order: OrderDesc, TiebreakField: "id"}

	t.Run("no cursor", func(t *testing.T) {
		q := ks.Build("", 0, DirectionNext, 0)
		assert.Empty(t, q.Predicate)
		assert.Empty(t, q.Args)
		assert.Equal(t, DefaultLimit, q.Limit)
		assert.Equal(t, DefaultLimit+1, q.FetchLimit)
		assert.Equal(t, "date_trunc('milliseconds', created_at) DESC, id DESC", q.OrderBy)
	})

	t.Run("malformed cursor falls back to first page", func(t *testing.T) {
		q := ks.Build("@@garbage@@", 10, DirectionNext, 0)
		assert.Empty(t, q.Predicate)
		assert.Equal(t, 10, q.Limit)
	})
}

func TestBuildCursorPredicate(t *testing.T) {
	ks := Keyset{SortField: "created_at", Order: OrderDesc, TiebreakField: "id"}
	ts := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	cursor := Encode(ts, 17)

	const col = "date_trunc('milliseconds', created_at)"

	t.Run("next walk on desc order uses <", func(t *testing.T) {
		q := ks.Build(cursor, 20, DirectionNext, 2)
		assert.Equal(t, "("+col+" < $3 OR ("+col+" = $3 AND id < $4))", q.Predicate)
		require.Len(t, q.Args, 2)
		assert.True(t, q.Args[0].(time.Time).Equal(ts))
		assert.Equal(t, int64(17), q.Args[1])
	})

	t.Run("prev walk flips the operator", func(t *testing.T) {
		q := ks.Build(cursor, 20, DirectionPrev, 0)
		assert.Equal(t, "("+col+" > $1 OR ("+col+" = $1 AND id > $2))", q.Predicate)
	})

	t.Run("asc order uses >", func(t *testing.T) {
		asc := Keyset{SortField: "created_at", Order: OrderAsc, TiebreakField: "id"}
		q := asc.Build(cursor, 20, DirectionNext, 0)
		assert.Equal(t, "("+col+" > $1 OR ("+col+" = $1 AND id > $2))", q.Predicate)
		assert.Equal(t, col+" ASC, id ASC", q.OrderBy)
	})
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, ClampLimit(0))
	assert.Equal(t, DefaultLimit, ClampLimit(-3))
	assert.Equal(t, 1, ClampLimit(1))
	assert.Equal(t, MaxLimit, ClampLimit(101))
	assert.Equal(t, MaxLimit, ClampLimit(100000))
}

func TestPageEmptyResult(t *testing.T) {
	rows, info := Page(nil, 20, false, func(r row) (time.Time, int64) { return r.ts, r.id })
	assert.Empty(t, rows)
	assert.False(t, info.HasNext)
	assert.False(t, info.HasPrev)
	assert.Nil(t, info.StartCursor)
	assert.Nil(t, info.EndCursor)
}

func TestPageTrimsExtraRow(t *testing.T) {
	ts := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	rows := []row{
		{id: 3, ts: ts.Add(2 * time.Second)},
		{id: 2, ts: ts.Add(time.Second)},
		{id: 1, ts: ts},
	}

	trimmed, info := Page(rows, 2, true, func(r row) (time.Time, int64) { return r.ts, r.id })
	require.Len(t, trimmed, 2)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrev)

	// End cursor comes from the last returned row, not the discarded one.
	require.NotNil(t, info.EndCursor)
	end, err := Decode(*info.EndCursor)
	require.NoError(t, err)
	assert.Equal(t, int64(2), end.ID)
}
