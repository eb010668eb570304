package response

import (
	"net/url"
	"testing"
	"time"

	"maumlog/internal/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFromQueryDefaults(t *testing.T) {
	parser := NewPaginationParser(DefaultPaginationConfig())

	params, err := parser.ParseFromQuery(url.Values{})
	require.NoError(t, err)
	assert.Empty(t, params.Cursor)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)
	assert.Equal(t, "next", params.Direction)
	assert.Equal(t, "created_at", params.Sort)
	assert.Equal(t, "desc", params.Order)
}

func TestParseFromQueryValidCursor(t *testing.T) {
	parser := NewPaginationParser(DefaultPaginationConfig())
	cursor := pagination.Encode(time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC), 42)

	params, err := parser.ParseFromQuery(url.Values{"cursor": {cursor}, "limit": {"10"}})
	require.NoError(t, err)
	assert.Equal(t, cursor, params.Cursor)
	assert.Equal(t, 10, params.Limit)
}

func TestParseFromQueryMalformedCursorFallsBackToFirstPage(t *testing.T) {
	parser := NewPaginationParser(DefaultPaginationConfig())

	for _, raw := range []string{"not-a-cursor", "@@tampered@@", "bm90IGpzb24="} {
		params, err := parser.ParseFromQuery(url.Values{"cursor": {raw}, "limit": {"10"}})
		require.NoError(t, err)
		assert.Empty(t, params.Cursor)
		assert.Equal(t, 10, params.Limit)
		assert.Equal(t, "next", params.Direction)
	}
}

func TestParseFromQueryCapsLimit(t *testing.T) {
	parser := NewPaginationParser(DefaultPaginationConfig())

	params, err := parser.ParseFromQuery(url.Values{"limit": {"5000"}})
	require.NoError(t, err)
	assert.Equal(t, pagination.MaxLimit, params.Limit)
}

func TestParseFromQueryRejectsBadInput(t *testing.T) {
	parser := NewPaginationParser(DefaultPaginationConfig())

	cases := map[string]url.Values{
		"negative limit":    {"limit": {"-1"}},
		"non-numeric limit": {"limit": {"ten"}},
		"bad direction":     {"direction": {"sideways"}},
		"bad order":         {"order": {"upward"}},
		"unknown sort":      {"sort": {"popularity"}},
	}
	for name, query := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parser.ParseFromQuery(query)
			assert.Error(t, err)
		})
	}
}

func TestParseFromQueryAllowsLikeCountSort(t *testing.T) {
	parser := NewPaginationParser(DefaultPaginationConfig())

	params, err := parser.ParseFromQuery(url.Values{"sort": {"like_count"}, "order": {"asc"}})
	require.NoError(t, err)
	assert.Equal(t, "like_count", params.Sort)
	assert.Equal(t, "asc", params.Order)
}
