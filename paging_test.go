package gokeyset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysets(ids ...int) [][]any {
	ret := make([][]any, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, []any{id})
	}

	return ret
}

func mustBookmark(t *testing.T, fn func() (string, error)) string {
	t.Helper()

	s, err := fn()
	require.NoError(t, err)

	return s
}

func Test_newPaging(t *testing.T) {
	tests := []struct {
		name        string
		perPage     int
		backwards   bool
		current     []any
		places      [][]any
		len         int
		full        bool
		hasNext     bool
		hasPrevious bool
		hasFurther  bool
		next        string
		previous    string
		curr        string
		opposite    string
		further     string
		first       string
		last        string
	}{
		{
			name:        "first page with more rows",
			perPage:     2,
			places:      keysets(1, 2, 3),
			len:         2,
			full:        true,
			hasNext:     true,
			hasPrevious: false,
			hasFurther:  true,
			next:        ">i:2",
			previous:    "<i:1",
			curr:        ">",
			opposite:    "<i:3",
			further:     ">i:2",
			first:       ">i:1",
			last:        ">i:2",
		},
		{
			name:        "forward middle page",
			perPage:     2,
			current:     []any{2},
			places:      keysets(3, 4, 5),
			len:         2,
			full:        true,
			hasNext:     true,
			hasPrevious: true,
			hasFurther:  true,
			next:        ">i:4",
			previous:    "<i:3",
			curr:        ">i:2",
			opposite:    "<i:5",
			further:     ">i:4",
			first:       ">i:3",
			last:        ">i:4",
		},
		{
			name:        "forward last page exactly full",
			perPage:     2,
			current:     []any{2},
			places:      keysets(3, 4),
			len:         2,
			full:        true,
			hasNext:     false,
			hasPrevious: true,
			hasFurther:  false,
			next:        ">i:4",
			previous:    "<i:3",
			curr:        ">i:2",
			opposite:    "<",
			further:     ">i:4",
			first:       ">i:3",
			last:        ">i:4",
		},
		{
			name:        "backward middle page",
			perPage:     2,
			backwards:   true,
			current:     []any{10},
			places:      keysets(9, 8, 7),
			len:         2,
			full:        true,
			hasNext:     true,
			hasPrevious: true,
			hasFurther:  true,
			next:        ">i:9",
			previous:    "<i:8",
			curr:        "<i:10",
			opposite:    ">i:7",
			further:     "<i:8",
			first:       "<i:8",
			last:        "<i:9",
		},
		{
			name:        "backward from the end",
			perPage:     2,
			backwards:   true,
			places:      keysets(25, 24, 23),
			len:         2,
			full:        true,
			hasNext:     false,
			hasPrevious: true,
			hasFurther:  true,
			next:        ">i:25",
			previous:    "<i:24",
			curr:        "<",
			opposite:    ">i:23",
			further:     "<i:24",
			first:       "<i:24",
			last:        "<i:25",
		},
		{
			name:        "backward reaching the start",
			perPage:     3,
			backwards:   true,
			current:     []any{3},
			places:      keysets(2, 1),
			len:         2,
			full:        false,
			hasNext:     true,
			hasPrevious: false,
			hasFurther:  false,
			next:        ">i:2",
			previous:    "<i:1",
			curr:        "<i:3",
			opposite:    ">",
			further:     "<i:1",
			first:       "<i:1",
			last:        "<i:2",
		},
		{
			name:        "empty page after a marker",
			perPage:     2,
			current:     []any{5},
			places:      nil,
			len:         0,
			full:        false,
			hasNext:     false,
			hasPrevious: true,
			hasFurther:  false,
			next:        ">i:5",
			previous:    "<",
			curr:        ">i:5",
			opposite:    "<",
			further:     ">i:5",
			first:       ">",
			last:        ">",
		},
		{
			name:        "empty result set",
			perPage:     2,
			places:      nil,
			len:         0,
			hasNext:     false,
			hasPrevious: false,
			next:        ">",
			previous:    "<",
			curr:        ">",
			opposite:    "<",
			further:     ">",
			first:       ">",
			last:        ">",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPaging(DefaultCodec(), tt.perPage, tt.backwards, tt.current, tt.places)

			assert.Equal(t, tt.perPage, p.PerPage())
			assert.Equal(t, tt.backwards, p.Backwards())
			assert.Equal(t, tt.len, p.Len())
			assert.Equal(t, tt.full, p.IsFull())
			assert.Equal(t, tt.hasNext, p.HasNext())
			assert.Equal(t, tt.hasPrevious, p.HasPrevious())
			assert.Equal(t, tt.hasFurther, p.HasFurther())

			assert.Equal(t, tt.next, mustBookmark(t, p.BookmarkNext))
			assert.Equal(t, tt.previous, mustBookmark(t, p.BookmarkPrevious))
			assert.Equal(t, tt.curr, mustBookmark(t, p.BookmarkCurrent))
			assert.Equal(t, tt.opposite, mustBookmark(t, p.BookmarkCurrentOpposite))
			assert.Equal(t, tt.further, mustBookmark(t, p.BookmarkFurther))
			assert.Equal(t, tt.first, mustBookmark(t, p.BookmarkFirst))
			assert.Equal(t, tt.last, mustBookmark(t, p.BookmarkLast))
		})
	}
}

func Test_Paging_currentDirections(t *testing.T) {
	p := newPaging(DefaultCodec(), 2, false, []any{2}, keysets(3, 4, 5))

	assert.Equal(t, ">i:2", mustBookmark(t, p.BookmarkCurrentForwards))
	assert.Equal(t, "<i:5", mustBookmark(t, p.BookmarkCurrentBackwards))
	assert.True(t, p.Current().Equal(p.CurrentForwards()))
	assert.True(t, p.CurrentOpposite().Equal(p.CurrentBackwards()))
}

func Test_Paging_lastReturnedRow(t *testing.T) {
	// Forward page of rows 3, 4 after 2; row 5 is the lookahead.
	p := newPaging(DefaultCodec(), 2, false, []any{2}, keysets(3, 4, 5))

	lastRow, err := p.MarkerAt(p.Len() - 1)
	require.NoError(t, err)
	assert.True(t, p.Last().Equal(lastRow))
	assert.True(t, p.Next().Equal(lastRow))
	assert.Equal(t, ">i:4", mustBookmark(t, p.BookmarkLast))
	assert.False(t, p.Current().Equal(p.Last()))
}

func Test_Paging_MarkerAt(t *testing.T) {
	p := newPaging(DefaultCodec(), 3, true, nil, keysets(9, 8, 7, 6))

	for i, want := range []string{"<i:7", "<i:8", "<i:9"} {
		assert.Equal(t, want, mustBookmark(t, func() (string, error) { return p.BookmarkAt(i) }))
	}

	_, err := p.MarkerAt(3)
	require.Error(t, err)
	_, err = p.BookmarkAt(-1)
	require.Error(t, err)
}

func Test_Paging_doesNotAliasInput(t *testing.T) {
	places := keysets(1, 2, 3)
	p := newPaging(DefaultCodec(), 3, true, nil, places)

	m, err := p.MarkerAt(0)
	require.NoError(t, err)
	assert.Equal(t, []any{3}, m.Values)
	// The fetched keysets keep their fetch order.
	assert.Equal(t, []any{1}, places[0])
}
