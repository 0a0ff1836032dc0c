package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type row struct {
	ID        string
	CreatedAt time.Time
}

func TestCursorRoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	enc, err := EncodeCursor(Cursor{CreatedAt: now, ID: "42"})
	require.NoError(t, err)

	dec, err := DecodeCursor(enc)
	require.NoError(t, err)
	require.True(t, dec.CreatedAt.Equal(now))
	require.Equal(t, "42", dec.ID)

	_, err = DecodeCursor("%%%")
	require.Error(t, err)
}

func TestSizeBounds(t *testing.T) {
	require.Equal(t, DefaultLimit, Pagination{}.Size())
	require.Equal(t, MaxLimit, Pagination{Limit: 1000}.Size())
	require.Equal(t, 3, Pagination{Limit: 3}.Size())
}

func TestBuildCursorPageInfoTrims(t *testing.T) {
	now := time.Now()
	data := []*row{{ID: "3", CreatedAt: now}, {ID: "2", CreatedAt: now}, {ID: "1", CreatedAt: now}}

	page, info := BuildCursorPageInfo(data, 2, func(r *row) Cursor { return Cursor{CreatedAt: r.CreatedAt, ID: r.ID} })
	require.Len(t, page, 2)
	require.True(t, info.HasMore)
	require.NotEmpty(t, info.NextCursor)

	page, info = BuildCursorPageInfo(data[:1], 2, func(r *row) Cursor { return Cursor{ID: r.ID} })
	require.Len(t, page, 1)
	require.False(t, info.HasMore)
	require.Empty(t, info.NextCursor)
}
