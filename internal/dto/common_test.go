package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), d.Time())

	d, err = ParseDate("2026-02-14T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 14, 8, 30, 0, 0, time.UTC), d.Time())

	_, err = ParseDate("14/02/2026")
	assert.Error(t, err)
}

func TestDateUnmarshalJSON(t *testing.T) {
	var payload struct {
		At  *Date `json:"at"`
		Nil *Date `json:"nil"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"2026-01-31","nil":null}`), &payload))
	require.NotNil(t, payload.At)
	assert.Equal(t, 31, payload.At.Time().Day())
	assert.Nil(t, payload.Nil)

	assert.Error(t, json.Unmarshal([]byte(`{"at":42}`), &payload))
}

func TestListQueryPage(t *testing.T) {
	limit, offset := ListQuery{}.Page(50, 200)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)

	limit, offset = ListQuery{Limit: 500, Offset: 20}.Page(50, 200)
	assert.Equal(t, 200, limit)
	assert.Equal(t, 20, offset)
}

func TestRangeQueryBoundsIncludesWholeLastDay(t *testing.T) {
	from, _ := ParseDate("2026-01-01")
	to, _ := ParseDate("2026-01-31")

	lo, hi := RangeQuery{From: &from, To: &to}.Bounds()
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), lo)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), hi)

	lo, hi = RangeQuery{}.Bounds()
	assert.True(t, lo.IsZero())
	assert.True(t, hi.IsZero())
}

func TestRangeQueryBoundsTimestampIsExact(t *testing.T) {
	to, err := ParseDate("2026-01-31T00:00:00Z")
	require.NoError(t, err)
	assert.False(t, to.WholeDay())

	_, hi := RangeQuery{To: &to}.Bounds()
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 1000, time.UTC), hi)

	day, err := ParseDate("2026-01-31")
	require.NoError(t, err)
	assert.True(t, day.WholeDay())
}
