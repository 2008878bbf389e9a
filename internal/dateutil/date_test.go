package dateutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-07-15")
	require.NoError(t, err)
	assert.Equal(t, "2025-07-15", d.String())
	assert.False(t, d.IsZero())

	_, err = ParseDate("15.07.2025")
	assert.Error(t, err)

	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestFromTime_TruncatesToDay(t *testing.T) {
	ts := time.Date(2025, time.July, 15, 23, 59, 13, 500, time.UTC)
	d := FromTime(ts)
	assert.Equal(t, "2025-07-15", d.String())
	assert.Equal(t, time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC), d.Time())
}

func TestDate_NextCrossesMonthAndYear(t *testing.T) {
	d, _ := ParseDate("2025-07-31")
	assert.Equal(t, "2025-08-01", d.Next().String())

	d, _ = ParseDate("2025-12-31")
	assert.Equal(t, "2026-01-01", d.Next().String())

	d, _ = ParseDate("2024-02-28")
	assert.Equal(t, "2024-02-29", d.Next().String())
}

func TestDate_DaysUntil(t *testing.T) {
	a, _ := ParseDate("2025-07-01")
	b, _ := ParseDate("2025-07-08")
	assert.Equal(t, 7, a.DaysUntil(b))
	assert.Equal(t, -7, b.DaysUntil(a))
	assert.Equal(t, 0, a.DaysUntil(a))
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d, _ := ParseDate("2025-07-15")

	encoded, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-07-15"`, string(encoded))

	var decoded Date
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.True(t, d.Equal(decoded))

	assert.Error(t, json.Unmarshal([]byte(`12345`), &decoded))
}

func TestRangeContains(t *testing.T) {
	start, _ := ParseDate("2025-07-01")
	end, _ := ParseDate("2025-07-07")

	mid, _ := ParseDate("2025-07-04")
	assert.True(t, RangeContains(start, end, start))
	assert.True(t, RangeContains(start, end, end))
	assert.True(t, RangeContains(start, end, mid))

	before, _ := ParseDate("2025-06-30")
	after, _ := ParseDate("2025-07-08")
	assert.False(t, RangeContains(start, end, before))
	assert.False(t, RangeContains(start, end, after))
}

func TestOverlaps(t *testing.T) {
	d := func(s string) Date {
		parsed, err := ParseDate(s)
		require.NoError(t, err)
		return parsed
	}

	// shared boundary day counts as overlap
	assert.True(t, Overlaps(d("2025-07-01"), d("2025-07-07"), d("2025-07-07"), d("2025-07-10")))
	assert.True(t, Overlaps(d("2025-07-03"), d("2025-07-05"), d("2025-07-01"), d("2025-07-10")))
	assert.False(t, Overlaps(d("2025-07-01"), d("2025-07-07"), d("2025-07-08"), d("2025-07-10")))
	assert.False(t, Overlaps(d("2025-07-08"), d("2025-07-10"), d("2025-07-01"), d("2025-07-07")))
}

func TestToday(t *testing.T) {
	d := Today(SystemClock())
	assert.False(t, d.IsZero())
	assert.Equal(t, d, FromTime(time.Now()))
}
