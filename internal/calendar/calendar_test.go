package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	a := New(2026, time.February, 16)
	assert.Equal(t, 0, Compare(a, a))
	assert.Equal(t, -1, Compare(a, New(2026, time.February, 17)))
	assert.Equal(t, 1, Compare(a, New(2026, time.January, 31)))
	assert.Equal(t, -1, Compare(a, New(2027, time.January, 1)))
	assert.True(t, a.Before(New(2026, time.March, 1)))
	assert.True(t, a.After(New(2025, time.December, 31)))
}

func TestRelativeAndLabel(t *testing.T) {
	ref := New(2026, time.January, 1)
	assert.Equal(t, RelationToday, Relative(ref, ref))
	assert.Equal(t, RelationYesterday, Relative(New(2025, time.December, 31), ref))
	assert.Equal(t, RelationTomorrow, Relative(New(2026, time.January, 2), ref))
	assert.Equal(t, RelationNone, Relative(New(2026, time.January, 3), ref))

	assert.Equal(t, "Yesterday", Label(New(2025, time.December, 31), ref))
	assert.Equal(t, "Today", Label(ref, ref))
	assert.Equal(t, "Tomorrow", Label(New(2026, time.January, 2), ref))
	assert.Equal(t, "1/20", Label(New(2026, time.January, 20), ref))
	assert.Equal(t, "2025/12/1", Label(New(2025, time.December, 1), ref))
}

func TestLastDayOfMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2026, time.January, 31},
		{2026, time.February, 28},
		{2024, time.February, 29},
		{2100, time.February, 28},
		{2026, time.April, 30},
		{2026, time.December, 31},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, LastDayOfMonth(c.year, c.month), "%d-%02d", c.year, c.month)
	}
}

func TestAddDaysAndWeekday(t *testing.T) {
	d := New(2026, time.February, 16)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, New(2026, time.March, 1), d.AddDays(13))
	assert.Equal(t, New(2025, time.December, 31), New(2026, time.January, 1).AddDays(-1))
}

func TestParseAndJSON(t *testing.T) {
	d, err := Parse("2026-03-31")
	require.NoError(t, err)
	assert.Equal(t, New(2026, time.March, 31), d)
	assert.Equal(t, "2026-03-31", d.String())

	_, err = Parse("31/03/2026")
	assert.Error(t, err)

	b, err := json.Marshal(struct {
		Due *Date `json:"due"`
	}{Due: &d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2026-03-31"}`, string(b))

	var out struct {
		Due *Date `json:"due"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	require.NotNil(t, out.Due)
	assert.Equal(t, d, *out.Due)
}

func TestAt(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	got := At(New(2026, time.May, 5), 9, 30, loc)
	assert.Equal(t, time.Date(2026, time.May, 5, 9, 30, 0, 0, loc), got)
	assert.Equal(t, New(2026, time.May, 5), FromTime(got))
}
