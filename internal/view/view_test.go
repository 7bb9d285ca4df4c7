package view

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todaybox/internal/calendar"
	"todaybox/internal/recurrence"
	"todaybox/internal/storage"
)

func ids(tasks []storage.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func at(sec int64) *time.Time {
	t := time.Unix(sec, 0)
	return &t
}

func dueOn(day int) *calendar.Date {
	d := calendar.New(2026, time.March, day)
	return &d
}

func TestSplitByCompletion(t *testing.T) {
	tasks := []storage.Task{{ID: "a"}, {ID: "b", Completed: true}, {ID: "c"}, {ID: "d", Completed: true}}
	open, done := SplitByCompletion(tasks)
	assert.Equal(t, []string{"a", "c"}, ids(open))
	assert.Equal(t, []string{"b", "d"}, ids(done))
}

func TestSortByCreated(t *testing.T) {
	tasks := []storage.Task{
		{ID: "late", CreatedAt: time.Unix(300, 0)},
		{ID: "tie1", CreatedAt: time.Unix(100, 0)},
		{ID: "tie2", CreatedAt: time.Unix(100, 0)},
	}
	assert.Equal(t, []string{"tie1", "tie2", "late"}, ids(SortByCreated(tasks)))
	assert.Equal(t, "late", tasks[0].ID, "input untouched")
}

func TestSortByDueUndatedLast(t *testing.T) {
	tasks := []storage.Task{
		{ID: "none1"},
		{ID: "mar10", DueDate: dueOn(10)},
		{ID: "none2"},
		{ID: "mar2", DueDate: dueOn(2)},
		{ID: "mar2b", DueDate: dueOn(2)},
	}
	assert.Equal(t, []string{"mar2", "mar2b", "mar10", "none1", "none2"}, ids(SortByDue(tasks)))
}

func TestSortCompletedByRecent(t *testing.T) {
	tasks := []storage.Task{
		{ID: "A", CompletedAt: at(1000)},
		{ID: "B", CompletedAt: at(3000)},
		{ID: "C"},
	}
	assert.Equal(t, []string{"B", "A", "C"}, ids(SortCompletedByRecent(tasks)))

	undated := []storage.Task{{ID: "x"}, {ID: "y"}, {ID: "z", CompletedAt: at(5)}}
	assert.Equal(t, []string{"z", "x", "y"}, ids(SortCompletedByRecent(undated)))
}

func TestFilterByTodayFlag(t *testing.T) {
	tasks := []storage.Task{{ID: "a", IsToday: true}, {ID: "b"}, {ID: "c", IsToday: true}}
	assert.Equal(t, []string{"a", "b", "c"}, ids(FilterByTodayFlag(tasks, FilterAll)))
	assert.Equal(t, []string{"a", "c"}, ids(FilterByTodayFlag(tasks, FilterToday)))
}

func TestBuildList(t *testing.T) {
	tasks := []storage.Task{
		{ID: "undated", CreatedAt: time.Unix(1, 0), IsToday: true},
		{ID: "soon", CreatedAt: time.Unix(2, 0), DueDate: dueOn(1), IsToday: true},
		{ID: "old-done", CreatedAt: time.Unix(3, 0), Completed: true, CompletedAt: at(10), IsToday: true},
		{ID: "new-done", CreatedAt: time.Unix(4, 0), Completed: true, CompletedAt: at(20)},
	}

	l := BuildList(tasks, Options{Filter: FilterAll, Sort: SortDue})
	assert.Equal(t, []string{"soon", "undated"}, ids(l.Incomplete))
	assert.Equal(t, []string{"new-done", "old-done"}, ids(l.Completed))
	assert.Equal(t, []string{"soon", "undated", "new-done", "old-done"}, ids(l.Rows()))

	l = BuildList(tasks, Options{Filter: FilterToday, Sort: SortCreated})
	assert.Equal(t, []string{"undated", "soon"}, ids(l.Incomplete))
	assert.Equal(t, []string{"old-done"}, ids(l.Completed))
}

func TestParseModes(t *testing.T) {
	f, err := ParseFilter("Today")
	require.NoError(t, err)
	assert.Equal(t, FilterToday, f)
	f, err = ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)
	_, err = ParseFilter("week")
	assert.Error(t, err)

	s, err := ParseSort("due")
	require.NoError(t, err)
	assert.Equal(t, SortDue, s)
	assert.Equal(t, SortCreated, s.Next())
	_, err = ParseSort("priority")
	assert.Error(t, err)
}

func TestBuildTodayPayloadOrdering(t *testing.T) {
	tasks := []storage.Task{
		{ID: "X", Title: "x", IsToday: true, Completed: true, CompletedAt: at(1)},
		{ID: "Y", Title: "y", IsToday: true},
		{ID: "hidden", Title: "not today"},
		{ID: "Z", Title: "z", IsToday: true, DueDate: dueOn(1)},
	}
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	p := BuildTodayPayload(tasks, now)

	assert.Equal(t, 3, p.Count)
	require.Len(t, p.Items, 3)
	assert.Equal(t, "Y", p.Items[0].ID)
	assert.Equal(t, "Z", p.Items[1].ID, "not re-sorted by due date")
	assert.Equal(t, "X", p.Items[2].ID)
	assert.Equal(t, now, p.UpdatedAt)
}

func TestBuildTodayPayloadItemFields(t *testing.T) {
	tasks := []storage.Task{
		{ID: "w", Title: "gym", IsToday: true, DueDate: dueOn(4), Recurrence: recurrence.WeeklyOn(5, 1, 1)},
		{ID: "m", Title: "rent", IsToday: true, Recurrence: recurrence.MonthlyOn(25)},
		{ID: "e", Title: "odd", IsToday: true, Recurrence: recurrence.WeeklyOn()},
		{ID: "p", Title: "plain", IsToday: true},
	}
	p := BuildTodayPayload(tasks, time.Unix(0, 0).UTC())
	require.Len(t, p.Items, 4)

	assert.Equal(t, "2026-03-04", *p.Items[0].DueDate)
	assert.True(t, p.Items[0].HasRecurrence)
	assert.Equal(t, "Mon, Fri", *p.Items[0].RecurrenceLabel)

	assert.Nil(t, p.Items[1].DueDate)
	assert.Equal(t, "Day 25", *p.Items[1].RecurrenceLabel)

	assert.True(t, p.Items[2].HasRecurrence)
	assert.Nil(t, p.Items[2].RecurrenceLabel)

	assert.False(t, p.Items[3].HasRecurrence)
	assert.Nil(t, p.Items[3].RecurrenceLabel)
}

func TestTodayPayloadJSON(t *testing.T) {
	p := BuildTodayPayload(nil, time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC))
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":0,"items":[],"updatedAt":"2026-03-01T08:00:00Z"}`, string(b))
}
