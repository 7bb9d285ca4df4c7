package ui

import (
	"io"
	"log"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todaybox/internal/calendar"
	"todaybox/internal/config"
	"todaybox/internal/recurrence"
	"todaybox/internal/storage"
	"todaybox/internal/view"
)

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func fixedNow() time.Time {
	return time.Date(2026, time.February, 16, 9, 0, 0, 0, time.Local)
}

func newModel(t *testing.T) (Model, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	store.Logger = log.New(io.Discard, "", 0)
	m, err := New(store, config.Default())
	require.NoError(t, err)
	m.now = fixedNow
	return m, store
}

func press(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestNewRejectsBadDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultSort = "priority"
	_, err := New(storage.NewMemoryStore(), cfg)
	assert.Error(t, err)
}

func TestAddTask(t *testing.T) {
	m, store := newModel(t)
	m = press(m, runes("a"), runes("buy milk"), enter)

	tasks := store.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "buy milk", tasks[0].Title)
	assert.False(t, tasks[0].IsToday)
	assert.Equal(t, modeList, m.mode)
	assert.Contains(t, m.View(), "buy milk")
}

func TestAddEmptyTitleStaysInAddMode(t *testing.T) {
	m, store := newModel(t)
	m = press(m, runes("a"), enter)
	assert.Empty(t, store.Tasks())
	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, "Title cannot be empty", m.status)

	m = press(m, esc)
	assert.Equal(t, modeList, m.mode)
}

func TestAddUnderTodayFilterPins(t *testing.T) {
	m, store := newModel(t)
	m = press(m, runes("f"))
	assert.Equal(t, view.FilterToday, m.filter)

	m = press(m, runes("a"), runes("stretch"), enter)
	tasks := store.Tasks()
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].IsToday)
	assert.Len(t, m.rows, 1)
}

func TestToggleRecurringSpawnsNext(t *testing.T) {
	m, store := newModel(t)
	due := calendar.New(2026, time.February, 16)
	store.Create(storage.NewTask{Title: "gym", DueDate: &due, Recurrence: recurrence.WeeklyOn(1, 3)})
	m = press(m, changedMsg{})

	m = press(m, space)
	tasks := store.Tasks()
	require.Len(t, tasks, 2)
	assert.True(t, tasks[0].Completed)
	assert.Equal(t, "2026-02-18", tasks[1].DueDate.String())
	assert.Equal(t, "Completed; next occurrence scheduled", m.status)

	// reopening and completing again does not add another
	m = press(m, runes("j"), space)
	got, _ := store.Get(tasks[0].ID)
	assert.False(t, got.Completed)
	m.cursor = 0
	m = press(m, space)
	assert.Len(t, store.Tasks(), 2)
}

func TestTodayToggleAndDueShift(t *testing.T) {
	m, store := newModel(t)
	created, _ := store.Create(storage.NewTask{Title: "call mom"})
	m = press(m, changedMsg{})

	m = press(m, runes("t"))
	got, _ := store.Get(created.ID)
	assert.True(t, got.IsToday)

	m = press(m, runes("]"))
	got, _ = store.Get(created.ID)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2026-02-16", got.DueDate.String())
	assert.Equal(t, "Due Today", m.status)

	m = press(m, runes("]"), runes("]"), runes("["))
	got, _ = store.Get(created.ID)
	assert.Equal(t, "2026-02-17", got.DueDate.String())
	assert.Contains(t, m.View(), "Tomorrow")
}

func TestDeleteConfirm(t *testing.T) {
	m, store := newModel(t)
	store.Create(storage.NewTask{Title: "junk"})
	m = press(m, changedMsg{})

	m = press(m, runes("d"), runes("n"))
	assert.Len(t, store.Tasks(), 1)
	assert.Equal(t, "Delete cancelled", m.status)

	m = press(m, runes("d"), runes("y"))
	assert.Empty(t, store.Tasks())
	assert.Contains(t, m.View(), "No tasks yet")
}

func TestEditMetadata(t *testing.T) {
	m, store := newModel(t)
	created, _ := store.Create(storage.NewTask{Title: "rent"})
	m = press(m, changedMsg{})

	m = press(m, runes("e"))
	require.NotNil(t, m.meta)
	m = press(m,
		enter,
		runes("2026-03-01"), enter,
		runes("monthly:1"), enter,
		runes("transfer"), enter,
	)
	assert.Nil(t, m.meta)
	assert.Equal(t, "Task saved", m.status)

	got, _ := store.Get(created.ID)
	assert.Equal(t, "rent", got.Title)
	assert.Equal(t, "2026-03-01", got.DueDate.String())
	require.NotNil(t, got.Recurrence)
	assert.Equal(t, 1, got.Recurrence.DayOfMonth)
	require.NotNil(t, got.Memo)
	assert.Equal(t, "transfer", *got.Memo)
}

func TestEditMetadataRejectsBadDate(t *testing.T) {
	m, store := newModel(t)
	created, _ := store.Create(storage.NewTask{Title: "rent"})
	m = press(m, changedMsg{})

	m = press(m, runes("e"), enter, runes("soon"), enter, enter, enter)
	require.NotNil(t, m.meta)
	assert.Contains(t, m.status, "due date invalid")
	got, _ := store.Get(created.ID)
	assert.Nil(t, got.DueDate)
}

func TestSortCycles(t *testing.T) {
	m, _ := newModel(t)
	m = press(m, runes("s"))
	assert.Equal(t, view.SortDue, m.sort)
	m = press(m, runes("s"))
	assert.Equal(t, view.SortCreated, m.sort)
}

func TestTrayPanel(t *testing.T) {
	m, store := newModel(t)
	store.Create(storage.NewTask{Title: "later"})
	pinned, _ := store.Create(storage.NewTask{Title: "water plants", IsToday: true})
	m = press(m, changedMsg{})
	require.Equal(t, 0, m.cursor)

	m = press(m, runes("m"))
	assert.Equal(t, modeTray, m.mode)
	out := m.View()
	assert.Contains(t, out, "Today: 1")
	assert.Contains(t, out, "water plants")
	assert.Contains(t, out, "Quit")
	assert.Equal(t, 1, m.trayCursor)

	m = press(m, enter)
	assert.Equal(t, modeList, m.mode)
	sel, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, pinned.ID, sel.ID)
}

func TestTrayQuit(t *testing.T) {
	m, _ := newModel(t)
	m = press(m, runes("m"))
	assert.Contains(t, m.View(), "No tasks for today")

	for i := 0; i < len(m.entries); i++ {
		m = press(m, runes("j"))
	}
	_, cmd := m.Update(enter)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestChangedMsgReloads(t *testing.T) {
	m, store := newModel(t)
	store.Create(storage.NewTask{Title: "from api"})
	assert.Empty(t, m.rows)

	m = press(m, changedMsg{})
	require.Len(t, m.rows, 1)
	assert.Equal(t, "from api", m.rows[0].Title)
}

func TestNextClickable(t *testing.T) {
	m, _ := newModel(t)
	m = press(m, runes("m"))
	// Summary, Empty, Separator, Open, Refresh, Separator, Quit
	assert.Equal(t, 3, nextClickable(m.entries, 0, 0))
	assert.Equal(t, 4, nextClickable(m.entries, 3, 1))
	assert.Equal(t, 6, nextClickable(m.entries, 4, 1))
	assert.Equal(t, 6, nextClickable(m.entries, 6, 1))
	assert.Equal(t, 3, nextClickable(m.entries, 3, -1))
	assert.Equal(t, 4, nextClickable(m.entries, 6, -1))
}
