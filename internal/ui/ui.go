package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todaybox/internal/calendar"
	"todaybox/internal/config"
	"todaybox/internal/recurrence"
	"todaybox/internal/scheduler"
	"todaybox/internal/storage"
	"todaybox/internal/tray"
	"todaybox/internal/view"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeMetadata
	modeTray
)

type metaState struct {
	taskID     string
	title      string
	due        string
	recurrence string
	memo       string
	index      int
}

// changedMsg is sent when the store reports a mutation.
type changedMsg struct{ change storage.Change }

// tickMsg is sent by the scheduler so day-relative labels roll over.
type tickMsg struct{}

type Model struct {
	store      storage.Store
	cfg        config.Config
	list       view.List
	rows       []storage.Task
	cursor     int
	mode       mode
	input      textinput.Model
	status     string
	filter     view.FilterMode
	sort       view.SortMode
	confirmDel bool
	pendingDel *storage.Task
	meta       *metaState
	entries    []tray.Entry
	trayCursor int
	now        func() time.Time
}

func New(store storage.Store, cfg config.Config) (Model, error) {
	filter, err := view.ParseFilter(cfg.DefaultFilter)
	if err != nil {
		return Model{}, err
	}
	sortMode, err := view.ParseSort(cfg.DefaultSort)
	if err != nil {
		return Model{}, err
	}

	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		store:  store,
		cfg:    cfg,
		input:  ti,
		mode:   modeList,
		filter: filter,
		sort:   sortMode,
		now:    time.Now,
		status: fmt.Sprintf("Press '%s' to add, space to toggle, '%s' to pin for today.", cfg.Keys.Add, cfg.Keys.Today),
	}
	m.reload()
	return m, nil
}

// Run starts the terminal UI and blocks until it quits.
func Run(store storage.Store, cfg config.Config) error {
	m, err := New(store, cfg)
	if err != nil {
		return err
	}
	program := tea.NewProgram(m)

	// Send from a goroutine: mutations run inside Update, which is the loop Send feeds.
	unsubscribe := store.Subscribe(func(c storage.Change) {
		go program.Send(changedMsg{change: c})
	})
	defer unsubscribe()

	sched := scheduler.New(time.Local)
	if _, err := sched.Daily(cfg.DayRollover, func() { program.Send(tickMsg{}) }); err != nil {
		return fmt.Errorf("schedule rollover: %w", err)
	}
	if every, err := cfg.Refresh(); err != nil {
		return err
	} else if every > 0 {
		if _, err := sched.Every(every, func() { program.Send(tickMsg{}) }); err != nil {
			return fmt.Errorf("schedule refresh: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	_, err = program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.meta != nil {
			return m.updateMetadataMode(msg.String(), msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.handleKey(msg)
	case changedMsg, tickMsg:
		m.reload()
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m *Model) reload() {
	m.list = view.BuildList(m.store.Tasks(), view.Options{Filter: m.filter, Sort: m.sort})
	m.rows = m.list.Rows()
	m.cursor = clampCursor(m.cursor, len(m.rows))
	if m.mode == modeTray {
		m.buildTray()
	}
}

func (m *Model) buildTray() {
	now := m.now()
	payload := view.BuildTodayPayload(m.store.Tasks(), now)
	today := calendar.Today(now)
	m.entries = tray.Build(&payload, tray.Options{TodayDate: &today, MaxItems: m.cfg.TrayMaxItems})
	m.trayCursor = nextClickable(m.entries, m.trayCursor, 0)
}

func (m Model) today() calendar.Date {
	return calendar.Today(m.now())
}

func (m Model) selected() (storage.Task, bool) {
	if len(m.rows) == 0 {
		return storage.Task{}, false
	}
	return m.rows[clampCursor(m.cursor, len(m.rows))], true
}

// focus moves the cursor onto the task with id, if visible.
func (m *Model) focus(id string) bool {
	for i, t := range m.rows {
		if t.ID == id {
			m.cursor = i
			return true
		}
	}
	return false
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.mode {
	case modeAdd:
		return m.updateAddMode(key, msg)
	case modeTray:
		return m.updateTrayMode(key)
	}
	return m.updateListMode(key)
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			m.status = "Title cannot be empty"
			return m, nil
		}
		// adding while the today filter is on pins the task so it stays visible
		t, _ := m.store.Create(storage.NewTask{Title: title, IsToday: m.filter == view.FilterToday})
		m.reload()
		m.focus(t.ID)
		m.status = "Added task"
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c", k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		if len(m.rows) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(m.rows))
	case k.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.rows))
		}
	case k.Add:
		m.mode = modeAdd
		m.input.Placeholder = "Task title"
		m.input.Focus()
		m.status = "Add mode: type a title and press Enter"
	case k.Toggle:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.store.ToggleCompletion(t.ID)
		m.reload()
		m.status = "Toggled task"
		if !t.Completed && t.Recurrence != nil && !t.NextGenerated {
			m.status = "Completed; next occurrence scheduled"
		}
	case k.Today:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.store.ToggleToday(t.ID)
		m.reload()
		if t.IsToday {
			m.status = "Unpinned from today"
		} else {
			m.status = "Pinned for today"
		}
	case k.DueForward, k.DueBack:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		step := 1
		if key == k.DueBack {
			step = -1
		}
		due := m.today()
		if t.DueDate != nil {
			due = t.DueDate.AddDays(step)
		}
		m.store.SetDueDate(t.ID, &due)
		m.reload()
		m.focus(t.ID)
		m.status = "Due " + calendar.Label(due, m.today())
	case k.Delete:
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &t
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", t.Title)
	case k.Detail:
		t, ok := m.selected()
		if !ok {
			m.status = "No tasks"
			return m, nil
		}
		m.status = m.describe(t)
	case k.Edit:
		t, ok := m.selected()
		if !ok {
			m.status = "No tasks to edit"
			return m, nil
		}
		return m.startMetadataEdit(t)
	case k.Sort:
		m.sort = m.sort.Next()
		m.reload()
		m.status = "Sort: " + string(m.sort)
	case k.Filter:
		if m.filter == view.FilterToday {
			m.filter = view.FilterAll
		} else {
			m.filter = view.FilterToday
		}
		m.cursor = 0
		m.reload()
		m.status = "Filter: " + string(m.filter)
	case k.Tray:
		m.mode = modeTray
		m.trayCursor = 0
		m.buildTray()
		m.status = "Tray preview: up/down to move, enter to activate, esc to close"
	}
	return m, nil
}

func (m Model) updateTrayMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case k.Cancel, k.Tray:
		m.mode = modeList
		m.status = "Tray closed"
	case k.Down, "down":
		m.trayCursor = nextClickable(m.entries, m.trayCursor, 1)
	case k.Up, "up":
		m.trayCursor = nextClickable(m.entries, m.trayCursor, -1)
	case k.TrayRefresh:
		m.buildTray()
		m.status = "Tray refreshed"
	case k.Confirm:
		if m.trayCursor < 0 || m.trayCursor >= len(m.entries) {
			return m, nil
		}
		var (
			quit    bool
			openID  *string
			opened  bool
			refresh bool
		)
		tray.Activate(m.entries[m.trayCursor], tray.Handlers{
			Open:    func(id *string) { opened, openID = true, id },
			Refresh: func() { refresh = true },
			Quit:    func() { quit = true },
		})
		switch {
		case quit:
			return m, tea.Quit
		case refresh:
			m.buildTray()
			m.status = "Tray refreshed"
		case opened:
			m.mode = modeList
			m.status = "Opened"
			if openID != nil && !m.focus(*openID) {
				m.filter = view.FilterAll
				m.reload()
				m.focus(*openID)
			}
		}
	}
	return m, nil
}

// nextClickable finds the next clickable entry from cur in direction dir.
// dir 0 keeps cur when it is clickable.
func nextClickable(entries []tray.Entry, cur, dir int) int {
	n := len(entries)
	if n == 0 {
		return 0
	}
	if dir == 0 {
		if cur >= 0 && cur < n && tray.Clickable(entries[cur]) {
			return cur
		}
		dir = 1
		cur = -1
	}
	for i := cur + dir; i >= 0 && i < n; i += dir {
		if tray.Clickable(entries[i]) {
			return i
		}
	}
	if cur < 0 || cur >= n {
		return 0
	}
	return cur
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		if m.pendingDel == nil {
			m.status = "Nothing to delete"
			m.confirmDel = false
			return m, nil
		}
		m.store.Delete(m.pendingDel.ID)
		m.reload()
		m.status = "Deleted task"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) describe(t storage.Task) string {
	info := fmt.Sprintf("%s • %s", t.Title, humanDone(t.Completed))
	if t.DueDate != nil {
		info += " • due:" + t.DueDate.String()
	}
	if t.Recurrence != nil {
		info += " • repeats:" + recurrence.Format(t.Recurrence)
		if t.NextGenerated {
			info += " (next created)"
		}
	}
	if t.IsToday {
		info += " • today"
	}
	if t.Memo != nil {
		info += " • memo:" + *t.Memo
	}
	return info
}

func (m Model) startMetadataEdit(t storage.Task) (tea.Model, tea.Cmd) {
	m.meta = &metaState{
		taskID:     t.ID,
		title:      t.Title,
		due:        formatDate(t.DueDate),
		recurrence: recurrence.Format(t.Recurrence),
		memo:       derefString(t.Memo),
	}
	m.input.SetValue(m.meta.currentValue())
	m.input.Placeholder = m.meta.currentLabel()
	m.input.Focus()
	m.mode = modeMetadata
	m.status = "Edit task: tab/shift+tab to move, enter to save/next, esc to cancel"
	return m, nil
}

func (m Model) updateMetadataMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.meta = nil
		m.mode = modeList
		m.input.Blur()
		m.status = "Edit cancelled"
		return m, nil
	case "tab", "down":
		m.moveMeta(1)
		return m, nil
	case "shift+tab", "up":
		m.moveMeta(-1)
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.meta.setCurrentValue(m.input.Value())
		if m.meta.index >= len(metaFields())-1 {
			return m.saveMetadata()
		}
		m.moveMeta(1)
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) moveMeta(step int) {
	m.meta.setCurrentValue(m.input.Value())
	m.meta.index = wrapIndex(m.meta.index+step, len(metaFields()))
	m.input.SetValue(m.meta.currentValue())
	m.input.Placeholder = m.meta.currentLabel()
	m.status = m.metaPrompt()
}

func (m Model) saveMetadata() (tea.Model, tea.Cmd) {
	ms := m.meta
	if strings.TrimSpace(ms.title) == "" {
		m.status = "Title cannot be empty"
		return m, nil
	}
	due, err := parseDate(ms.due)
	if err != nil {
		m.status = fmt.Sprintf("due date invalid: %v", err)
		return m, nil
	}
	rule, err := recurrence.Parse(ms.recurrence)
	if err != nil {
		m.status = fmt.Sprintf("recurrence invalid: %v", err)
		return m, nil
	}
	memo := ms.memo

	m.store.Rename(ms.taskID, ms.title)
	m.store.SetDueDate(ms.taskID, due)
	m.store.SetRecurrence(ms.taskID, rule)
	m.store.SetMemo(ms.taskID, &memo)

	m.meta = nil
	m.mode = modeList
	m.input.Blur()
	m.reload()
	m.focus(ms.taskID)
	m.status = "Task saved"
	return m, nil
}

func metaFields() []string {
	return []string{"title", "due date (YYYY-MM-DD)", "recurrence (weekly:1,3,5 / monthly:15)", "memo"}
}

func (ms metaState) currentLabel() string {
	return metaFields()[ms.index]
}

func (ms metaState) currentValue() string {
	switch ms.index {
	case 0:
		return ms.title
	case 1:
		return ms.due
	case 2:
		return ms.recurrence
	case 3:
		return ms.memo
	default:
		return ""
	}
}

func (ms *metaState) setCurrentValue(v string) {
	switch ms.index {
	case 0:
		ms.title = v
	case 1:
		ms.due = v
	case 2:
		ms.recurrence = v
	case 3:
		ms.memo = v
	}
}

func (m Model) metaPrompt() string {
	if m.meta == nil {
		return ""
	}
	return fmt.Sprintf("Editing %s (field %d of %d). Enter to advance, Esc to cancel.",
		m.meta.currentLabel(), m.meta.index+1, len(metaFields()))
}

func parseDate(v string) (*calendar.Date, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := calendar.Parse(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func formatDate(d *calendar.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func humanDone(done bool) string {
	if done {
		return "done"
	}
	return "pending"
}
