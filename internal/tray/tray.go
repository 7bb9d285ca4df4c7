package tray

import (
	"fmt"
	"strings"

	"todaybox/internal/calendar"
	"todaybox/internal/view"
)

type Kind string

const (
	KindSummary   Kind = "summary"
	KindTask      Kind = "task"
	KindOverflow  Kind = "overflow"
	KindEmpty     Kind = "empty"
	KindError     Kind = "error"
	KindSeparator Kind = "separator"
	KindOpen      Kind = "open"
	KindRefresh   Kind = "refresh"
	KindQuit      Kind = "quit"
)

const (
	calendarGlyph   = "📅"
	recurrenceGlyph = "🔁"
	strikeMark      = '\u0336'
)

// Entry is one row of the menu. The set of implementations is closed.
type Entry interface {
	Kind() Kind
	entry()
}

type Summary struct{ Count int }

type Task struct {
	ID        string
	Label     string
	Sublabel  *string
	Completed bool
}

type Overflow struct{ Hidden int }

type Empty struct{}

type Error struct{}

type Separator struct{}

type Open struct{}

type Refresh struct{}

type Quit struct{}

func (Summary) Kind() Kind   { return KindSummary }
func (Task) Kind() Kind      { return KindTask }
func (Overflow) Kind() Kind  { return KindOverflow }
func (Empty) Kind() Kind     { return KindEmpty }
func (Error) Kind() Kind     { return KindError }
func (Separator) Kind() Kind { return KindSeparator }
func (Open) Kind() Kind      { return KindOpen }
func (Refresh) Kind() Kind   { return KindRefresh }
func (Quit) Kind() Kind      { return KindQuit }

func (Summary) entry()   {}
func (Task) entry()      {}
func (Overflow) entry()  {}
func (Empty) entry()     {}
func (Error) entry()     {}
func (Separator) entry() {}
func (Open) entry()      {}
func (Refresh) entry()   {}
func (Quit) entry()      {}

type Options struct {
	Error bool
	// TodayDate anchors relative due labels; the payload's UpdatedAt date is used when nil.
	TodayDate *calendar.Date
	// MaxItems caps task rows and adds an overflow row. Zero means no cap.
	MaxItems int
}

// Build turns a today payload (nil while not loaded yet) into menu entries.
func Build(payload *view.TodayTasksPayload, opts Options) []Entry {
	if opts.Error {
		return append([]Entry{Error{}, Separator{}}, footer()...)
	}
	if payload == nil {
		return append([]Entry{Summary{Count: 0}, Empty{}, Separator{}}, footer()...)
	}

	today := calendar.Today(payload.UpdatedAt)
	if opts.TodayDate != nil {
		today = *opts.TodayDate
	}

	entries := []Entry{Summary{Count: payload.Count}}
	items := payload.Items
	hidden := 0
	if opts.MaxItems > 0 && len(items) > opts.MaxItems {
		hidden = len(items) - opts.MaxItems
		items = items[:opts.MaxItems]
	}
	if len(items) == 0 {
		entries = append(entries, Empty{})
	}
	for _, it := range items {
		entries = append(entries, taskEntry(it, today))
	}
	if hidden > 0 {
		entries = append(entries, Overflow{Hidden: hidden})
	}
	entries = append(entries, Separator{})
	return append(entries, footer()...)
}

func footer() []Entry {
	return []Entry{Open{}, Refresh{}, Separator{}, Quit{}}
}

func taskEntry(it view.TodayTaskItem, today calendar.Date) Task {
	label := it.Title
	if it.Completed {
		label = Strikethrough(it.Title)
	}
	return Task{
		ID:        it.ID,
		Label:     label,
		Sublabel:  sublabel(it, today),
		Completed: it.Completed,
	}
}

func sublabel(it view.TodayTaskItem, today calendar.Date) *string {
	parts := make([]string, 0, 2)
	if it.DueDate != nil {
		due := *it.DueDate
		if d, err := calendar.Parse(due); err == nil {
			due = calendar.Label(d, today)
		}
		parts = append(parts, calendarGlyph+" "+due)
	}
	if it.RecurrenceLabel != nil {
		parts = append(parts, recurrenceGlyph+" "+*it.RecurrenceLabel)
	}
	if len(parts) == 0 {
		return nil
	}
	s := strings.Join(parts, "  ")
	return &s
}

// Strikethrough follows every rune with a combining long stroke overlay.
func Strikethrough(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for _, r := range s {
		b.WriteRune(r)
		b.WriteRune(strikeMark)
	}
	return b.String()
}

// Label is the display text for entries that have a fixed caption.
func Label(e Entry) string {
	switch e := e.(type) {
	case Summary:
		return fmt.Sprintf("Today: %d", e.Count)
	case Task:
		return e.Label
	case Overflow:
		return fmt.Sprintf("+%d more", e.Hidden)
	case Empty:
		return "No tasks for today"
	case Error:
		return "Failed to load tasks"
	case Separator:
		return ""
	case Open:
		return "Open TodayBox"
	case Refresh:
		return "Refresh"
	case Quit:
		return "Quit"
	}
	panic(fmt.Sprintf("tray: unhandled entry %T", e))
}

// Clickable reports whether the entry triggers a callback.
func Clickable(e Entry) bool {
	switch e.(type) {
	case Task, Overflow, Open, Refresh, Quit:
		return true
	case Summary, Empty, Error, Separator:
		return false
	}
	panic(fmt.Sprintf("tray: unhandled entry %T", e))
}

// Handlers are the callbacks a menu surface wires to clickable entries.
type Handlers struct {
	Open    func(taskID *string)
	Refresh func()
	Quit    func()
}

// Activate runs the handler behind e. Task and overflow entries open the app,
// a task entry passes its id along.
func Activate(e Entry, h Handlers) {
	switch e := e.(type) {
	case Task:
		if h.Open != nil {
			id := e.ID
			h.Open(&id)
		}
	case Overflow, Open:
		if h.Open != nil {
			h.Open(nil)
		}
	case Refresh:
		if h.Refresh != nil {
			h.Refresh()
		}
	case Quit:
		if h.Quit != nil {
			h.Quit()
		}
	case Summary, Empty, Error, Separator:
	}
}
