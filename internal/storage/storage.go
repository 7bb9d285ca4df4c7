package storage

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"todaybox/internal/calendar"
	"todaybox/internal/recurrence"
)

type Task struct {
	ID          string
	Title       string
	Completed   bool
	CreatedAt   time.Time
	CompletedAt *time.Time
	DueDate     *calendar.Date
	Recurrence  *recurrence.Rule
	// NextGenerated is set once the follow-up occurrence for the current rule exists.
	NextGenerated bool
	IsToday       bool
	Memo          *string
}

// NewTask carries the fields accepted on creation.
type NewTask struct {
	Title      string
	DueDate    *calendar.Date
	Recurrence *recurrence.Rule
	IsToday    bool
	Memo       *string
}

type Op string

const (
	OpCreate     Op = "create"
	OpComplete   Op = "complete"
	OpReopen     Op = "reopen"
	OpToday      Op = "today"
	OpDueDate    Op = "due_date"
	OpRecurrence Op = "recurrence"
	OpMemo       Op = "memo"
	OpRename     Op = "rename"
	OpDelete     Op = "delete"
)

// Change is delivered to subscribers after a mutation altered the collection.
// GeneratedID is set when completing a recurring task appended its next occurrence.
type Change struct {
	Op          Op
	TaskID      string
	GeneratedID string
}

// Store owns the task collection. Unknown ids are ignored by every mutation.
type Store interface {
	Tasks() []Task
	Get(id string) (Task, bool)
	Create(in NewTask) (Task, bool)
	ToggleCompletion(id string)
	ToggleToday(id string)
	SetDueDate(id string, due *calendar.Date)
	SetRecurrence(id string, rule *recurrence.Rule)
	SetMemo(id string, memo *string)
	Rename(id, title string)
	Delete(id string)
	Subscribe(fn func(Change)) (unsubscribe func())
}

// MemoryStore is the in-process Store. The zero value is usable; nil hooks fall
// back to time.Now, uuid.NewString and the standard logger.
type MemoryStore struct {
	Now    func() time.Time
	NewID  func() string
	Logger *log.Logger

	mu    sync.RWMutex
	tasks []Task

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Now:    time.Now,
		NewID:  uuid.NewString,
		Logger: log.New(os.Stderr, "store: ", log.LstdFlags),
		subs:   make(map[int]func(Change)),
	}
}

func (s *MemoryStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MemoryStore) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *MemoryStore) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (s *MemoryStore) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.clone()
	}
	return out
}

func (s *MemoryStore) Get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i].clone(), true
	}
	return Task{}, false
}

func (s *MemoryStore) Create(in NewTask) (Task, bool) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Task{}, false
	}
	s.mu.Lock()
	t := Task{
		ID:         s.newID(),
		Title:      title,
		CreatedAt:  s.now(),
		DueDate:    cloneDate(in.DueDate),
		Recurrence: recurrence.Clone(in.Recurrence),
		IsToday:    in.IsToday,
		Memo:       normalizeMemo(in.Memo),
	}
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()

	s.publish(Change{Op: OpCreate, TaskID: t.ID})
	return t.clone(), true
}

func (s *MemoryStore) ToggleCompletion(id string) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	change := Change{TaskID: id}
	t := &s.tasks[i]
	if t.Completed {
		t.Completed = false
		t.CompletedAt = nil
		change.Op = OpReopen
	} else {
		now := s.now()
		t.Completed = true
		t.CompletedAt = &now
		change.Op = OpComplete
		if next, ok := s.nextOccurrence(*t); ok {
			t.NextGenerated = true
			// append may reallocate, t is not used past this point
			s.tasks = append(s.tasks, next)
			change.GeneratedID = next.ID
		}
	}
	s.mu.Unlock()

	s.publish(change)
}

// nextOccurrence builds the sibling for a task that was just completed.
func (s *MemoryStore) nextOccurrence(t Task) (Task, bool) {
	if t.Recurrence == nil || t.NextGenerated {
		return Task{}, false
	}
	base := calendar.FromTime(t.CreatedAt.In(time.Local))
	if t.DueDate != nil {
		base = *t.DueDate
	}
	due, ok := recurrence.NextDueDate(*t.Recurrence, base)
	if !ok {
		return Task{}, false
	}
	return Task{
		ID:         s.newID(),
		Title:      t.Title,
		CreatedAt:  s.now(),
		DueDate:    &due,
		Recurrence: recurrence.Clone(t.Recurrence),
		Memo:       normalizeMemo(t.Memo),
	}, true
}

func (s *MemoryStore) ToggleToday(id string) {
	s.mutate(id, OpToday, func(t *Task) bool {
		t.IsToday = !t.IsToday
		return true
	})
}

func (s *MemoryStore) SetDueDate(id string, due *calendar.Date) {
	s.mutate(id, OpDueDate, func(t *Task) bool {
		if sameDate(t.DueDate, due) {
			return false
		}
		t.DueDate = cloneDate(due)
		return true
	})
}

func (s *MemoryStore) SetRecurrence(id string, rule *recurrence.Rule) {
	s.mutate(id, OpRecurrence, func(t *Task) bool {
		if rule == nil {
			if t.Recurrence == nil && !t.NextGenerated {
				return false
			}
			t.Recurrence = nil
			t.NextGenerated = false
			return true
		}
		if recurrence.Equal(t.Recurrence, rule) {
			return false
		}
		t.Recurrence = recurrence.Clone(rule)
		t.NextGenerated = false
		return true
	})
}

func (s *MemoryStore) SetMemo(id string, memo *string) {
	memo = normalizeMemo(memo)
	s.mutate(id, OpMemo, func(t *Task) bool {
		if sameString(t.Memo, memo) {
			return false
		}
		t.Memo = memo
		return true
	})
}

func (s *MemoryStore) Rename(id, title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}
	s.mutate(id, OpRename, func(t *Task) bool {
		if t.Title == title {
			return false
		}
		t.Title = title
		return true
	})
}

func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.mu.Unlock()

	s.publish(Change{Op: OpDelete, TaskID: id})
}

// mutate applies fn to the task under the write lock and publishes when fn reports a change.
func (s *MemoryStore) mutate(id string, op Op, fn func(t *Task) bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	changed := fn(&s.tasks[i])
	s.mu.Unlock()

	if changed {
		s.publish(Change{Op: op, TaskID: id})
	}
}

func (s *MemoryStore) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (t Task) clone() Task {
	c := t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	c.DueDate = cloneDate(t.DueDate)
	c.Recurrence = recurrence.Clone(t.Recurrence)
	if t.Memo != nil {
		m := *t.Memo
		c.Memo = &m
	}
	return c
}

func cloneDate(d *calendar.Date) *calendar.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func normalizeMemo(memo *string) *string {
	if memo == nil || strings.TrimSpace(*memo) == "" {
		return nil
	}
	m := *memo
	return &m
}

func sameDate(a, b *calendar.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
