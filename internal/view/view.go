package view

import (
	"fmt"
	"sort"
	"strings"

	"todaybox/internal/calendar"
	"todaybox/internal/storage"
)

type FilterMode string

const (
	FilterAll   FilterMode = "all"
	FilterToday FilterMode = "today"
)

type SortMode string

const (
	SortCreated SortMode = "created"
	SortDue     SortMode = "due"
)

func ParseFilter(v string) (FilterMode, error) {
	switch FilterMode(strings.ToLower(strings.TrimSpace(v))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterToday:
		return FilterToday, nil
	}
	return "", fmt.Errorf("unknown filter %q (want all or today)", v)
}

func ParseSort(v string) (SortMode, error) {
	switch SortMode(strings.ToLower(strings.TrimSpace(v))) {
	case "", SortCreated:
		return SortCreated, nil
	case SortDue:
		return SortDue, nil
	}
	return "", fmt.Errorf("unknown sort %q (want created or due)", v)
}

// Next cycles through the sort modes.
func (m SortMode) Next() SortMode {
	if m == SortDue {
		return SortCreated
	}
	return SortDue
}

// SplitByCompletion partitions tasks keeping input order in both halves.
func SplitByCompletion(tasks []storage.Task) (incomplete, completed []storage.Task) {
	incomplete = make([]storage.Task, 0, len(tasks))
	completed = make([]storage.Task, 0)
	for _, t := range tasks {
		if t.Completed {
			completed = append(completed, t)
		} else {
			incomplete = append(incomplete, t)
		}
	}
	return incomplete, completed
}

func SortByCreated(tasks []storage.Task) []storage.Task {
	out := copyTasks(tasks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SortByDue orders by due date; undated tasks go last.
func SortByDue(tasks []storage.Task) []storage.Task {
	out := copyTasks(tasks)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].DueDate, out[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return out
}

// SortCompletedByRecent puts the most recently completed first.
func SortCompletedByRecent(tasks []storage.Task) []storage.Task {
	out := copyTasks(tasks)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CompletedAt, out[j].CompletedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out
}

func FilterByTodayFlag(tasks []storage.Task, mode FilterMode) []storage.Task {
	if mode != FilterToday {
		return tasks
	}
	out := make([]storage.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsToday {
			out = append(out, t)
		}
	}
	return out
}

type Options struct {
	Filter FilterMode
	Sort   SortMode
}

// List is what the list renderers draw; they must not reorder it.
type List struct {
	Incomplete []storage.Task
	Completed  []storage.Task
}

func BuildList(tasks []storage.Task, opts Options) List {
	incomplete, completed := SplitByCompletion(FilterByTodayFlag(tasks, opts.Filter))
	switch opts.Sort {
	case SortDue:
		incomplete = SortByDue(incomplete)
	default:
		incomplete = SortByCreated(incomplete)
	}
	return List{
		Incomplete: incomplete,
		Completed:  SortCompletedByRecent(completed),
	}
}

// Rows flattens the list in render order.
func (l List) Rows() []storage.Task {
	out := make([]storage.Task, 0, len(l.Incomplete)+len(l.Completed))
	out = append(out, l.Incomplete...)
	return append(out, l.Completed...)
}

func copyTasks(tasks []storage.Task) []storage.Task {
	out := make([]storage.Task, len(tasks))
	copy(out, tasks)
	return out
}

// dueText is the ISO form of an optional due date.
func dueText(d *calendar.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
