package view

import (
	"time"

	"todaybox/internal/recurrence"
	"todaybox/internal/storage"
)

type TodayTaskItem struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Completed       bool    `json:"completed"`
	DueDate         *string `json:"dueDate"`
	HasRecurrence   bool    `json:"hasRecurrence"`
	RecurrenceLabel *string `json:"recurrenceLabel"`
}

type TodayTasksPayload struct {
	Count     int             `json:"count"`
	Items     []TodayTaskItem `json:"items"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// BuildTodayPayload projects the today-pinned tasks, open ones first. Order inside
// each group follows the input; it is not re-sorted by due date.
func BuildTodayPayload(tasks []storage.Task, now time.Time) TodayTasksPayload {
	var open, done []storage.Task
	for _, t := range tasks {
		if !t.IsToday {
			continue
		}
		if t.Completed {
			done = append(done, t)
		} else {
			open = append(open, t)
		}
	}

	items := make([]TodayTaskItem, 0, len(open)+len(done))
	for _, t := range append(open, done...) {
		items = append(items, todayItem(t))
	}
	return TodayTasksPayload{
		Count:     len(items),
		Items:     items,
		UpdatedAt: now,
	}
}

func todayItem(t storage.Task) TodayTaskItem {
	item := TodayTaskItem{
		ID:            t.ID,
		Title:         t.Title,
		Completed:     t.Completed,
		DueDate:       dueText(t.DueDate),
		HasRecurrence: t.Recurrence != nil,
	}
	if t.Recurrence != nil {
		if label, ok := recurrence.Label(*t.Recurrence); ok {
			item.RecurrenceLabel = &label
		}
	}
	return item
}
