package server

import (
	"fmt"
	"strings"
	"time"

	"todaybox/internal/calendar"
	"todaybox/internal/recurrence"
	"todaybox/internal/storage"
	"todaybox/internal/tray"
)

type TaskResponse struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Completed     bool             `json:"completed"`
	CreatedAt     time.Time        `json:"createdAt"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	DueDate       *string          `json:"dueDate,omitempty"`
	Recurrence    *recurrence.Rule `json:"recurrence,omitempty"`
	NextGenerated bool             `json:"nextGenerated"`
	IsToday       bool             `json:"isToday"`
	Memo          *string          `json:"memo,omitempty"`
}

type TaskListResponse struct {
	Incomplete []TaskResponse `json:"incomplete"`
	Completed  []TaskResponse `json:"completed"`
}

type CreateTaskRequest struct {
	Title      string           `json:"title" minLength:"1" maxLength:"256"`
	DueDate    *string          `json:"dueDate,omitempty" nullable:"true" example:"2026-02-16"`
	Recurrence *recurrence.Rule `json:"recurrence,omitempty"`
	IsToday    bool             `json:"isToday,omitempty"`
	Memo       *string          `json:"memo,omitempty" nullable:"true"`
}

type DueDateRequest struct {
	DueDate *string `json:"dueDate,omitempty" nullable:"true" example:"2026-02-16"`
}

type RecurrenceRequest struct {
	Recurrence *recurrence.Rule `json:"recurrence,omitempty"`
}

type MemoRequest struct {
	Memo *string `json:"memo,omitempty" nullable:"true"`
}

type TitleRequest struct {
	Title string `json:"title" minLength:"1" maxLength:"256"`
}

// TrayEntryResponse is the wire form of a tray.Entry.
type TrayEntryResponse struct {
	Kind      string  `json:"kind"`
	Label     string  `json:"label"`
	Sublabel  *string `json:"sublabel,omitempty"`
	TaskID    *string `json:"taskId,omitempty"`
	Completed bool    `json:"completed,omitempty"`
	Enabled   bool    `json:"enabled"`
}

func toTaskResponse(t storage.Task) TaskResponse {
	resp := TaskResponse{
		ID:            t.ID,
		Title:         t.Title,
		Completed:     t.Completed,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
		Recurrence:    t.Recurrence,
		NextGenerated: t.NextGenerated,
		IsToday:       t.IsToday,
		Memo:          t.Memo,
	}
	if t.DueDate != nil {
		s := t.DueDate.String()
		resp.DueDate = &s
	}
	return resp
}

func toTaskResponses(tasks []storage.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}

// TrayResponses converts built menu entries to their wire form.
func TrayResponses(entries []tray.Entry) []TrayEntryResponse {
	out := make([]TrayEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp := TrayEntryResponse{
			Kind:    string(e.Kind()),
			Label:   tray.Label(e),
			Enabled: tray.Clickable(e),
		}
		switch e := e.(type) {
		case tray.Task:
			id := e.ID
			resp.TaskID = &id
			resp.Sublabel = e.Sublabel
			resp.Completed = e.Completed
		case tray.Summary, tray.Overflow, tray.Empty, tray.Error,
			tray.Separator, tray.Open, tray.Refresh, tray.Quit:
		}
		out = append(out, resp)
	}
	return out
}

func parseDueDate(v *string) (*calendar.Date, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	d, err := calendar.Parse(*v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func checkRule(r *recurrence.Rule) error {
	if r == nil {
		return nil
	}
	switch r.Kind {
	case recurrence.Weekly:
		for _, w := range r.Weekdays {
			if w < 0 || w > 6 {
				return fmt.Errorf("weekday %d out of range 0..6", w)
			}
		}
	case recurrence.Monthly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return fmt.Errorf("dayOfMonth %d out of range 1..31", r.DayOfMonth)
		}
	default:
		return fmt.Errorf("unknown recurrence type %q", r.Kind)
	}
	return nil
}
