package recurrence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"todaybox/internal/calendar"
)

type Kind string

const (
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
)

// Rule describes how a completed task produces its next occurrence.
// Weekdays is used by Weekly (0..6, Sunday=0), DayOfMonth by Monthly (1..31).
type Rule struct {
	Kind       Kind  `json:"type" enum:"weekly,monthly"`
	Weekdays   []int `json:"weekdays,omitempty"`
	DayOfMonth int   `json:"dayOfMonth,omitempty"`
}

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

func WeeklyOn(days ...int) *Rule {
	return &Rule{Kind: Weekly, Weekdays: days}
}

func MonthlyOn(day int) *Rule {
	return &Rule{Kind: Monthly, DayOfMonth: day}
}

// Canonical returns a copy with weekdays deduplicated, sorted and range checked.
func Canonical(r Rule) Rule {
	out := Rule{Kind: r.Kind}
	switch r.Kind {
	case Weekly:
		seen := [7]bool{}
		for _, w := range r.Weekdays {
			if w < 0 || w > 6 || seen[w] {
				continue
			}
			seen[w] = true
			out.Weekdays = append(out.Weekdays, w)
		}
		sort.Ints(out.Weekdays)
	case Monthly:
		out.DayOfMonth = r.DayOfMonth
	}
	return out
}

// Clone returns a deep copy of r, nil stays nil.
func Clone(r *Rule) *Rule {
	if r == nil {
		return nil
	}
	c := *r
	c.Weekdays = append([]int(nil), r.Weekdays...)
	return &c
}

// Equal compares two optional rules by canonical value.
func Equal(a, b *Rule) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ca, cb := Canonical(*a), Canonical(*b)
	if ca.Kind != cb.Kind || ca.DayOfMonth != cb.DayOfMonth || len(ca.Weekdays) != len(cb.Weekdays) {
		return false
	}
	for i := range ca.Weekdays {
		if ca.Weekdays[i] != cb.Weekdays[i] {
			return false
		}
	}
	return true
}

// NextDueDate returns the first occurrence strictly after base.
func NextDueDate(r Rule, base calendar.Date) (calendar.Date, bool) {
	switch r.Kind {
	case Weekly:
		return nextWeekly(Canonical(r).Weekdays, base)
	case Monthly:
		return nextMonthly(r.DayOfMonth, base)
	}
	return calendar.Date{}, false
}

func nextWeekly(weekdays []int, base calendar.Date) (calendar.Date, bool) {
	if len(weekdays) == 0 {
		return calendar.Date{}, false
	}
	from := int(base.Weekday())
	best := 8
	for _, w := range weekdays {
		offset := (w - from + 7) % 7
		if offset == 0 {
			offset = 7
		}
		if offset < best {
			best = offset
		}
	}
	return base.AddDays(best), true
}

func nextMonthly(day int, base calendar.Date) (calendar.Date, bool) {
	if day < 1 {
		return calendar.Date{}, false
	}
	candidate := clampDay(base.Year, base.Month, day)
	if !candidate.After(base) {
		y, m := base.Year, base.Month+1
		if m > 12 {
			y, m = y+1, 1
		}
		candidate = clampDay(y, m, day)
	}
	return candidate, true
}

func clampDay(year int, month time.Month, day int) calendar.Date {
	if last := calendar.LastDayOfMonth(year, month); day > last {
		day = last
	}
	return calendar.New(year, month, day)
}

// Label renders a short human label, false when the rule is effectively empty.
func Label(r Rule) (string, bool) {
	c := Canonical(r)
	switch c.Kind {
	case Weekly:
		if len(c.Weekdays) == 0 {
			return "", false
		}
		parts := make([]string, 0, len(c.Weekdays))
		for _, w := range c.Weekdays {
			parts = append(parts, weekdayLabels[w])
		}
		return strings.Join(parts, ", "), true
	case Monthly:
		if c.DayOfMonth < 1 {
			return "", false
		}
		return fmt.Sprintf("Day %d", c.DayOfMonth), true
	}
	return "", false
}

// Parse reads the short text form used by the terminal UI and CLI:
// "weekly:1,3,5", "weekly:mon,wed", "monthly:15". Empty text means no rule.
func Parse(v string) (*Rule, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || v == "none" {
		return nil, nil
	}
	kind, rest, ok := strings.Cut(v, ":")
	if !ok {
		return nil, fmt.Errorf("recurrence %q: expected weekly:<days> or monthly:<day>", v)
	}
	switch Kind(strings.TrimSpace(kind)) {
	case Weekly:
		var days []int
		for _, part := range strings.Split(rest, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			w, err := parseWeekday(part)
			if err != nil {
				return nil, err
			}
			days = append(days, w)
		}
		if len(days) == 0 {
			return nil, fmt.Errorf("recurrence %q: no weekdays", v)
		}
		r := Canonical(Rule{Kind: Weekly, Weekdays: days})
		return &r, nil
	case Monthly:
		day, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil || day < 1 || day > 31 {
			return nil, fmt.Errorf("recurrence %q: day of month must be 1..31", v)
		}
		return MonthlyOn(day), nil
	}
	return nil, fmt.Errorf("recurrence %q: unknown type %q", v, kind)
}

func parseWeekday(v string) (int, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday %d out of range 0..6", n)
		}
		return n, nil
	}
	for i, label := range weekdayLabels {
		if strings.HasPrefix(v, strings.ToLower(label)) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", v)
}

// Format is the inverse of Parse.
func Format(r *Rule) string {
	if r == nil {
		return ""
	}
	c := Canonical(*r)
	switch c.Kind {
	case Weekly:
		parts := make([]string, 0, len(c.Weekdays))
		for _, w := range c.Weekdays {
			parts = append(parts, strconv.Itoa(w))
		}
		return "weekly:" + strings.Join(parts, ",")
	case Monthly:
		return fmt.Sprintf("monthly:%d", c.DayOfMonth)
	}
	return ""
}
