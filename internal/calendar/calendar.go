package calendar

import (
	"fmt"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// Relation describes where a date sits relative to a reference date.
type Relation int

const (
	RelationNone Relation = iota
	RelationYesterday
	RelationToday
	RelationTomorrow
)

func New(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// FromTime returns the calendar date of t in t's own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the local calendar date of now.
func Today(now time.Time) Date {
	return FromTime(now.In(time.Local))
}

func Parse(v string) (Date, error) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(v))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", v, err)
	}
	return FromTime(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return FromTime(d.Time(time.UTC).AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

func (d Date) Before(o Date) bool { return Compare(d, o) < 0 }
func (d Date) After(o Date) bool  { return Compare(d, o) > 0 }
func (d Date) Equal(o Date) bool  { return Compare(d, o) == 0 }

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Compare returns -1, 0 or 1.
func Compare(a, b Date) int {
	switch {
	case a.Year != b.Year:
		return sign(a.Year - b.Year)
	case a.Month != b.Month:
		return sign(int(a.Month) - int(b.Month))
	default:
		return sign(a.Day - b.Day)
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func Relative(d, ref Date) Relation {
	switch {
	case d.Equal(ref):
		return RelationToday
	case d.Equal(ref.AddDays(-1)):
		return RelationYesterday
	case d.Equal(ref.AddDays(1)):
		return RelationTomorrow
	}
	return RelationNone
}

// Format renders d as M/D inside ref's year and Y/M/D otherwise.
func Format(d, ref Date) string {
	if d.Year == ref.Year {
		return fmt.Sprintf("%d/%d", int(d.Month), d.Day)
	}
	return fmt.Sprintf("%d/%d/%d", d.Year, int(d.Month), d.Day)
}

// Label prefers a relative word and falls back to Format.
func Label(d, ref Date) string {
	switch Relative(d, ref) {
	case RelationYesterday:
		return "Yesterday"
	case RelationToday:
		return "Today"
	case RelationTomorrow:
		return "Tomorrow"
	}
	return Format(d, ref)
}

func LastDayOfMonth(year int, month time.Month) int {
	// day 0 of the following month normalizes to the last day of month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// At combines d with a wall clock time in loc.
func At(d Date, hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}
