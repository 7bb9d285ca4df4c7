package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"todaybox/internal/calendar"
	"todaybox/internal/config"
)

// Scheduler runs the day-rollover and refresh jobs of a process on one cron.
type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location
	Now  func() time.Time
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		loc:  loc,
		Now:  time.Now,
	}
}

// Daily runs job every day at clock (HH:MM) in the scheduler's zone.
func (s *Scheduler) Daily(clock string, job func()) (cron.EntryID, error) {
	spec, err := dailySpec(clock)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// OnRollover is Daily with the instant of the following rollover handed to job.
func (s *Scheduler) OnRollover(clock string, job func(next time.Time)) (cron.EntryID, error) {
	if _, err := s.NextRollover(clock, s.Now()); err != nil {
		return 0, err
	}
	return s.Daily(clock, func() {
		next, _ := s.NextRollover(clock, s.Now())
		job(next)
	})
}

// Every runs job on a fixed period, truncated to whole seconds with a floor of one.
func (s *Scheduler) Every(d time.Duration, job func()) (cron.EntryID, error) {
	if d <= 0 {
		return 0, fmt.Errorf("refresh period %s must be positive", d)
	}
	secs := max(int(d/time.Second), 1)
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", secs), job)
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop blocks until running jobs return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// NextRollover is the first clock instant strictly after now.
func (s *Scheduler) NextRollover(clock string, now time.Time) (time.Time, error) {
	hour, minute, err := config.ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	now = now.In(s.loc)
	day := calendar.FromTime(now)
	next := calendar.At(day, hour, minute, s.loc)
	if !next.After(now) {
		next = calendar.At(day.AddDays(1), hour, minute, s.loc)
	}
	return next, nil
}

// dailySpec renders clock as a seconds-first cron line.
func dailySpec(clock string) (string, error) {
	hour, minute, err := config.ParseClock(clock)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
