package ingest

import (
	"context"
	"time"

	"market-map/internal/logger"
)

// nextWeekdayAt: next occurrence of weekday at hour:00 in loc strictly after now.
func nextWeekdayAt(now time.Time, loc *time.Location, weekday time.Weekday, hour int) time.Time {
	now = now.In(loc)
	for i := 0; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		if d.Weekday() != weekday {
			continue
		}
		t := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
		if t.After(now) {
			return t
		}
	}
	d := now.AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
}

// StartWeekly runs job every week at weekday hour:00 in loc until ctx is done.
// Errors are logged; the schedule continues.
func StartWeekly(ctx context.Context, loc *time.Location, weekday time.Weekday, hour int, job func(context.Context) error) {
	if loc == nil {
		loc = time.Local
	}
	l := logger.L()
	next := nextWeekdayAt(time.Now(), loc, weekday, hour)
	l.Info("ingest_scheduled", "next", next)
	go func() {
		for {
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			l.Info("ingest_start", "at", next)
			if err := job(ctx); err != nil {
				l.Error("ingest_error", "err", err)
			}
			next = next.AddDate(0, 0, 7)
		}
	}()
}
