package mapping

import (
	"fmt"
	"strings"
	"time"
)

const stayDateLayout = "2006-01-02"

// DateWindow is the inclusive range of check-in dates a sync cares about.
// Bounds are calendar dates (midnight UTC) computed in the tenant's location.
type DateWindow struct {
	From time.Time
	To   time.Time
}

// NewDateWindow builds [today - pastMonths, today + futureYears] where
// today is now's calendar date in loc.
func NewDateWindow(now time.Time, loc *time.Location, pastMonths, futureYears int) DateWindow {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	return DateWindow{
		From: today.AddDate(0, -pastMonths, 0),
		To:   today.AddDate(futureYears, 0, 0),
	}
}

// Contains reports whether the calendar date d falls inside the window.
func (w DateWindow) Contains(d time.Time) bool {
	return !d.Before(w.From) && !d.After(w.To)
}

func (w DateWindow) String() string {
	return fmt.Sprintf("[%s, %s]", w.From.Format(stayDateLayout), w.To.Format(stayDateLayout))
}

// ParseStayDate reads a PMS date ("2006-01-02", optionally followed by a
// time part) as a calendar date at midnight UTC.
func ParseStayDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(stayDateLayout) {
		raw = raw[:len(stayDateLayout)]
	}
	return time.Parse(stayDateLayout, raw)
}
