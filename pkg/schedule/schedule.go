// Package schedule turns an offer's calendar date and time-of-day bounds into
// concrete instants and answers window questions about them.
package schedule

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the stored layout of an offer's scheduled date
	DateLayout = "2006-01-02"
	// TimeLayout is the stored layout of start/end time-of-day
	TimeLayout = "15:04"
	// timeLayoutSeconds is accepted on input for clients that send seconds
	timeLayoutSeconds = "15:04:05"
)

// Window is a shift interval [Start, End) on a single calendar date
type Window struct {
	Date  string
	Start time.Time
	End   time.Time
}

// Parse builds a window from a date and two time-of-day strings interpreted in loc
func Parse(date, start, end string, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return Window{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	startClock, err := parseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("invalid start time %q, expected HH:MM", start)
	}
	endClock, err := parseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("invalid end time %q, expected HH:MM", end)
	}
	if endClock <= startClock {
		return Window{}, fmt.Errorf("end time %s must be after start time %s", end, start)
	}

	return Window{
		Date:  day.Format(DateLayout),
		Start: at(day, startClock, loc),
		End:   at(day, endClock, loc),
	}, nil
}

// NormalizeClock validates a time-of-day string and returns it as HH:MM
func NormalizeClock(s string) (string, error) {
	d, err := parseClock(s)
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60), nil
}

// parseClock returns the offset from midnight
func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		t, err = time.Parse(timeLayoutSeconds, s)
		if err != nil {
			return 0, err
		}
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// at resolves a wall clock offset on day. Building from fields keeps DST days correct.
func at(day time.Time, clock time.Duration, loc *time.Location) time.Time {
	h := int(clock / time.Hour)
	m := int((clock % time.Hour) / time.Minute)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc)
}

// Overlaps reports whether two windows on the same calendar date intersect.
// Touching windows (one ends exactly when the other starts) do not overlap.
func Overlaps(a, b Window) bool {
	if a.Date != b.Date {
		return false
	}
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// ArrivalOpen reports whether now is at or after start minus lead. There is no upper bound.
func ArrivalOpen(w Window, lead time.Duration, now time.Time) bool {
	return !now.Before(w.Start.Add(-lead))
}

// Ended reports whether the window's end instant has passed
func Ended(w Window, now time.Time) bool {
	return !now.Before(w.End)
}

// LeadMinutes returns whole minutes from now until start, negative once start has passed
func LeadMinutes(w Window, now time.Time) int {
	return floorMinutes(w.Start.Sub(now))
}

// LatenessMinutes returns whole minutes elapsed after start, 0 at or before start
func LatenessMinutes(w Window, at time.Time) int {
	if !at.After(w.Start) {
		return 0
	}
	return floorMinutes(at.Sub(w.Start))
}

func floorMinutes(d time.Duration) int {
	m := d / time.Minute
	if d < 0 && d%time.Minute != 0 {
		m--
	}
	return int(m)
}

// Day returns the calendar date of t in loc
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// PreviousDay returns the calendar date before day, or "" if day is malformed
func PreviousDay(day string) string {
	t, err := time.Parse(DateLayout, day)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}
