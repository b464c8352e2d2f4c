package model

import (
	"fmt"
	"strings"
	"time"
)

// ClockTime is a time of day without a date, parsed from and serialized
// to "HH:mm" only at the persistence and config edges.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseClockTime parses an "HH:mm" string. Trailing text and
// out-of-range components are rejected.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("parsing clock time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String renders the clock time as "HH:mm".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On combines the clock time with the calendar date of day, in day's
// location. Built from date components so month and year boundaries
// never drift.
func (c ClockTime) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// Minutes returns the clock time as minutes after midnight.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Before reports whether c is earlier in the day than other.
func (c ClockTime) Before(other ClockTime) bool {
	return c.Minutes() < other.Minutes()
}

// TimeWindow is a start/end pair of clock times, e.g. a sleep window or
// working hours. Serialized as "HH:mm-HH:mm" at the persistence edge.
type TimeWindow struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// ParseTimeWindow parses an "HH:mm-HH:mm" string.
func ParseTimeWindow(s string) (TimeWindow, error) {
	startStr, endStr, ok := strings.Cut(s, "-")
	if !ok {
		return TimeWindow{}, fmt.Errorf("parsing time window %q: want \"HH:mm-HH:mm\"", s)
	}
	start, err := ParseClockTime(startStr)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("parsing time window %q: %w", s, err)
	}
	end, err := ParseClockTime(endStr)
	if err != nil {
		return TimeWindow{}, fmt.Errorf("parsing time window %q: %w", s, err)
	}
	return TimeWindow{Start: start, End: end}, nil
}

// String renders the window as "HH:mm-HH:mm".
func (w TimeWindow) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// Contains reports whether the clock time t falls inside the window.
// Windows that cross midnight (start after end, e.g. 22:00-07:00) wrap.
func (w TimeWindow) Contains(t ClockTime) bool {
	start, end, m := w.Start.Minutes(), w.End.Minutes(), t.Minutes()
	if start <= end {
		return m >= start && m < end
	}
	return m >= start || m < end
}
