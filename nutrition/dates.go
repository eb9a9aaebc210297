package nutrition

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DayStart returns the first instant of t's local calendar date in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return dateStart(y, m, d, loc)
}

// dateStart normalizes y/m/d and returns the start of that date in loc.
// Some zones skip local midnight for DST; there the day begins at the
// transition instead.
func dateStart(y int, m time.Month, d int, loc *time.Location) time.Time {
	noon := time.Date(y, m, d, 12, 0, 0, 0, loc)
	y, m, d = noon.Date()
	s := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if sy, sm, sd := s.Date(); sy == y && sm == m && sd == d {
		return s
	}
	start, _ := noon.ZoneBounds()
	return start
}

// civilDate maps t's local date in loc onto UTC midnight, a cursor that
// steps exactly one calendar day per AddDate.
func civilDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey formats the local calendar date of t.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// AddDays moves day by n calendar days in day's location and returns the
// start of the resulting date.
func AddDays(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return dateStart(y, m, d+n, day.Location())
}

// AddMonths is AddDays for months. Day overflow normalizes like time.Date.
func AddMonths(day time.Time, n int) time.Time {
	y, m, d := day.Date()
	return dateStart(y, m+time.Month(n), d, day.Location())
}

// WeekStart returns the Monday of the week containing day.
func WeekStart(day time.Time) time.Time {
	wd := int(day.Weekday())
	if wd == 0 {
		wd = 7
	}
	return AddDays(day, -(wd - 1))
}

// MonthStart returns the first day of day's month.
func MonthStart(day time.Time) time.Time {
	y, m, _ := day.Date()
	return dateStart(y, m, 1, day.Location())
}

// YearStart returns January 1 of day's year.
func YearStart(day time.Time) time.Time {
	return dateStart(day.Year(), time.January, 1, day.Location())
}

// ParseDate parses YYYY-MM-DD as the start of that date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return dateStart(t.Year(), t.Month(), t.Day(), loc), nil
}

// DayRange returns [start, end) of the local day containing t.
func DayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := DayStart(t, loc)
	return start, AddDays(start, 1)
}
