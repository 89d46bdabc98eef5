package domain

import (
	"fmt"
	"strings"
	"time"
)

// maxRangeDays caps date enumeration so an open-ended range can never
// generate more than a year of bookings in one pass.
const maxRangeDays = 366

// Date is a calendar date without a time component. It is the canonical
// date representation at the storage boundary; documents store its
// ISO "YYYY-MM-DD" encoding.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses an ISO "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf truncates a time.Time to its calendar date (in UTC).
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// WeekdayName returns the English weekday label ("Monday", ...).
func (d Date) WeekdayName() string { return d.Weekday().String() }

func (d Date) AddDays(n int) Date { return DateOf(d.Time().AddDate(0, 0, n)) }

func (d Date) Before(other Date) bool { return d.Time().Before(other.Time()) }
func (d Date) After(other Date) bool  { return d.Time().After(other.Time()) }

// MonthKey returns the month bucket the date belongs to.
func (d Date) MonthKey() Month { return Month{Year: d.Year, Month: d.Month} }

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool { return d == Date{} }

// Month identifies one calendar month. Its canonical encoding is
// "YYYY-MM", which keys the month buckets of a recurring group.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a "YYYY-MM" string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the calendar month containing t (in UTC).
func MonthOf(t time.Time) Month {
	t = t.UTC()
	return Month{Year: t.Year(), Month: t.Month()}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return Month{Year: t.Year(), Month: t.Month()}
}

// FirstDay returns the first day of the month.
func (m Month) FirstDay() Date {
	return Date{Year: m.Year, Month: m.Month, Day: 1}
}

// LastDay returns the last day of the month.
func (m Month) LastDay() Date {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	return DateOf(t)
}

// Contains reports whether d falls inside the month.
func (m Month) Contains(d Date) bool {
	return d.Year == m.Year && d.Month == m.Month
}

var weekdayNumbers = map[string]int{
	"sunday":    0,
	"monday":    1,
	"tuesday":   2,
	"wednesday": 3,
	"thursday":  4,
	"friday":    5,
	"saturday":  6,
}

// WeekdayNumber converts a weekday name to its zero-indexed number
// (Sunday=0). The lookup is case-insensitive.
func WeekdayNumber(name string) (int, bool) {
	n, ok := weekdayNumbers[strings.ToLower(name)]
	return n, ok
}

// DatesInRange enumerates every date between start and end (inclusive)
// whose weekday is in weekdays, ascending. Unknown weekday names are
// ignored. Iteration stops at maxRangeDays regardless of the range.
func DatesInRange(start, end Date, weekdays []string) []Date {
	wanted := make(map[int]bool, len(weekdays))
	for _, w := range weekdays {
		if n, ok := WeekdayNumber(w); ok {
			wanted[n] = true
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	var dates []Date
	current := start
	for i := 0; i < maxRangeDays && !current.After(end); i++ {
		if wanted[int(current.Weekday())] {
			dates = append(dates, current)
		}
		current = current.AddDays(1)
	}
	return dates
}
