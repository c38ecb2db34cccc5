package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Date is a civil calendar date with no time-of-day and no timezone.
// The zero value means "no date".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf extracts the civil date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses "2006-01-02". Timestamps are accepted too; only the
// date part is kept, so values like "2025-03-04T00:00:00" round-trip from
// clients that serialize dates as datetimes.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, errors.New("empty date")
	}
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of d in the given location. A nil loc means
// time.Local.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date n days after d (negative n goes backwards).
// Month and year boundaries are normalized by the time package.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

func (d Date) Equal(o Date) bool {
	return d == o
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) After(o Date) bool {
	return o.Before(d)
}

// DaysBetween returns the number of civil days from a to b (b - a).
// Negative when b is before a.
func DaysBetween(a, b Date) int {
	return int(b.Time(time.UTC).Sub(a.Time(time.UTC)) / (24 * time.Hour))
}

// StartOfWeek returns the first day of the week containing d. weekStart is
// "monday" or "sunday"; anything else is treated as monday.
func StartOfWeek(d Date, weekStart string) Date {
	wd := int(d.Weekday()) // Sunday == 0
	var back int
	if weekStart == "sunday" {
		back = wd
	} else {
		back = (wd + 6) % 7
	}
	return d.AddDays(-back)
}

// MarshalJSON encodes the date as "2006-01-02", or null for the zero value.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "2006-01-02", a datetime string, null, or "".
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
