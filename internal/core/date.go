package core

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a civil date.
const DateLayout = "2006-01-02"

// Date is a civil calendar date. The wrapped time is midnight UTC of that day;
// only its year, month and day carry meaning.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses YYYY-MM-DD. A trailing time part (as returned by some
// stores) is ignored.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if y := d.Time.Year(); y < 1900 || y > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidDate, y)
	}
	return nil
}

// String renders YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// In returns local midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	y, m, day := d.Time.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

// SameDay reports whether t falls on this date, judged in t's location.
func (d Date) SameDay(t time.Time) bool {
	y, m, day := t.Date()
	dy, dm, dd := d.Time.Date()
	return y == dy && m == dm && day == dd
}

// SameMonth reports whether t falls in this date's month and year, judged in
// t's location.
func (d Date) SameMonth(t time.Time) bool {
	return d.Time.Year() == t.Year() && d.Time.Month() == t.Month()
}
