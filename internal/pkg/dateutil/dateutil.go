package dateutil

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Layout is the wire format for calendar dates
const Layout = "2006-01-02"

// Truncate drops the clock part of t, keeping its calendar date (stored as UTC midnight)
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now
func Today(now time.Time) time.Time {
	return Truncate(now)
}

// AddYears adds n years to a date. Feb 29 maps to Feb 28 in non-leap years.
func AddYears(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := y + n
	if m == time.February && d == 29 && !isLeap(target) {
		d = 28
	}
	return time.Date(target, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// Parse parses a "2006-01-02" date. RFC3339 timestamps are accepted too.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return Truncate(t), nil
}

// ParseOptional parses s, returning nil for an empty string
func ParseOptional(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Format renders a date pointer, empty when nil
func Format(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

// MonthKey returns the YYYY-MM bucket of t
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthStart returns the first day of t's month
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// Ptr returns a pointer to t
func Ptr(t time.Time) *time.Time {
	return &t
}

// Date is a calendar date that decodes from "2006-01-02" JSON strings.
// An empty string or null decodes to the zero Date.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := Parse(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(Layout) + `"`), nil
}

// TimePtr returns nil for the zero Date
func (d *Date) TimePtr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := Truncate(d.Time)
	return &t
}
