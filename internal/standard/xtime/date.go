// Copyright 2026 Peter Edge
//
// All rights reserved.

// Originally copied from https://github.com/googleapis/google-cloud-go/blob/v0.116.0/civil/civil.go
// See https://github.com/googleapis/google-cloud-go/blob/v0.116.0/LICENSE.

// Package xtime provides extensions to the standard time package.
package xtime

import (
	"fmt"
	"time"
)

const (
	// dateLayout is the layout of Date.String and ParseDate.
	dateLayout = "2006-01-02"
	// compactDateLayout is the layout of Date.CompactString and ParseCompactDate.
	compactDateLayout = "20060102"
)

// Date represents a date (year, month, day).
//
// This type does not include location information, and therefore does not
// describe a unique 24-hour timespan.
type Date struct {
	Year  int        // Year (e.g., 2014).
	Month time.Month // Month of the year (January = 1, ...).
	Day   int        // Day of the month, starting at 1.
}

// TimeToDate returns the Date in which a time occurs in that time's location.
func TimeToDate(t time.Time) Date {
	var d Date
	d.Year, d.Month, d.Day = t.Date()
	return d
}

// ParseDate parses a string in RFC3339 full-date format and returns the date value it represents.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return TimeToDate(t), nil
}

// ParseCompactDate parses a string in YYYYMMDD format.
func ParseCompactDate(s string) (Date, error) {
	t, err := time.Parse(compactDateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return TimeToDate(t), nil
}

// String returns the date in RFC3339 full-date format.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// CompactString returns the date in YYYYMMDD format.
func (d Date) CompactString() string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

// IsValid reports whether the date is valid.
func (d Date) IsValid() bool {
	return TimeToDate(d.In(time.UTC)) == d
}

// In returns the time corresponding to time 00:00:00 of the date in the location.
//
// In is always consistent with time.Date, even when time.Date returns a time
// on a different day. For example, if loc is America/Indiana/Vincennes, then both
//
//	time.Date(1955, time.May, 1, 0, 0, 0, 0, loc)
//
// and
//
//	civil.Date{Year: 1955, Month: time.May, Day: 1}.In(loc)
//
// return 23:00:00 on April 30, 1955.
//
// In panics if loc is nil.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date that is n days in the future.
// n can also be negative to go into the past.
func (d Date) AddDays(n int) Date {
	return TimeToDate(d.In(time.UTC).AddDate(0, 0, n))
}

// AddMonths returns the date that is n calendar months in the future.
// n can also be negative to go into the past.
//
// If the day does not exist in the target month, the last day of the target
// month is used: January 31 plus one month is February 28 (or 29).
func (d Date) AddMonths(n int) Date {
	firstOfMonth := time.Date(d.Year, d.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	year, month, _ := firstOfMonth.Date()
	// Day zero of the following month is the last day of this month.
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return Date{
		Year:  year,
		Month: month,
		Day:   min(d.Day, lastDay),
	}
}

// DaysSince returns the signed number of days between the date and s, not including the end day.
// This is the inverse operation to AddDays.
func (d Date) DaysSince(s Date) (days int) {
	// We convert to Unix time so we do not have to worry about leap seconds:
	// Unix time increases by exactly 86400 seconds per day.
	deltaUnix := d.In(time.UTC).Unix() - s.In(time.UTC).Unix()
	return int(deltaUnix / 86400)
}

// Before reports whether d occurs before d2.
func (d Date) Before(d2 Date) bool {
	if d.Year != d2.Year {
		return d.Year < d2.Year
	}
	if d.Month != d2.Month {
		return d.Month < d2.Month
	}
	return d.Day < d2.Day
}

// EqualOrBefore reports whether d occurs on or before d2.
func (d Date) EqualOrBefore(d2 Date) bool {
	return d == d2 || d.Before(d2)
}

// After reports whether d occurs after d2.
func (d Date) After(d2 Date) bool {
	return d2.Before(d)
}

// EqualOrAfter reports whether d occurs on or after d2.
func (d Date) EqualOrAfter(d2 Date) bool {
	return d == d2 || d.After(d2)
}

// Compare compares d and d2. If d is before d2, it returns -1;
// if d is after d2, it returns +1; otherwise it returns 0.
func (d Date) Compare(d2 Date) int {
	if d.Before(d2) {
		return -1
	} else if d.After(d2) {
		return +1
	}
	return 0
}

// IsZero reports whether date fields are set to their default value.
func (d Date) IsZero() bool {
	return (d.Year == 0) && (int(d.Month) == 0) && (d.Day == 0)
}

// MarshalText implements the encoding.TextMarshaler interface.
// The output is the result of d.String().
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
// The date is expected to be a string in a format accepted by ParseDate.
func (d *Date) UnmarshalText(data []byte) error {
	var err error
	*d, err = ParseDate(string(data))
	return err
}
