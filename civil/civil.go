// Package civil breaks epoch seconds into calendar date and time fields.
//
// All conversions are in UTC against the proleptic Gregorian calendar,
// with the leap-year rule injectable for callers that need a different
// one. Every conversion returns a fresh value, so concurrent use needs
// no synchronization.
package civil

import (
	"errors"
	"fmt"
	"time"
)

// YearBase is the origin of the Year field, following the broken-down
// time convention of C libraries.
const YearBase = 1900

// DSTUnknown is the daylight-saving indicator carried by every Time.
// Conversions are UTC, so the flag is never derived from data.
const DSTUnknown = -1

// Supported calendar year window, as full years (not YearBase offsets).
const (
	MinYear = -9999
	MaxYear = 9999
)

// ErrYearRange is returned when an instant's calendar year falls
// outside [MinYear, MaxYear].
var ErrYearRange = errors.New("civil: year out of range")

const (
	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

// Time is a broken-down UTC instant. The layout follows the classic
// broken-down time convention: zero-based month, year counted from
// YearBase, zero-based day of year.
type Time struct {
	Sec     int          // second of the minute, 0-59
	Min     int          // minute of the hour, 0-59
	Hour    int          // hour of the day, 0-23
	Day     int          // day of the month, 1-31
	Month   int          // month of the year, zero-based: 0 is January
	Year    int          // years since YearBase, negative before 1900
	Weekday time.Weekday // day of the week
	YearDay int          // day of the year, zero-based, 0-365
	DST     int          // always DSTUnknown
}

// FullYear returns the calendar year (Year plus YearBase).
func (t Time) FullYear() int {
	return t.Year + YearBase
}

// Date returns the calendar date in the time package's convention,
// with January as month 1.
func (t Time) Date() (year int, month time.Month, day int) {
	return t.FullYear(), time.Month(t.Month + 1), t.Day
}

// Clock returns the time of day.
func (t Time) Clock() (hour, min, sec int) {
	return t.Hour, t.Min, t.Sec
}

// UTC returns the instant as a time.Time in UTC.
func (t Time) UTC() time.Time {
	return time.Date(t.FullYear(), time.Month(t.Month+1), t.Day, t.Hour, t.Min, t.Sec, 0, time.UTC)
}

// String formats the instant as ISO 8601 in UTC, e.g.
// "1970-01-01T00:00:00Z". Years before year 0 carry a leading minus.
func (t Time) String() string {
	year := t.FullYear()
	sign := ""
	if year < 0 {
		sign, year = "-", -year
	}
	return fmt.Sprintf("%s%04d-%02d-%02dT%02d:%02d:%02dZ",
		sign, year, t.Month+1, t.Day, t.Hour, t.Min, t.Sec)
}
