package civil

import (
	"fmt"
	"time"
)

// Cumulative days before each zero-based month in a common year.
var daysBefore = [12]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}

// Leap days in years 1 through 1969, the epoch baseline for the leap
// counting in daysFromEpoch.
const leapsBeforeEpoch = 477

// daysFromEpoch returns the days from 1970-01-01 to January 1 of the
// given full year, negative for earlier years.
func daysFromEpoch(year int) int64 {
	y := int64(year) - 1
	leaps := floorDiv(y, 4) - floorDiv(y, 100) + floorDiv(y, 400) - leapsBeforeEpoch
	return (int64(year)-1970)*365 + leaps
}

// Unix returns the instant as seconds since 1970-01-01T00:00:00Z,
// recomposed under the Gregorian calendar. It is the exact inverse of
// FromUnix for every representable instant.
func (t Time) Unix() int64 {
	year := t.FullYear()
	days := daysFromEpoch(year) + int64(daysBefore[t.Month]) + int64(t.Day-1)
	if t.Month >= 2 && IsLeapYear(year) {
		days++
	}
	return days*secondsPerDay +
		int64(t.Hour)*secondsPerHour +
		int64(t.Min)*secondsPerMinute +
		int64(t.Sec)
}

// Date composes a validated broken-down time from calendar components.
// month follows the time package's convention, with January as 1.
func Date(year int, month time.Month, day, hour, min, sec int) (Time, error) {
	if year < MinYear || year > MaxYear {
		return Time{}, ErrYearRange
	}
	if month < time.January || month > time.December {
		return Time{}, fmt.Errorf("civil: month %d out of range", int(month))
	}
	leap := IsLeapYear(year)
	if day < 1 || day > daysIn(int(month)-1, leap) {
		return Time{}, fmt.Errorf("civil: day %d out of range for %v %d", day, month, year)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 {
		return Time{}, fmt.Errorf("civil: invalid time of day %02d:%02d:%02d", hour, min, sec)
	}

	t := Time{
		Sec:   sec,
		Min:   min,
		Hour:  hour,
		Day:   day,
		Month: int(month) - 1,
		Year:  year - YearBase,
		DST:   DSTUnknown,
	}
	yd := daysBefore[t.Month] + day - 1
	if t.Month >= 2 && leap {
		yd++
	}
	t.YearDay = yd
	t.Weekday = time.Weekday(floorMod(daysFromEpoch(year)+int64(yd)+4, 7))
	return t, nil
}
