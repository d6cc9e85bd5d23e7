package civil

import "time"

// LeapFunc reports whether a full calendar year (2000, not a YearBase
// offset) has 366 days.
type LeapFunc func(year int) bool

// IsLeapYear implements the Gregorian rule: every fourth year is a
// leap year, except centuries not divisible by 400.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Calendar converts instants under an injectable leap-year rule. A nil
// Leap falls back to IsLeapYear. The rule affects conversion only;
// Time methods always use the Gregorian calendar.
type Calendar struct {
	Leap LeapFunc
}

var gregorian = &Calendar{Leap: IsLeapYear}

// FromUnix converts seconds since 1970-01-01T00:00:00Z to a broken-down
// UTC time under the Gregorian calendar. Negative input denotes
// instants before the epoch.
func FromUnix(sec int64) (Time, error) {
	return gregorian.FromUnix(sec)
}

// FromUnix converts seconds since 1970-01-01T00:00:00Z to a broken-down
// UTC time. The result is a fresh value owned by the caller. Instants
// whose year falls outside [MinYear, MaxYear] fail with ErrYearRange
// rather than wrapping.
func (c *Calendar) FromUnix(sec int64) (Time, error) {
	t := Time{
		Day:     1,
		Year:    1970 - YearBase,
		Weekday: time.Weekday(floorMod(floorDiv(sec, secondsPerDay)+4, 7)),
		DST:     DSTUnknown,
	}

	// Walk whole years forward from 1970, then backward for pre-epoch
	// instants, adjusting by each year's exact length.
	rem := sec
	for {
		length := c.yearSeconds(t.Year)
		if rem < length {
			break
		}
		rem -= length
		t.Year++
		if t.Year+YearBase > MaxYear {
			return Time{}, ErrYearRange
		}
	}
	for rem < 0 {
		t.Year--
		if t.Year+YearBase < MinYear {
			return Time{}, ErrYearRange
		}
		rem += c.yearSeconds(t.Year)
	}

	leap := c.leap(t.Year + YearBase)
	t.YearDay = int(rem / secondsPerDay)

	for {
		monthSecs := int64(daysIn(t.Month, leap)) * secondsPerDay
		if rem < monthSecs {
			break
		}
		rem -= monthSecs
		t.Month++
	}
	for rem >= secondsPerDay {
		rem -= secondsPerDay
		t.Day++
	}
	for rem >= secondsPerHour {
		rem -= secondsPerHour
		t.Hour++
	}
	for rem >= secondsPerMinute {
		rem -= secondsPerMinute
		t.Min++
	}
	t.Sec = int(rem)

	return t, nil
}

func (c *Calendar) leap(year int) bool {
	if c.Leap == nil {
		return IsLeapYear(year)
	}
	return c.Leap(year)
}

// yearSeconds returns the length of a year given as a YearBase offset.
func (c *Calendar) yearSeconds(yearOff int) int64 {
	if c.leap(yearOff + YearBase) {
		return 366 * secondsPerDay
	}
	return 365 * secondsPerDay
}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// daysIn returns the length of a zero-based month, with February
// extended in leap years. Pure: no table is ever rewritten.
func daysIn(month int, leap bool) int {
	if month == 1 && leap {
		return 29
	}
	return monthDays[month]
}

// floorDiv rounds the quotient toward negative infinity, keeping day
// and weekday arithmetic continuous across the epoch. Plain Go
// division truncates toward zero, which would misplace pre-epoch
// instants that are not day-aligned.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}
