package civil

import (
	"errors"
	"testing"
	"time"
)

func TestFromUnixEpoch(t *testing.T) {
	ct, err := FromUnix(0)
	if err != nil {
		t.Fatalf("FromUnix(0) returned error: %v", err)
	}

	want := Time{
		Day:     1,
		Year:    70,
		Weekday: time.Thursday,
		DST:     DSTUnknown,
	}
	if ct != want {
		t.Errorf("FromUnix(0): expected %+v, got %+v", want, ct)
	}
	if ct.String() != "1970-01-01T00:00:00Z" {
		t.Errorf("FromUnix(0).String(): expected 1970-01-01T00:00:00Z, got %s", ct.String())
	}
}

func TestFromUnixKnownInstants(t *testing.T) {
	testCases := []struct {
		sec  int64
		want Time
	}{
		// One day in: Friday, second day of the year.
		{86400, Time{Day: 2, Year: 70, Weekday: time.Friday, YearDay: 1, DST: DSTUnknown}},
		// 365 days: 1970 is not a leap year, so this is 1971-01-01.
		{31536000, Time{Day: 1, Year: 71, Weekday: time.Friday, DST: DSTUnknown}},
		// 2000 is divisible by 400, so February 29 exists.
		{951782400, Time{Day: 29, Month: 1, Year: 100, Weekday: time.Tuesday, YearDay: 59, DST: DSTUnknown}},
		// One second before the epoch: backward walk into 1969.
		{-1, Time{Sec: 59, Min: 59, Hour: 23, Day: 31, Month: 11, Year: 69, Weekday: time.Wednesday, YearDay: 364, DST: DSTUnknown}},
		// 1900 is a century and not divisible by 400: no February 29.
		{-2203891201, Time{Sec: 59, Min: 59, Hour: 23, Day: 28, Month: 1, Year: 0, Weekday: time.Wednesday, YearDay: 58, DST: DSTUnknown}},
		// The day after 1900-02-28 is March 1, not a phantom leap day.
		{-2203891200, Time{Day: 1, Month: 2, Year: 0, Weekday: time.Thursday, YearDay: 59, DST: DSTUnknown}},
		// Start of 1900: the Year field reaches exactly zero.
		{-2208988800, Time{Day: 1, Year: 0, Weekday: time.Monday, DST: DSTUnknown}},
		// Before 1900 the Year field goes negative.
		{-2208988801, Time{Sec: 59, Min: 59, Hour: 23, Day: 31, Month: 11, Year: -1, Weekday: time.Sunday, YearDay: 364, DST: DSTUnknown}},
	}

	for _, tc := range testCases {
		got, err := FromUnix(tc.sec)
		if err != nil {
			t.Errorf("FromUnix(%d) returned error: %v", tc.sec, err)
			continue
		}
		if got != tc.want {
			t.Errorf("FromUnix(%d): expected %+v, got %+v", tc.sec, tc.want, got)
		}
	}
}

func TestYearRange(t *testing.T) {
	minTime, err := Date(MinYear, time.January, 1, 0, 0, 0)
	if err != nil {
		t.Fatalf("Date(MinYear, ...) returned error: %v", err)
	}
	maxTime, err := Date(MaxYear, time.December, 31, 23, 59, 59)
	if err != nil {
		t.Fatalf("Date(MaxYear, ...) returned error: %v", err)
	}

	minSec, maxSec := minTime.Unix(), maxTime.Unix()
	if maxSec != 253402300799 {
		t.Errorf("end of year 9999: expected 253402300799, got %d", maxSec)
	}
	if minSec != -377705116800 {
		t.Errorf("start of year -9999: expected -377705116800, got %d", minSec)
	}

	if ct, err := FromUnix(minSec); err != nil {
		t.Errorf("FromUnix(%d) returned error: %v", minSec, err)
	} else if ct.FullYear() != MinYear {
		t.Errorf("FromUnix(%d): expected year %d, got %d", minSec, MinYear, ct.FullYear())
	}
	if ct, err := FromUnix(maxSec); err != nil {
		t.Errorf("FromUnix(%d) returned error: %v", maxSec, err)
	} else if ct.FullYear() != MaxYear {
		t.Errorf("FromUnix(%d): expected year %d, got %d", maxSec, MaxYear, ct.FullYear())
	}

	for _, sec := range []int64{minSec - 1, maxSec + 1} {
		if _, err := FromUnix(sec); !errors.Is(err, ErrYearRange) {
			t.Errorf("FromUnix(%d): expected ErrYearRange, got %v", sec, err)
		}
	}
}

// compareAgainstStd checks every field against the standard library's
// breakdown of the same instant.
func compareAgainstStd(t *testing.T, sec int64, ct Time) {
	t.Helper()
	std := time.Unix(sec, 0).UTC()
	if ct.FullYear() != std.Year() ||
		time.Month(ct.Month+1) != std.Month() ||
		ct.Day != std.Day() ||
		ct.Hour != std.Hour() ||
		ct.Min != std.Minute() ||
		ct.Sec != std.Second() ||
		ct.Weekday != std.Weekday() ||
		ct.YearDay != std.YearDay()-1 {
		t.Errorf("FromUnix(%d): expected %v (weekday %v yday %d), got %v (weekday %v yday %d)",
			sec, std.Format(time.RFC3339), std.Weekday(), std.YearDay()-1,
			ct, ct.Weekday, ct.YearDay)
	}
}

func TestRoundTripModernRange(t *testing.T) {
	// 1900 through 2100, stepping by an odd interval so every field
	// position gets visited.
	const step = 7*86400 + 3607
	for sec := int64(-2208988800); sec <= 4102444800; sec += step {
		ct, err := FromUnix(sec)
		if err != nil {
			t.Fatalf("FromUnix(%d) returned error: %v", sec, err)
		}
		if got := ct.Unix(); got != sec {
			t.Errorf("round trip: expected %d, got %d (%v)", sec, got, ct)
		}
		if ct.DST != DSTUnknown {
			t.Errorf("FromUnix(%d): expected DST %d, got %d", sec, DSTUnknown, ct.DST)
		}
		compareAgainstStd(t, sec, ct)
	}
}

func TestRoundTripFullRange(t *testing.T) {
	// The entire representable window in ~13 year strides.
	const step = 411111111
	for sec := int64(-377705116800); sec <= 253402300799; sec += step {
		ct, err := FromUnix(sec)
		if err != nil {
			t.Fatalf("FromUnix(%d) returned error: %v", sec, err)
		}
		if got := ct.Unix(); got != sec {
			t.Errorf("round trip: expected %d, got %d (%v)", sec, got, ct)
		}
		compareAgainstStd(t, sec, ct)
	}
}

func TestMonotonicity(t *testing.T) {
	older := func(a, b Time) bool {
		at := [6]int{a.Year, a.Month, a.Day, a.Hour, a.Min, a.Sec}
		bt := [6]int{b.Year, b.Month, b.Day, b.Hour, b.Min, b.Sec}
		for i := range at {
			if at[i] != bt[i] {
				return at[i] < bt[i]
			}
		}
		return false
	}

	prev, err := FromUnix(-5000000000)
	if err != nil {
		t.Fatalf("FromUnix returned error: %v", err)
	}
	for sec := int64(-5000000000 + 40039); sec <= 5000000000; sec += 40039 {
		ct, err := FromUnix(sec)
		if err != nil {
			t.Fatalf("FromUnix(%d) returned error: %v", sec, err)
		}
		if older(ct, prev) {
			t.Fatalf("breakdown went backward at %d: %v before %v", sec, ct, prev)
		}
		prev = ct
	}
}

func TestCustomLeapRule(t *testing.T) {
	// Under the every-fourth-year rule 1900 gains a February 29; the
	// Gregorian calendar reads the same instant as February 28.
	julian := &Calendar{Leap: func(year int) bool { return year%4 == 0 }}
	const sec = -2203977600

	got, err := julian.FromUnix(sec)
	if err != nil {
		t.Fatalf("julian FromUnix(%d) returned error: %v", sec, err)
	}
	want := Time{Day: 29, Month: 1, Year: 0, Weekday: time.Wednesday, YearDay: 59, DST: DSTUnknown}
	if got != want {
		t.Errorf("julian FromUnix(%d): expected %+v, got %+v", sec, want, got)
	}

	got, err = FromUnix(sec)
	if err != nil {
		t.Fatalf("FromUnix(%d) returned error: %v", sec, err)
	}
	want = Time{Day: 28, Month: 1, Year: 0, Weekday: time.Wednesday, YearDay: 58, DST: DSTUnknown}
	if got != want {
		t.Errorf("gregorian FromUnix(%d): expected %+v, got %+v", sec, want, got)
	}
}

func TestIsLeapYear(t *testing.T) {
	testCases := []struct {
		year int
		leap bool
	}{
		{1970, false},
		{1972, true},
		{1900, false},
		{2000, true},
		{1600, true},
		{1800, false},
		{2023, false},
		{2024, true},
		{-400, true},
		{-100, false},
	}

	for _, tc := range testCases {
		if got := IsLeapYear(tc.year); got != tc.leap {
			t.Errorf("IsLeapYear(%d): expected %v, got %v", tc.year, tc.leap, got)
		}
	}
}

func TestDate(t *testing.T) {
	ct, err := Date(2000, time.February, 29, 12, 30, 45)
	if err != nil {
		t.Fatalf("Date returned error: %v", err)
	}
	back, err := FromUnix(ct.Unix())
	if err != nil {
		t.Fatalf("FromUnix(%d) returned error: %v", ct.Unix(), err)
	}
	if back != ct {
		t.Errorf("Date/FromUnix disagree: expected %+v, got %+v", ct, back)
	}

	invalid := []struct {
		year             int
		month            time.Month
		day, hour, m, s  int
	}{
		{2001, time.February, 29, 0, 0, 0}, // not a leap year
		{1900, time.February, 29, 0, 0, 0}, // century, not a leap year
		{2000, time.Month(0), 1, 0, 0, 0},
		{2000, time.Month(13), 1, 0, 0, 0},
		{2000, time.April, 31, 0, 0, 0},
		{2000, time.January, 0, 0, 0, 0},
		{2000, time.January, 1, 24, 0, 0},
		{2000, time.January, 1, 0, 60, 0},
		{2000, time.January, 1, 0, 0, -1},
	}
	for _, tc := range invalid {
		if _, err := Date(tc.year, tc.month, tc.day, tc.hour, tc.m, tc.s); err == nil {
			t.Errorf("Date(%d, %v, %d, %d, %d, %d): expected error, got nil",
				tc.year, tc.month, tc.day, tc.hour, tc.m, tc.s)
		}
	}

	for _, year := range []int{MinYear - 1, MaxYear + 1} {
		if _, err := Date(year, time.June, 1, 0, 0, 0); !errors.Is(err, ErrYearRange) {
			t.Errorf("Date(year %d): expected ErrYearRange, got %v", year, err)
		}
	}
}

func TestString(t *testing.T) {
	testCases := []struct {
		sec  int64
		want string
	}{
		{0, "1970-01-01T00:00:00Z"},
		{951827696, "2000-02-29T12:34:56Z"},
		{-2208988801, "1899-12-31T23:59:59Z"},
	}
	for _, tc := range testCases {
		ct, err := FromUnix(tc.sec)
		if err != nil {
			t.Fatalf("FromUnix(%d) returned error: %v", tc.sec, err)
		}
		if got := ct.String(); got != tc.want {
			t.Errorf("FromUnix(%d).String(): expected %s, got %s", tc.sec, tc.want, got)
		}
	}

	// Negative years format with a leading minus.
	ct, err := Date(-44, time.March, 15, 12, 0, 0)
	if err != nil {
		t.Fatalf("Date returned error: %v", err)
	}
	if got := ct.String(); got != "-0044-03-15T12:00:00Z" {
		t.Errorf("expected -0044-03-15T12:00:00Z, got %s", got)
	}
}

func FuzzFromUnix(f *testing.F) {
	for _, seed := range []int64{
		0, 1, -1, 86399, 86400, -86400,
		951782400, -2203891201, -2203891200,
		253402300799, -377705116800, 253402300800,
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, sec int64) {
		ct, err := FromUnix(sec)
		if err != nil {
			// Outside the supported year window; nothing else to check.
			return
		}
		if got := ct.Unix(); got != sec {
			t.Errorf("round trip: expected %d, got %d", sec, got)
		}
		compareAgainstStd(t, sec, ct)
	})
}
