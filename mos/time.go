package mos

import (
	"fmt"
	"time"

	"gomos/civil"
)

// TickRate is the sysvar clock frequency in ticks per second. The VDP
// adds two ticks on every 50Hz vertical blank, so one tick is a
// centisecond.
const TickRate = 100

// TicksToDuration converts a tick count to a duration.
func TicksToDuration(ticks uint32) time.Duration {
	return time.Duration(ticks) * (time.Second / TickRate)
}

// DurationToTicks converts a duration to whole ticks, rounding toward
// zero. Negative durations map to zero.
func DurationToTicks(d time.Duration) uint32 {
	if d < 0 {
		return 0
	}
	return uint32(d / (time.Second / TickRate))
}

// RTCYearBase is the year the packed RTC layout counts from.
const RTCYearBase = 1980

// TimeDataSize is the packed wire size of an RTC timestamp.
const TimeDataSize = 6

// PackTimeData packs t into the six-byte layout the setrtc call takes:
// year offset from RTCYearBase, then month 1..12, day, hour, minute,
// second. The year offset is an unsigned byte, so years outside
// 1980..2235 are rejected rather than wrapped.
func PackTimeData(t civil.Time) ([]byte, error) {
	year := t.FullYear()
	if year < RTCYearBase || year > RTCYearBase+255 {
		return nil, fmt.Errorf("mos: year %d outside the RTC range %d..%d",
			year, RTCYearBase, RTCYearBase+255)
	}
	return []byte{
		byte(year - RTCYearBase),
		byte(t.Month + 1),
		byte(t.Day),
		byte(t.Hour),
		byte(t.Min),
		byte(t.Sec),
	}, nil
}

// UnpackTimeData reads a six-byte RTC timestamp back into a validated
// calendar time.
func UnpackTimeData(data []byte) (civil.Time, error) {
	if len(data) < TimeDataSize {
		return civil.Time{}, ErrShortData
	}
	return civil.Date(RTCYearBase+int(data[0]), time.Month(data[1]),
		int(data[2]), int(data[3]), int(data[4]), int(data[5]))
}
