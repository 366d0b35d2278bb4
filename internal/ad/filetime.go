package ad

import (
	"math"
	"time"
)

// Active Directory stores timestamps in "filetime": 100-nanosecond ticks
// since January 1st, 1601 UTC. A value of zero means the timestamp is
// unset. Interval attributes (maxPwdAge, minPwdAge, lockoutDuration) are
// stored as negative tick counts, with the most negative 64-bit value
// meaning "never".

const (
	ticksPerSecond = 10_000_000
	// Seconds between the filetime epoch (1601) and the Unix epoch (1970).
	epochDelta = 11_644_473_600
	// The domain's sentinel for an interval that never elapses.
	intervalNever = math.MinInt64
)

var filetimeEpoch = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

// TimeFromFiletime decodes a filetime tick count into a UTC time. Zero
// decodes to the 1601 epoch; use FiletimeUnset to test for it.
func TimeFromFiletime(ticks int64) time.Time {
	secs := ticks/ticksPerSecond - epochDelta
	nanos := (ticks % ticksPerSecond) * 100
	return time.Unix(secs, nanos).UTC()
}

// FiletimeUnset reports whether a decoded filetime carries the zero
// sentinel, i.e. the attribute was never set.
func FiletimeUnset(t time.Time) bool {
	return !t.After(filetimeEpoch)
}

// DurationFromFiletime decodes a negative interval attribute into a
// duration. The second return is true when the domain uses the "never"
// sentinel, in which case the duration is meaningless.
func DurationFromFiletime(ticks int64) (time.Duration, bool) {
	if ticks == intervalNever {
		return 0, true
	}
	if ticks < 0 {
		ticks = -ticks
	}
	return time.Duration(ticks) * 100 * time.Nanosecond, false
}
