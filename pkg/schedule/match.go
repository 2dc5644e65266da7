package schedule

import (
	"time"

	"github.com/korjavin/curfewbot/pkg/models"
)

const minutesPerDay = 24 * 60

// MatchResult reports which parts of a curfew match an instant
type MatchResult struct {
	ExactHit  bool
	WindowHit bool
}

// Any reports whether either part matched
func (r MatchResult) Any() bool {
	return r.ExactHit || r.WindowHit
}

// LocalMinuteOfDay converts a UTC instant to the user's local minute of day
// given their reported offset. The result is always within [0, 1439].
func LocalMinuteOfDay(nowUTC time.Time, offsetMinutes int) int {
	m := (nowUTC.Hour()*60 + nowUTC.Minute() + offsetMinutes) % minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return m
}

// Match evaluates a curfew against a UTC instant. It is pure: no clock, no
// I/O, no state.
//
// The exact time hits when the circular distance between the local minute of
// day and the target is strictly less than toleranceMin. The tolerance is
// sized to the enforcement poll interval (in minutes, rounded up), so every
// exact moment is observed at least once despite discrete polling.
//
// The window hits on inclusive bounds; a window whose start is after its end
// wraps past local midnight.
func Match(nowUTC time.Time, c models.Curfew, toleranceMin int) MatchResult {
	var res MatchResult
	local := LocalMinuteOfDay(nowUTC, c.OffsetMinutes)

	if c.ExactTime != nil {
		res.ExactHit = circularDistance(local, c.ExactTime.MinuteOfDay()) < toleranceMin
	}

	if c.Window != nil {
		start, end := c.Window.StartMinute, c.Window.EndMinute
		if start <= end {
			res.WindowHit = local >= start && local <= end
		} else {
			res.WindowHit = local >= start || local <= end
		}
	}

	return res
}

// circularDistance returns the shortest distance between two minutes of day
// on the 24h dial, so 23:59 and 00:00 are one minute apart.
func circularDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > minutesPerDay/2 {
		d = minutesPerDay - d
	}
	return d
}
