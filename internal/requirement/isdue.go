package requirement

import "time"

// isDue evaluates a TimeSpec against an absolute epoch second t, using local
// broken-down time. If OnlyAtTimes is non-empty it short-circuits: every
// other constraint is ignored, matched or not. This mirrors an ambiguity in
// the original engine's behavior that the specification preserves rather
// than resolves.
func isDue(spec TimeSpec, t int64) bool {
	if len(spec.OnlyAtTimes) > 0 {
		for _, at := range spec.OnlyAtTimes {
			if at == t {
				return true
			}
		}
		return false
	}

	tm := time.Unix(t, 0)
	return allowlistMatches(spec.ConstrainedDOM, tm.Day()) &&
		allowlistMatches(spec.ConstrainedDOW, int(tm.Weekday())) &&
		allowlistMatches(spec.ConstrainedHours, tm.Hour()) &&
		allowlistMatches(spec.ConstrainedMinutes, tm.Minute()) &&
		allowlistMatches(spec.ConstrainedSeconds, tm.Second())
}

// allowlistMatches reports whether value is permitted by allowlist. An
// empty allowlist is a wildcard.
func allowlistMatches(allowlist []int, value int) bool {
	if len(allowlist) == 0 {
		return true
	}
	for _, v := range allowlist {
		if v == value {
			return true
		}
	}
	return false
}
