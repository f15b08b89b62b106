package util

import (
	"strconv"
	"time"
)

var timeLayouts = []string{time.RFC3339, time.RFC3339Nano, time.DateOnly}

// ParseTime tries RFC3339, RFC3339Nano, YYYY-MM-DD and unix seconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// NormalizeRange fills an open range: a zero to becomes now and a zero from
// becomes to minus lookback. Reversed bounds are swapped.
func NormalizeRange(from, to, now time.Time, lookback time.Duration) (time.Time, time.Time) {
	if to.IsZero() {
		to = now
	}
	if from.IsZero() {
		from = to.Add(-lookback)
	}
	if from.After(to) {
		from, to = to, from
	}
	return from, to
}
