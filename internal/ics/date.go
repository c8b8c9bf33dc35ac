package ics

import (
	"strings"
	"time"
)

const (
	layoutDate     = "20060102"
	layoutDateTime = "20060102T150405"
)

// DecodeDate converts a DTSTART value into an instant.
//
// Accepted forms are YYYYMMDD (midnight) and YYYYMMDDTHHMMSS, each optionally
// followed by a "Z". Both forms are taken as UTC: floating local times are not
// distinguished from UTC ones. The boolean is false for empty or malformed
// tokens, including out-of-range fields such as month 13.
func DecodeDate(token string) (time.Time, bool) {
	v := strings.TrimSuffix(strings.TrimSpace(token), "Z")

	var layout string
	switch {
	case len(v) == len(layoutDate) && allDigits(v):
		layout = layoutDate
	case len(v) == len(layoutDateTime) && v[8] == 'T' && allDigits(v[:8]) && allDigits(v[9:]):
		layout = layoutDateTime
	default:
		return time.Time{}, false
	}

	t, err := time.ParseInLocation(layout, v, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
