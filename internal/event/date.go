package event

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	dateOnlyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	offsetPattern   = regexp.MustCompile(`[+-]\d{2}(:?\d{2})?$`)
)

// isoLayouts are tried in order by ParseTime
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05.999999999Z07",
	"2006-01-02T15:04Z07",
}

// NormalizeDate trims an ISO-8601 timestamp and makes it timezone-qualified.
// Values without a UTC marker or numeric offset are assumed to be UTC.
// Date-only values become midnight UTC. Normalizing twice is a no-op.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if dateOnlyPattern.MatchString(s) {
		return s + "T00:00:00Z"
	}

	if hasZone(s) {
		return s
	}
	return s + "Z"
}

// hasZone reports whether the time part of s ends in Z or a numeric offset
func hasZone(s string) bool {
	if strings.HasSuffix(s, "Z") || strings.HasSuffix(s, "z") {
		return true
	}

	i := strings.IndexAny(s, "Tt ")
	if i < 0 {
		return false
	}
	return offsetPattern.MatchString(s[i+1:])
}

// ParseTime parses a zone-qualified ISO-8601 timestamp
func ParseTime(iso string) (time.Time, error) {
	value := strings.Replace(iso, " ", "T", 1)
	if strings.HasSuffix(value, "z") {
		value = strings.TrimSuffix(value, "z") + "Z"
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", iso)
}
