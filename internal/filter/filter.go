// Package filter narrows the scraped event list before it is written to the
// calendar feed.
//
// Criteria:
//   - Include: event name or location must contain at least one keyword
//   - Exclude: event name must not contain any keyword
//   - Locations: event location must contain at least one substring
//   - WeekendsOnly: event must start on a Saturday or Sunday (UTC)
//
// All text matching is case-insensitive. An empty filter matches everything.
package filter

import (
	"strings"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

// Filter represents event filtering criteria
type Filter struct {
	Include      []string `json:"include,omitempty"`
	Exclude      []string `json:"exclude,omitempty"`
	Locations    []string `json:"locations,omitempty"`
	WeekendsOnly bool     `json:"weekends_only,omitempty"`
}

// NewFilter creates a filter from raw flag values, dropping blank entries
func NewFilter(include, exclude, locations []string, weekendsOnly bool) *Filter {
	return &Filter{
		Include:      clean(include),
		Exclude:      clean(exclude),
		Locations:    clean(locations),
		WeekendsOnly: weekendsOnly,
	}
}

// IsEmpty reports whether the filter has no active criteria
func (f *Filter) IsEmpty() bool {
	return len(f.Include) == 0 &&
		len(f.Exclude) == 0 &&
		len(f.Locations) == 0 &&
		!f.WeekendsOnly
}

// Matches reports whether a record passes every active criterion
func (f *Filter) Matches(rec *event.Record) bool {
	if f.IsEmpty() {
		return true
	}

	if len(f.Include) > 0 && !containsAny(rec.Name, f.Include) && !containsAny(rec.Location, f.Include) {
		return false
	}

	if containsAny(rec.Name, f.Exclude) {
		return false
	}

	if len(f.Locations) > 0 && !containsAny(rec.Location, f.Locations) {
		return false
	}

	if f.WeekendsOnly {
		weekday := rec.Start.UTC().Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			return false
		}
	}

	return true
}

// Apply returns the matching records in their original order. An empty
// filter returns the input unchanged.
func (f *Filter) Apply(records []*event.Record) []*event.Record {
	if f.IsEmpty() {
		return records
	}

	filtered := make([]*event.Record, 0, len(records))
	for _, rec := range records {
		if f.Matches(rec) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

// containsAny reports whether text contains any of the keywords, ignoring case
func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, k := range keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

func clean(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
