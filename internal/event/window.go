package event

import (
	"sort"
	"time"
)

const (
	// DefaultPastDays is how far back events are kept
	DefaultPastDays = 30
	// DefaultFutureDays is how far ahead events are kept
	DefaultFutureDays = 365
)

// Window is a sliding time range relative to a reference time. Both bounds
// are inclusive.
type Window struct {
	Past   time.Duration
	Future time.Duration
}

// DefaultWindow keeps events from 30 days ago through 365 days ahead
func DefaultWindow() Window {
	return NewWindow(DefaultPastDays, DefaultFutureDays)
}

// NewWindow creates a window from day counts
func NewWindow(pastDays, futureDays int) Window {
	return Window{
		Past:   time.Duration(pastDays) * 24 * time.Hour,
		Future: time.Duration(futureDays) * 24 * time.Hour,
	}
}

// Contains reports whether t falls within the window around now
func (w Window) Contains(t, now time.Time) bool {
	return !t.Before(now.Add(-w.Past)) && !t.After(now.Add(w.Future))
}

// Filter returns the records that fall within the window, preserving order
func (w Window) Filter(records []*Record, now time.Time) []*Record {
	kept := make([]*Record, 0, len(records))
	for _, r := range records {
		if w.Contains(r.Start, now) {
			kept = append(kept, r)
		}
	}
	return kept
}

// SortByStart sorts records by start time. Records sharing a start time
// keep their relative order.
func SortByStart(records []*Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Start.Before(records[j].Start)
	})
}
