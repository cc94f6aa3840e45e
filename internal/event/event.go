package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultName is used when an event carries no usable title
	DefaultName = "Untitled Event"
	// LocationTBA is used when no location data is found
	LocationTBA = "TBA"
)

// ErrMissingDate is returned when no resolvable start or end timestamp exists
var ErrMissingDate = errors.New("event has no resolvable date")

// Record represents one upcoming event scraped from the site
type Record struct {
	Name     string    `json:"name"`
	DateISO  string    `json:"date_iso"`
	Location string    `json:"location"`
	URL      string    `json:"url"`
	Start    time.Time `json:"-"`
}

// NewRecord builds a Record, normalizing every field. It fails with
// ErrMissingDate rather than returning a record without a timestamp.
func NewRecord(name, date, location, url string) (*Record, error) {
	iso := NormalizeDate(date)
	if iso == "" {
		return nil, ErrMissingDate
	}

	start, err := ParseTime(iso)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingDate, err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}

	location = strings.TrimSpace(location)
	if location == "" {
		location = LocationTBA
	}

	return &Record{
		Name:     name,
		DateISO:  iso,
		Location: location,
		URL:      url,
		Start:    start,
	}, nil
}
