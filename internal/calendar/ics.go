package calendar

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/pfrederiksen/grappling-events/internal/event"
)

const (
	ProductID = "-//Grappling Events//grappling-events//EN"
	Name      = "Grappling Events"

	// DefaultDuration is the length given to every calendar entry
	DefaultDuration = 3 * time.Hour
	// ReminderTrigger fires the alarm 30 minutes before the start
	ReminderTrigger = "-PT30M"
)

// OutputError reports a failure to produce or write the feed. It is fatal
// for the run.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("writing calendar %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

// Options controls how records map to calendar entries
type Options struct {
	Duration    time.Duration
	GeneratedAt time.Time
}

// Build creates a calendar with one entry per record
func Build(records []*event.Record, opts Options) *ics.Calendar {
	if opts.Duration <= 0 {
		opts.Duration = DefaultDuration
	}
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now()
	}
	stamp := opts.GeneratedAt.UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetName(Name)
	cal.SetXWRCalName(Name)
	cal.SetCalscale("GREGORIAN")

	for _, rec := range records {
		start := rec.Start.UTC()

		// The event URL doubles as a stable UID across runs
		vevent := cal.AddEvent(rec.URL)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(start)
		vevent.SetEndAt(start.Add(opts.Duration))
		vevent.SetSummary(rec.Name)
		vevent.SetDescription(description(rec, stamp))
		vevent.SetLocation(rec.Location)
		vevent.SetURL(rec.URL)
		vevent.SetStatus(ics.ObjectStatusConfirmed)

		alarm := vevent.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger(ReminderTrigger)
		alarm.SetProperty(ics.ComponentPropertyDescription, rec.Name)
	}

	return cal
}

func description(rec *event.Record, generated time.Time) string {
	return fmt.Sprintf("Watch: %s\n\nGenerated: %s", rec.URL, generated.Format(time.RFC3339))
}

// GenerateICS serializes records as an iCalendar feed
func GenerateICS(records []*event.Record, opts Options) string {
	return Build(records, opts).Serialize()
}

// WriteFile writes the feed to path atomically: the content goes to a
// temporary file in the same directory which is then renamed into place.
func WriteFile(path string, records []*event.Record, opts Options) error {
	content := GenerateICS(records, opts)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".grappling-events-*.ics")
	if err != nil {
		return &OutputError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close() //nolint:errcheck
		return &OutputError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	return nil
}
