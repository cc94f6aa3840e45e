package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult summarizes one run
type OutputResult struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Output      string          `json:"output"`
	Events      []*event.Record `json:"events"`
	EventCount  int             `json:"event_count"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	if result.Events == nil {
		result.Events = []*event.Record{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintf(w, "No upcoming events found. Wrote empty calendar to %s\n", result.Output)
		return nil
	}

	for _, rec := range result.Events {
		fmt.Fprintf(w, "%s  %s\n", rec.Start.UTC().Format("2006-01-02 15:04 MST"), rec.Name)
		if verbose {
			fmt.Fprintf(w, "       Location: %s\n", rec.Location)
			fmt.Fprintf(w, "       URL: %s\n", rec.URL)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d events written to %s\n", result.EventCount, result.Output)
	return nil
}
