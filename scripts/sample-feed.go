//go:build ignore

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/calendar"
	"github.com/pfrederiksen/grappling-events/internal/event"
)

func main() {
	start := time.Now().UTC().AddDate(0, 0, 7).Truncate(time.Hour).Format(time.RFC3339)
	rec, err := event.NewRecord(
		"Sample Grappling Championship",
		start,
		"Sample Arena, Austin, TX, US",
		"https://www.flograppling.com/events/0-sample",
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building record: %v\n", err)
		os.Exit(1)
	}

	filename := "sample-grappling-events.ics"
	if err := calendar.WriteFile(filename, []*event.Record{rec}, calendar.Options{}); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated calendar file: %s\n\n", filename)
	fmt.Println("Import it into your calendar app, or subscribe to a hosted copy.")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(calendar.GenerateICS([]*event.Record{rec}, calendar.Options{}))
}
