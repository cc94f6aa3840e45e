// Package event defines the scraped event record and the date handling it
// depends on.
//
// A Record always carries a zone-qualified ISO-8601 start time: timestamps
// without a zone are taken as UTC, and NewRecord refuses to build a record
// whose date cannot be resolved. Window and SortByStart turn a batch of
// records into the chronological list the calendar feed is built from.
package event
