// Package cli implements the grappling-events command.
//
// The command scrapes the events site, writes the upcoming events to an
// iCalendar feed and prints a text or JSON summary of what was written.
// Every flag can also be set through a GRAPPLING_EVENTS_* environment
// variable; explicit flags win.
package cli
