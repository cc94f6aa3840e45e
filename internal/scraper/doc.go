// Package scraper discovers event pages on the events site and turns them into
// event records for the calendar feed.
//
// Discovery visits the events listing (optionally once per upcoming month) and
// collects event URLs from the embedded structured data (Event nodes, ItemList
// entries and subEvents) plus any anchors whose path looks like an event page.
// Each event page is then parsed from its structured data, degrading to the
// visible document (heading, <time> element, inline script timestamps) when
// no dated Event node is present. Pages that fail are skipped, never fatal.
package scraper
