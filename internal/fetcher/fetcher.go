// Package fetcher retrieves HTML for event and index pages, either with a
// plain HTTP GET or through a headless browser when the site renders its
// content client-side.
package fetcher

import (
	"context"
	"fmt"
	"time"
)

const (
	UserAgent      = "grappling-events-bot/1.0 (+https://github.com/pfrederiksen/grappling-events)"
	AcceptLanguage = "en-US,en;q=0.8"
	Accept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	Timeout        = 30 * time.Second
)

// Fetcher returns the HTML of a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchError reports a transport failure, timeout or non-success response
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Func adapts a function to the Fetcher interface
type Func func(ctx context.Context, url string) (string, error)

// Fetch calls f
func (f Func) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}
