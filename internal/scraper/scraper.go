package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/fetcher"
)

const (
	DefaultBaseURL      = "https://www.flograppling.com"
	DefaultEventsPath   = "/events"
	DefaultEventPattern = `^/events/\d+`
	DefaultMonthParam   = "date"
	DefaultMonths       = 6
	DefaultMaxEvents    = 60
	DefaultDelay        = 2 * time.Second
	DefaultWorkers      = 1
)

// Config controls discovery, scraping and windowing
type Config struct {
	// BaseURL is the site origin every relative URL is resolved against
	BaseURL string
	// EventsPath is the path of the events listing
	EventsPath string
	// EventPattern matches the path of event detail pages
	EventPattern string
	// Months is how many monthly listing pages to visit, starting with the
	// current month. Zero visits only the plain listing.
	Months int
	// MonthParam is the query parameter selecting a listing month
	MonthParam string
	// MaxEvents caps the number of discovered event URLs
	MaxEvents int
	// Delay is the minimum spacing between requests to one origin
	Delay time.Duration
	// Workers is how many event pages are scraped at once
	Workers int
	// Timeout bounds each page fetch, not counting time queued behind Delay
	Timeout time.Duration
	// Window selects which events are kept
	Window event.Window
	// Now returns the run's reference time
	Now func() time.Time
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		EventsPath:   DefaultEventsPath,
		EventPattern: DefaultEventPattern,
		Months:       DefaultMonths,
		MonthParam:   DefaultMonthParam,
		MaxEvents:    DefaultMaxEvents,
		Delay:        DefaultDelay,
		Workers:      DefaultWorkers,
		Timeout:      fetcher.Timeout,
		Window:       event.DefaultWindow(),
		Now:          time.Now,
	}
}

// Scraper runs the discovery and extraction pipeline against one site
type Scraper struct {
	cfg          Config
	fetcher      fetcher.Fetcher
	base         *url.URL
	listing      *url.URL
	eventPattern *regexp.Regexp
}

// New creates a Scraper. Requests made through f are spaced per origin by
// cfg.Delay, and each one is bounded by cfg.Timeout once its turn comes.
func New(f fetcher.Fetcher, cfg Config) (*Scraper, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %q", cfg.BaseURL)
	}

	listing, err := base.Parse(cfg.EventsPath)
	if err != nil {
		return nil, fmt.Errorf("parsing events path: %w", err)
	}

	pattern, err := regexp.Compile(cfg.EventPattern)
	if err != nil {
		return nil, fmt.Errorf("compiling event pattern: %w", err)
	}

	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = DefaultMaxEvents
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = fetcher.Timeout
	}
	if cfg.Window == (event.Window{}) {
		cfg.Window = event.DefaultWindow()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	f = fetcher.NewDeadline(f, cfg.Timeout)
	if cfg.Delay > 0 {
		f = fetcher.NewThrottled(f, cfg.Delay)
	}

	return &Scraper{
		cfg:          cfg,
		fetcher:      f,
		base:         base,
		listing:      listing,
		eventPattern: pattern,
	}, nil
}
