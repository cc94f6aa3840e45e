package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/fetcher"
	"github.com/pfrederiksen/grappling-events/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Run discovers event pages, scrapes each one, keeps the events inside the
// configured window and returns them sorted by start time. A page that fails
// to load or parse is logged and skipped; the only error returned is the
// context's.
func (s *Scraper) Run(ctx context.Context) ([]*event.Record, error) {
	now := s.cfg.Now()

	urls := s.discover(ctx, now)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := s.scrapeAll(ctx, urls)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept := s.cfg.Window.Filter(records, now)
	event.SortByStart(kept)

	logger.Info("Scrape complete", logger.Fields{
		"discovered": len(urls),
		"parsed":     len(records),
		"in_window":  len(kept),
	})
	return kept, nil
}

// scrapeAll scrapes urls with at most Workers in flight. Results come back in
// discovery order regardless of completion order, without the pages that
// produced nothing.
func (s *Scraper) scrapeAll(ctx context.Context, urls []string) []*event.Record {
	results := make([]*event.Record, len(urls))

	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)

	for i, u := range urls {
		g.Go(func() error {
			rec, err := s.scrapeOne(ctx, u)
			if err != nil {
				logSkip(u, err)
				return nil
			}
			results[i] = rec
			logger.IncrCounter("scrape.ok")
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	records := make([]*event.Record, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records
}

// scrapeOne scrapes a single page. The fetch deadline starts after the
// origin throttle lets the request through. A panic while parsing is turned
// into an error so it only loses this page.
func (s *Scraper) scrapeOne(ctx context.Context, pageURL string) (rec *event.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("panic scraping %s: %v", pageURL, r)
		}
	}()

	start := time.Now()
	defer func() {
		logger.RecordTiming("scrape.duration", time.Since(start))
	}()

	return s.ScrapeEvent(ctx, pageURL)
}

func logSkip(pageURL string, err error) {
	fields := logger.Fields{"url": pageURL}

	var fe *fetcher.FetchError
	switch {
	case errors.Is(err, event.ErrMissingDate):
		logger.IncrCounter("scrape.skipped")
		logger.Info("Skipping event without a date", fields)
	case errors.As(err, &fe):
		logger.IncrCounter("scrape.failed")
		if fe.StatusCode != 0 {
			fields["status"] = fe.StatusCode
		}
		logger.Warn("Skipping event page that failed to load", fields, err)
	default:
		logger.IncrCounter("scrape.failed")
		logger.Warn("Skipping event page", fields, err)
	}
}
