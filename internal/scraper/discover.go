package scraper

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/grappling-events/internal/jsonld"
	"github.com/pfrederiksen/grappling-events/internal/logger"
)

// IndexURLs returns the listing pages to visit: the plain events listing
// followed by one page per month starting with the month containing now.
func (s *Scraper) IndexURLs(now time.Time) []string {
	pages := []string{s.listing.String()}

	if s.cfg.MonthParam == "" {
		return pages
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < s.cfg.Months; i++ {
		month := first.AddDate(0, i, 0)

		page := *s.listing
		q := page.Query()
		q.Set(s.cfg.MonthParam, month.Format("2006-01-02"))
		page.RawQuery = q.Encode()
		pages = append(pages, page.String())
	}
	return pages
}

// Discover collects candidate event URLs from every listing page, using the
// structured data first and matching anchors as a supplementary source. A
// listing page that fails to load is skipped. The result is deduplicated,
// in first-seen order, and capped at MaxEvents.
func (s *Scraper) Discover(ctx context.Context) []string {
	return s.discover(ctx, s.cfg.Now())
}

func (s *Scraper) discover(ctx context.Context, now time.Time) []string {
	found := newURLSet(s.cfg.MaxEvents)

	for _, index := range s.IndexURLs(now) {
		if found.full() || ctx.Err() != nil {
			break
		}

		html, err := s.fetcher.Fetch(ctx, index)
		if err != nil {
			logger.Warn("Skipping listing page", logger.Fields{"url": index}, err)
			logger.IncrCounter("discover.index_failed")
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			logger.Warn("Unparseable listing page", logger.Fields{"url": index}, err)
			continue
		}

		fromData, fromAnchors := 0, 0
		for _, u := range s.structuredURLs(jsonld.FromDocument(doc)) {
			if found.add(u) {
				fromData++
			}
		}
		for _, u := range s.anchorURLs(doc) {
			if found.add(u) {
				fromAnchors++
			}
		}

		logger.Debug("Scanned listing page", logger.Fields{
			"url":          index,
			"from_data":    fromData,
			"from_anchors": fromAnchors,
		})
	}

	urls := found.urls()
	logger.AddCounter("discover.urls", int64(len(urls)))
	logger.Info("Discovered event URLs", logger.Fields{"count": len(urls)})
	return urls
}

// structuredURLs pulls event URLs out of structured-data blocks: Event nodes
// with their own URL, ItemList entries and nested subEvents.
func (s *Scraper) structuredURLs(blocks []jsonld.Node) []string {
	var candidates []string

	for n := range jsonld.WalkAll(blocks) {
		obj, ok := n.(*jsonld.Object)
		if !ok {
			continue
		}

		if isEvent(obj) {
			if u, ok := identifier(obj); ok {
				candidates = append(candidates, u)
			}
		}

		if obj.HasTypeSuffix("ItemList") {
			for _, item := range obj.List("itemListElement") {
				if u, ok := itemURL(item); ok {
					candidates = append(candidates, u)
				}
			}
		}

		for _, sub := range obj.List("subEvent") {
			child, ok := sub.(*jsonld.Object)
			if !ok || !isEvent(child) {
				continue
			}
			if u, ok := identifier(child); ok {
				candidates = append(candidates, u)
			}
		}
	}

	return s.resolveAll(candidates)
}

// anchorURLs returns same-site links whose path looks like an event page
func (s *Scraper) anchorURLs(doc *goquery.Document) []string {
	var candidates []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		candidates = append(candidates, href)
	})

	var urls []string
	for _, u := range s.resolveAll(candidates) {
		if s.isEventPage(u) {
			urls = append(urls, u)
		}
	}
	return urls
}

func (s *Scraper) isEventPage(abs string) bool {
	u, err := s.base.Parse(abs)
	if err != nil || !strings.EqualFold(u.Hostname(), s.base.Hostname()) {
		return false
	}
	return s.eventPattern.MatchString(u.Path)
}

// resolveAll resolves each candidate, dropping those that fail
func (s *Scraper) resolveAll(candidates []string) []string {
	urls := make([]string, 0, len(candidates))
	for _, c := range candidates {
		u, err := s.resolve(c)
		if err != nil {
			var re *ResolutionError
			if errors.As(err, &re) {
				logger.Debug("Dropping candidate URL", logger.Fields{"raw": re.Raw, "error": re.Err.Error()})
			}
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

// itemURL reads the URL of one itemListElement entry. The entry may be a bare
// string, carry "url" directly, nest it under "item", or only have "@id".
func itemURL(item jsonld.Node) (string, bool) {
	if s, ok := jsonld.AsString(item); ok {
		return s, true
	}

	obj, ok := item.(*jsonld.Object)
	if !ok {
		return "", false
	}
	if u, ok := obj.Text("url"); ok {
		return u, true
	}

	if nested, ok := obj.Get("item"); ok {
		if s, ok := jsonld.AsString(nested); ok {
			return s, true
		}
		if child, ok := nested.(*jsonld.Object); ok {
			if u, ok := identifier(child); ok {
				return u, true
			}
		}
	}

	return obj.Text("@id")
}

// isEvent reports whether a node is Event-like
func isEvent(obj *jsonld.Object) bool {
	return obj.HasTypeSuffix("Event")
}

// identifier returns a node's "url", falling back to "@id"
func identifier(obj *jsonld.Object) (string, bool) {
	if u, ok := obj.Text("url"); ok {
		return u, true
	}
	return obj.Text("@id")
}
