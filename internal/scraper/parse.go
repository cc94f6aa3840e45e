package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/jsonld"
)

// ErrNoEventNode is returned when no structured-data node describes a dated
// event
var ErrNoEventNode = errors.New("no dated event in structured data")

// ParseEvent builds a record from the first Event-like node that carries a
// startDate or endDate. The node's own url/@id is preferred over fallbackURL.
func (s *Scraper) ParseEvent(blocks []jsonld.Node, fallbackURL string) (*event.Record, error) {
	node, date, ok := selectEventNode(blocks)
	if !ok {
		return nil, ErrNoEventNode
	}

	name, _ := node.Text("name")
	location, _ := node.Get("location")

	return event.NewRecord(name, date, FormatLocation(location), s.canonicalURL(node, fallbackURL))
}

// ParsePage extracts the event on one page, falling back to the visible
// document when the structured data has no dated event.
func (s *Scraper) ParsePage(html, pageURL string) (*event.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	rec, err := s.ParseEvent(jsonld.FromDocument(doc), pageURL)
	if errors.Is(err, ErrNoEventNode) {
		return s.parseDocument(doc, pageURL)
	}
	return rec, err
}

// ScrapeEvent fetches one event page and parses it
func (s *Scraper) ScrapeEvent(ctx context.Context, pageURL string) (*event.Record, error) {
	html, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return s.ParsePage(html, pageURL)
}

// selectEventNode walks every block and returns the first Event-like node with
// a non-empty start or end date, preferring start.
func selectEventNode(blocks []jsonld.Node) (*jsonld.Object, string, bool) {
	for n := range jsonld.WalkAll(blocks) {
		obj, ok := n.(*jsonld.Object)
		if !ok || !isEvent(obj) {
			continue
		}
		if date, ok := obj.Text("startDate"); ok {
			return obj, date, true
		}
		if date, ok := obj.Text("endDate"); ok {
			return obj, date, true
		}
	}
	return nil, "", false
}

func (s *Scraper) canonicalURL(node *jsonld.Object, fallbackURL string) string {
	if raw, ok := identifier(node); ok {
		if u, err := s.resolve(raw); err == nil {
			return u
		}
	}
	return fallbackURL
}
