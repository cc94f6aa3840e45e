package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/grappling-events/internal/event"
)

// isoTimestampPattern finds ISO-8601 date-times inside script text
var isoTimestampPattern = regexp.MustCompile(
	`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(?::\d{2}(?:\.\d+)?)?(?:Z|[+-]\d{2}(?::?\d{2})?)?`)

// parseDocument extracts an event from the visible page when no structured
// data describes it: heading for the name, <time datetime> or an ISO
// timestamp in inline script for the date, and a location-classed element.
func (s *Scraper) parseDocument(doc *goquery.Document, pageURL string) (*event.Record, error) {
	date := domDate(doc)
	if date == "" {
		return nil, event.ErrMissingDate
	}

	return event.NewRecord(domName(doc), date, domLocation(doc), s.domURL(doc, pageURL))
}

func domName(doc *goquery.Document) string {
	if h1 := collapse(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	return collapse(doc.Find("title").First().Text())
}

func domDate(doc *goquery.Document) string {
	var date string
	doc.Find("time[datetime]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		date = strings.TrimSpace(sel.AttrOr("datetime", ""))
		return date == ""
	})
	if date != "" {
		return date
	}

	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if _, external := sel.Attr("src"); external {
			return true
		}
		date = isoTimestampPattern.FindString(sel.Text())
		return date == ""
	})
	return date
}

func domLocation(doc *goquery.Document) string {
	var location string
	doc.Find(`[class*="location"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		location = collapse(sel.Text())
		return location == ""
	})
	return location
}

// domURL prefers the page's canonical link over the URL it was fetched from
func (s *Scraper) domURL(doc *goquery.Document, pageURL string) string {
	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		if u, err := s.resolve(href); err == nil {
			return u
		}
	}
	return pageURL
}

// collapse trims text and folds internal whitespace runs to single spaces
func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
