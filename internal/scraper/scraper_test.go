package scraper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/event"
	"github.com/pfrederiksen/grappling-events/internal/fetcher"
	"github.com/pfrederiksen/grappling-events/internal/jsonld"
)

const testBase = "https://www.site.test"

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// fakeSite serves canned pages keyed by URL and records every request
type fakeSite struct {
	mu       sync.Mutex
	pages    map[string]string
	failures map[string]error
	panics   map[string]bool
	requests []string
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		pages:    make(map[string]string),
		failures: make(map[string]error),
		panics:   make(map[string]bool),
	}
}

func (f *fakeSite) Fetch(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, url)
	f.mu.Unlock()

	if f.panics[url] {
		panic("renderer crashed")
	}
	if err, ok := f.failures[url]; ok {
		return "", err
	}
	if html, ok := f.pages[url]; ok {
		return html, nil
	}
	return "", &fetcher.FetchError{URL: url, StatusCode: 404}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BaseURL = testBase
	cfg.Months = 0
	cfg.MonthParam = ""
	cfg.Delay = 0
	cfg.Now = func() time.Time { return testNow }
	return cfg
}

func newTestScraper(t *testing.T, f fetcher.Fetcher, cfg Config) *Scraper {
	t.Helper()
	s, err := New(f, cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return string(data)
}

func eventPage(name, start, location string) string {
	return fmt.Sprintf(`<html><head><script type="application/ld+json">
		{"@type": "SportsEvent", "name": %q, "startDate": %q, "location": %q}
	</script></head><body></body></html>`, name, start, location)
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"relative base", func(c *Config) { c.BaseURL = "/events" }},
		{"bad pattern", func(c *Config) { c.EventPattern = "(" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			if _, err := New(newFakeSite(), cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIndexURLs(t *testing.T) {
	cfg := testConfig()
	cfg.Months = 3
	cfg.MonthParam = "date"
	s := newTestScraper(t, newFakeSite(), cfg)

	got := s.IndexURLs(testNow)
	want := []string{
		testBase + "/events",
		testBase + "/events?date=2026-10-01",
		testBase + "/events?date=2026-11-01",
		testBase + "/events?date=2026-12-01",
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d index URLs, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestDiscover(t *testing.T) {
	site := newFakeSite()
	site.pages[testBase+"/events"] = loadFixture(t, "listing.html")
	s := newTestScraper(t, site, testConfig())

	got := s.Discover(context.Background())
	want := []string{
		testBase + "/events/101-pan-championship",
		testBase + "/events/102-world-pro",
		testBase + "/events/103-grand-slam",
		testBase + "/events/104-european-open",
		testBase + "/events/105-festival",
		testBase + "/events/106-festival-day-1",
		testBase + "/events/107-no-gi-worlds?ref=list",
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d URLs, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestDiscover_DedupesEquivalentReferences(t *testing.T) {
	site := newFakeSite()
	site.pages[testBase+"/events"] = `<html><head><script type="application/ld+json">
		{"@type": "ItemList", "itemListElement": [
			{"url": "/events/1-open"},
			{"url": "https://www.site.test/events/1-open#event"}
		]}
	</script></head></html>`
	s := newTestScraper(t, site, testConfig())

	got := s.Discover(context.Background())
	if len(got) != 1 || got[0] != testBase+"/events/1-open" {
		t.Errorf("expected a single deduplicated URL, got %v", got)
	}
}

func TestDiscover_IgnoresSameDocumentReferences(t *testing.T) {
	site := newFakeSite()
	site.pages[testBase+"/events"] = `<html><head><script type="application/ld+json">
		{"@type": "SportsEvent", "@id": "#event", "startDate": "2026-11-01T00:00:00Z"}
	</script></head><body><a href="/events/1">One</a><a href="/">Home</a></body></html>`

	s := newTestScraper(t, site, testConfig())
	urls := s.Discover(context.Background())
	if len(urls) != 1 || urls[0] != testBase+"/events/1" {
		t.Errorf("expected only the event page, got %v", urls)
	}
}

func TestResolve_SiteRoot(t *testing.T) {
	s := newTestScraper(t, newFakeSite(), testConfig())

	for _, raw := range []string{"#event", "/", testBase, testBase + "/#main"} {
		if _, err := s.resolve(raw); err == nil {
			t.Errorf("resolve(%q) should fail", raw)
		}
	}
	if got, err := s.resolve("/?date=2026-11-01"); err != nil || got != testBase+"/?date=2026-11-01" {
		t.Errorf("resolve with query = %q, %v", got, err)
	}
}

func TestDiscover_Cap(t *testing.T) {
	site := newFakeSite()
	site.pages[testBase+"/events"] = loadFixture(t, "listing.html")

	cfg := testConfig()
	cfg.MaxEvents = 2
	s := newTestScraper(t, site, cfg)

	got := s.Discover(context.Background())
	if len(got) != 2 {
		t.Fatalf("expected discovery capped at 2, got %d", len(got))
	}
	if got[0] != testBase+"/events/101-pan-championship" {
		t.Errorf("expected first discovered URL kept, got %s", got[0])
	}
}

func TestDiscover_SkipsFailedIndexPages(t *testing.T) {
	site := newFakeSite()
	site.failures[testBase+"/events"] = &fetcher.FetchError{URL: testBase + "/events", StatusCode: 503}
	site.pages[testBase+"/events?date=2026-11-01"] = `<a href="/events/55-fall-open">Fall Open</a>`

	cfg := testConfig()
	cfg.Months = 2
	cfg.MonthParam = "date"
	s := newTestScraper(t, site, cfg)

	got := s.Discover(context.Background())
	if len(got) != 1 || got[0] != testBase+"/events/55-fall-open" {
		t.Errorf("expected URL from the surviving month page, got %v", got)
	}
	if len(site.requests) != 3 {
		t.Errorf("expected all 3 index pages requested, got %d", len(site.requests))
	}
}

func TestParseEvent(t *testing.T) {
	s := newTestScraper(t, newFakeSite(), testConfig())
	blocks := jsonld.Extract(loadFixture(t, "event.html"))

	rec, err := s.ParseEvent(blocks, testBase+"/events/201")
	if err != nil {
		t.Fatalf("ParseEvent failed: %v", err)
	}

	if rec.Name != "ADCC World Championship" {
		t.Errorf("expected name 'ADCC World Championship', got %q", rec.Name)
	}
	if rec.DateISO != "2026-11-14T16:00:00Z" {
		t.Errorf("expected start date with UTC marker, got %q", rec.DateISO)
	}
	if rec.Location != "Thomas & Mack Center, Las Vegas, NV, US" {
		t.Errorf("unexpected location %q", rec.Location)
	}
	if rec.URL != testBase+"/events/201-adcc-worlds" {
		t.Errorf("expected node URL resolved against origin, got %q", rec.URL)
	}
}

func TestParseEvent_Selection(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		wantDate string
		wantURL  string
		wantErr  error
	}{
		{
			name:     "end date used when start missing",
			json:     `{"@type": "Event", "endDate": "2026-12-01T18:00:00+01:00"}`,
			wantDate: "2026-12-01T18:00:00+01:00",
			wantURL:  "https://fallback.test/page",
		},
		{
			name:     "start preferred over end",
			json:     `{"@type": "Event", "endDate": "2026-12-02T00:00:00Z", "startDate": "2026-12-01T00:00:00Z"}`,
			wantDate: "2026-12-01T00:00:00Z",
			wantURL:  "https://fallback.test/page",
		},
		{
			name:     "malformed node URL falls back",
			json:     `{"@type": "Event", "startDate": "2026-12-01T00:00:00Z", "url": "http://[::1"}`,
			wantDate: "2026-12-01T00:00:00Z",
			wantURL:  "https://fallback.test/page",
		},
		{
			name:     "identifier used when url missing",
			json:     `{"@type": "Event", "startDate": "2026-12-01T00:00:00Z", "@id": "/events/9#event"}`,
			wantDate: "2026-12-01T00:00:00Z",
			wantURL:  testBase + "/events/9",
		},
		{
			name:     "same-document identifier ignored",
			json:     `{"@type": "Event", "startDate": "2026-12-01T00:00:00Z", "@id": "#event"}`,
			wantDate: "2026-12-01T00:00:00Z",
			wantURL:  "https://fallback.test/page",
		},
		{
			name:    "event without dates",
			json:    `{"@type": "Event", "name": "Someday", "url": "/events/1"}`,
			wantErr: ErrNoEventNode,
		},
		{
			name:    "dated non-event",
			json:    `{"@type": "Product", "startDate": "2026-12-01T00:00:00Z"}`,
			wantErr: ErrNoEventNode,
		},
		{
			name:    "unparseable date",
			json:    `{"@type": "Event", "startDate": "sometime in spring"}`,
			wantErr: event.ErrMissingDate,
		},
	}

	s := newTestScraper(t, newFakeSite(), testConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, err := jsonld.Parse([]byte(tt.json))
			if err != nil {
				t.Fatalf("bad test JSON: %v", err)
			}

			rec, err := s.ParseEvent([]jsonld.Node{block}, "https://fallback.test/page")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if rec != nil {
					t.Errorf("expected no record, got %+v", rec)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEvent failed: %v", err)
			}
			if rec.DateISO != tt.wantDate {
				t.Errorf("DateISO = %q, want %q", rec.DateISO, tt.wantDate)
			}
			if rec.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", rec.URL, tt.wantURL)
			}
		})
	}
}

func TestFormatLocation(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected string
	}{
		{"venue with partial address", `{"name": "Arena", "address": {"addressLocality": "City", "addressCountry": "US"}}`, "Arena, City, US"},
		{"venue only", `{"name": "Arena", "address": {}}`, "Arena"},
		{"venue without address", `{"@type": "Place", "name": "Arena"}`, "Arena"},
		{"address string", `{"name": "Arena", "address": "1 Main St, Austin"}`, "Arena, 1 Main St, Austin"},
		{"address without venue", `{"address": {"addressLocality": "Austin", "addressRegion": "TX"}}`, "Austin, TX"},
		{"plain string", `"  Copacabana Palace  "`, "Copacabana Palace"},
		{"empty string", `""`, event.LocationTBA},
		{"empty object", `{}`, event.LocationTBA},
		{"null", `null`, event.LocationTBA},
		{"array picks first usable", `[{}, {"name": "Hall B"}]`, "Hall B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := jsonld.Parse([]byte(tt.json))
			if err != nil {
				t.Fatalf("bad test JSON: %v", err)
			}
			if got := FormatLocation(n); got != tt.expected {
				t.Errorf("FormatLocation(%s) = %q, want %q", tt.json, got, tt.expected)
			}
		})
	}

	if got := FormatLocation(nil); got != event.LocationTBA {
		t.Errorf("FormatLocation(nil) = %q, want %q", got, event.LocationTBA)
	}
}

func TestParsePage_DOMFallback(t *testing.T) {
	tests := []struct {
		name         string
		html         string
		wantName     string
		wantDate     string
		wantLocation string
		wantURL      string
		wantErr      error
	}{
		{
			name: "time element and location class",
			html: `<html><head><title>Fallback | Site</title>
				<link rel="canonical" href="/events/77-kasai-pro">
				</head><body>
				<h1>  Kasai   Pro  </h1>
				<time datetime="2026-11-02T19:00:00">Nov 2</time>
				<div class="event-location">  Hyatt Regency,
				    Dallas </div>
				</body></html>`,
			wantName:     "Kasai Pro",
			wantDate:     "2026-11-02T19:00:00Z",
			wantLocation: "Hyatt Regency, Dallas",
			wantURL:      testBase + "/events/77-kasai-pro",
		},
		{
			name: "timestamp in inline script",
			html: `<html><head><title>Who's Number One</title>
				<script src="/app.js"></script>
				<script>window.__STATE__ = {"event": {"start": "2026-12-05T01:00:00.000Z"}};</script>
				</head><body></body></html>`,
			wantName:     "Who's Number One",
			wantDate:     "2026-12-05T01:00:00.000Z",
			wantLocation: event.LocationTBA,
			wantURL:      testBase + "/events/5",
		},
		{
			name: "inline timestamp with hour-only offset",
			html: `<html><head><title>Kit Dale Open</title>
				<script>var start = "2026-03-01T10:00:00+05";</script>
				</head><body></body></html>`,
			wantName:     "Kit Dale Open",
			wantDate:     "2026-03-01T10:00:00+05",
			wantLocation: event.LocationTBA,
			wantURL:      testBase + "/events/5",
		},
		{
			name: "og title used without heading",
			html: `<html><head><meta property="og:title" content="Polaris 30"><title>ignored</title></head>
				<body><time datetime="2026-11-20">Nov 20</time></body></html>`,
			wantName:     "Polaris 30",
			wantDate:     "2026-11-20T00:00:00Z",
			wantLocation: event.LocationTBA,
			wantURL:      testBase + "/events/5",
		},
		{
			name: "undated event node and no DOM date",
			html: `<html><head><script type="application/ld+json">
				{"@type": "SportsEvent", "name": "Coming Soon", "url": "/events/5"}
				</script></head><body><h1>Coming Soon</h1></body></html>`,
			wantErr: event.ErrMissingDate,
		},
	}

	s := newTestScraper(t, newFakeSite(), testConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := s.ParsePage(tt.html, testBase+"/events/5")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				if rec != nil {
					t.Errorf("expected no record, got %+v", rec)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePage failed: %v", err)
			}
			if rec.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", rec.Name, tt.wantName)
			}
			if rec.DateISO != tt.wantDate {
				t.Errorf("DateISO = %q, want %q", rec.DateISO, tt.wantDate)
			}
			if rec.Location != tt.wantLocation {
				t.Errorf("Location = %q, want %q", rec.Location, tt.wantLocation)
			}
			if rec.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", rec.URL, tt.wantURL)
			}
		})
	}
}

func TestParsePage_PrefersStructuredData(t *testing.T) {
	s := newTestScraper(t, newFakeSite(), testConfig())

	rec, err := s.ParsePage(loadFixture(t, "event.html"), testBase+"/events/201")
	if err != nil {
		t.Fatalf("ParsePage failed: %v", err)
	}
	if rec.Name != "ADCC World Championship" {
		t.Errorf("expected structured name over <h1>, got %q", rec.Name)
	}
}

func runSite(t *testing.T, workers int) (*fakeSite, []*event.Record) {
	t.Helper()

	site := newFakeSite()
	site.pages[testBase+"/events"] = `<html><body>
		<a href="/events/1">One</a>
		<a href="/events/2">Two</a>
		<a href="/events/3">Three</a>
		<a href="/events/4">Four</a>
		<a href="/events/5">Five</a>
		<a href="/events/6">Six</a>
	</body></html>`
	site.pages[testBase+"/events/1"] = eventPage("Third", "2026-12-03T10:00:00Z", "Austin")
	site.failures[testBase+"/events/2"] = &fetcher.FetchError{URL: testBase + "/events/2", Err: errors.New("connection reset")}
	site.pages[testBase+"/events/3"] = eventPage("First", "2026-11-01T10:00:00Z", "Rio")
	site.pages[testBase+"/events/4"] = eventPage("Second", "2026-11-15T10:00", "")
	site.pages[testBase+"/events/5"] = eventPage("Long Ago", "2025-01-01T10:00:00Z", "Tokyo")
	site.panics[testBase+"/events/6"] = true

	cfg := testConfig()
	cfg.Workers = workers
	s := newTestScraper(t, site, cfg)

	records, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return site, records
}

func TestRun(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			site, records := runSite(t, workers)

			want := []string{"First", "Second", "Third"}
			if len(records) != len(want) {
				t.Fatalf("expected %d records, got %d", len(want), len(records))
			}
			for i, name := range want {
				if records[i].Name != name {
					t.Errorf("position %d: expected %s, got %s", i, name, records[i].Name)
				}
			}

			if records[1].Location != event.LocationTBA {
				t.Errorf("expected TBA location, got %q", records[1].Location)
			}
			if records[1].DateISO != "2026-11-15T10:00Z" {
				t.Errorf("expected UTC marker appended, got %q", records[1].DateISO)
			}

			// listing page plus six event pages, the failures included
			if len(site.requests) != 7 {
				t.Errorf("expected 7 requests, got %d", len(site.requests))
			}
		})
	}
}

func TestRun_PerItemIsolation(t *testing.T) {
	site := newFakeSite()
	site.pages[testBase+"/events"] = `<a href="/events/1">1</a><a href="/events/2">2</a><a href="/events/3">3</a>`
	site.pages[testBase+"/events/1"] = eventPage("A", "2026-11-01T00:00:00Z", "X")
	site.failures[testBase+"/events/2"] = &fetcher.FetchError{URL: testBase + "/events/2", StatusCode: 500}
	site.pages[testBase+"/events/3"] = eventPage("C", "2026-11-03T00:00:00Z", "Z")

	s := newTestScraper(t, site, testConfig())
	records, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(records) != 2 || records[0].Name != "A" || records[1].Name != "C" {
		t.Errorf("expected results of the first and third pages, got %+v", records)
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScraper(t, newFakeSite(), testConfig())
	if _, err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRun_StableTies(t *testing.T) {
	site := newFakeSite()
	site.pages[testBase+"/events"] = `<a href="/events/1">1</a><a href="/events/2">2</a><a href="/events/3">3</a>`
	site.pages[testBase+"/events/1"] = eventPage("Mat 1", "2026-11-01T00:00:00Z", "")
	site.pages[testBase+"/events/2"] = eventPage("Mat 2", "2026-11-01T00:00:00Z", "")
	site.pages[testBase+"/events/3"] = eventPage("Earlier", "2026-10-31T00:00:00Z", "")

	s := newTestScraper(t, site, testConfig())
	records, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"Earlier", "Mat 1", "Mat 2"}
	for i, name := range want {
		if records[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, records[i].Name)
		}
	}
}

func TestRun_ThrottleQueueNotChargedToTimeout(t *testing.T) {
	site := newFakeSite()
	listing := ""
	for i := 1; i <= 6; i++ {
		u := fmt.Sprintf("%s/events/%d", testBase, i)
		listing += fmt.Sprintf(`<a href="/events/%d">%d</a>`, i, i)
		site.pages[u] = eventPage(fmt.Sprintf("Event %d", i), fmt.Sprintf("2026-11-0%dT10:00:00Z", i), "")
	}
	site.pages[testBase+"/events"] = listing

	// the last page waits about 1.8s in the queue, well past Timeout
	cfg := testConfig()
	cfg.Workers = 6
	cfg.Delay = 300 * time.Millisecond
	cfg.Timeout = 700 * time.Millisecond
	s := newTestScraper(t, site, cfg)

	records, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(records) != 6 {
		t.Errorf("expected all 6 events, got %d", len(records))
	}
	if len(site.requests) != 7 {
		t.Errorf("expected 7 requests, got %d", len(site.requests))
	}
}
