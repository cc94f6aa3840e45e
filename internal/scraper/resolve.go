package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ResolutionError reports a candidate URL that could not be made absolute
type ResolutionError struct {
	Raw string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %q: %v", e.Raw, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// resolve makes raw absolute against the site origin. Only http(s) results
// are accepted; fragments are dropped so that "#event" anchors on the same
// page compare equal.
func (s *Scraper) resolve(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &ResolutionError{Raw: raw, Err: errors.New("empty URL")}
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", &ResolutionError{Raw: raw, Err: err}
	}

	abs := s.base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", &ResolutionError{Raw: raw, Err: fmt.Errorf("unsupported scheme %q", abs.Scheme)}
	}
	if abs.Host == "" {
		return "", &ResolutionError{Raw: raw, Err: errors.New("missing host")}
	}

	abs.Fragment = ""
	abs.RawFragment = ""
	if s.isSiteRoot(abs) {
		return "", &ResolutionError{Raw: raw, Err: errors.New("refers to the site root, not a page")}
	}
	return abs.String(), nil
}

// isSiteRoot reports whether u is the base URL itself, which is what a
// same-document reference like "#event" resolves to.
func (s *Scraper) isSiteRoot(u *url.URL) bool {
	return strings.EqualFold(u.Host, s.base.Host) &&
		strings.TrimSuffix(u.Path, "/") == strings.TrimSuffix(s.base.Path, "/") &&
		u.RawQuery == ""
}

// urlSet is an insertion-ordered set of URLs with a size cap
type urlSet struct {
	limit int
	seen  map[string]bool
	list  []string
}

func newURLSet(limit int) *urlSet {
	return &urlSet{limit: limit, seen: make(map[string]bool)}
}

// add inserts u and reports whether it was new. Once the cap is reached
// nothing more is added.
func (s *urlSet) add(u string) bool {
	if s.full() || s.seen[u] {
		return false
	}
	s.seen[u] = true
	s.list = append(s.list, u)
	return true
}

func (s *urlSet) full() bool {
	return s.limit > 0 && len(s.list) >= s.limit
}

func (s *urlSet) urls() []string {
	return append([]string(nil), s.list...)
}
