package fetcher

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttled wraps a Fetcher and keeps a minimum spacing between requests to
// the same origin. Requests to different origins do not wait on each other.
type Throttled struct {
	next     Fetcher
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewThrottled spaces requests per origin by at least interval. A zero
// interval disables throttling.
func NewThrottled(next Fetcher, interval time.Duration) *Throttled {
	return &Throttled{
		next:     next,
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch waits for the origin's turn, then delegates
func (t *Throttled) Fetch(ctx context.Context, rawURL string) (string, error) {
	if t.interval > 0 {
		if err := t.limiter(origin(rawURL)).Wait(ctx); err != nil {
			return "", &FetchError{URL: rawURL, Err: err}
		}
	}
	return t.next.Fetch(ctx, rawURL)
}

func (t *Throttled) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(t.interval), 1)
		t.limiters[key] = l
	}
	return l
}

// origin returns scheme://host for a URL, or the raw string when it does not
// parse
func origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}
