package fetcher

import (
	"context"
	"time"
)

// Deadline bounds each call to the wrapped Fetcher by timeout. Placed under
// Throttled, time spent queueing for an origin is not charged to the fetch.
type Deadline struct {
	next    Fetcher
	timeout time.Duration
}

// NewDeadline wraps next. A zero timeout leaves calls unbounded.
func NewDeadline(next Fetcher, timeout time.Duration) *Deadline {
	return &Deadline{next: next, timeout: timeout}
}

// Fetch delegates under a fresh deadline
func (d *Deadline) Fetch(ctx context.Context, rawURL string) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return d.next.Fetch(ctx, rawURL)
}
