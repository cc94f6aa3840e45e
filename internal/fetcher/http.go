package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pfrederiksen/grappling-events/internal/logger"
)

// maxBodySize caps how much of a response body is read
const maxBodySize = 10 << 20

// HTTP fetches pages with a direct GET request. It suits pages that are
// served as complete HTML.
type HTTP struct {
	client    *http.Client
	userAgent string
}

// NewHTTP creates a static fetcher with the given per-request timeout
func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = Timeout
	}
	return &HTTP{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: UserAgent,
	}
}

// Fetch performs the GET and returns the body
func (h *HTTP) Fetch(ctx context.Context, url string) (string, error) {
	start := time.Now()
	defer func() {
		logger.RecordTiming("fetch.duration", time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", Accept)
	req.Header.Set("Accept-Language", AcceptLanguage)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("reading body: %w", err)}
	}

	logger.Debug("Fetched page", logger.Fields{
		"url":    url,
		"status": resp.StatusCode,
		"bytes":  len(body),
	})
	return string(body), nil
}
