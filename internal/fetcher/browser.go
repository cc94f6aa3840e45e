package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/pfrederiksen/grappling-events/internal/logger"
)

// networkIdleEvent is the lifecycle event Chrome emits once the page has had
// no network activity for 500ms
const networkIdleEvent = "networkIdle"

// BrowserOptions configures the headless browser strategy
type BrowserOptions struct {
	// ExecPath overrides the Chrome binary; empty uses chromedp's lookup
	ExecPath string
	// WaitSelector is the element whose presence means the content is ready
	WaitSelector string
	// Timeout bounds the whole fetch, browser startup included
	Timeout time.Duration
	// UserAgent sent by the browser
	UserAgent string
}

// Browser fetches fully rendered pages with a headless Chrome. Every Fetch
// launches its own browser process and tears it down before returning.
type Browser struct {
	opts BrowserOptions
}

// NewBrowser creates a rendered-page fetcher
func NewBrowser(opts BrowserOptions) *Browser {
	if opts.Timeout <= 0 {
		opts.Timeout = Timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = UserAgent
	}
	return &Browser{opts: opts}
}

func (b *Browser) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(b.opts.UserAgent),
	)
	if b.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.opts.ExecPath))
	}
	return opts
}

// Fetch navigates to url, waits for the content marker or network idle,
// whichever comes first, and returns the rendered document.
func (b *Browser) Fetch(ctx context.Context, url string) (string, error) {
	start := time.Now()
	defer func() {
		logger.RecordTiming("fetch.duration", time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	idle := make(chan struct{}, 1)
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == networkIdleEvent {
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	if err := chromedp.Run(browserCtx, page.SetLifecycleEventsEnabled(true)); err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("starting browser: %w", err)}
	}
	drain(idle)

	if err := chromedp.Run(browserCtx, chromedp.Navigate(url)); err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("navigating: %w", err)}
	}

	if err := b.waitForContent(browserCtx, idle); err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", &FetchError{URL: url, Err: fmt.Errorf("capturing document: %w", err)}
	}

	logger.Debug("Rendered page", logger.Fields{
		"url":   url,
		"bytes": len(html),
	})
	return html, nil
}

// waitForContent blocks until the marker selector appears or the network goes
// idle. Hitting the deadline is an error.
func (b *Browser) waitForContent(ctx context.Context, idle <-chan struct{}) error {
	if b.opts.WaitSelector == "" {
		return waitFirst(ctx, idle, nil)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	marker := make(chan error, 1)
	go func() {
		marker <- chromedp.Run(waitCtx, chromedp.WaitReady(b.opts.WaitSelector, chromedp.ByQuery))
	}()

	return waitFirst(ctx, idle, marker)
}

// waitFirst returns when either signal fires. A failed marker wait falls back
// to waiting for idle.
func waitFirst(ctx context.Context, idle <-chan struct{}, marker <-chan error) error {
	for {
		select {
		case <-idle:
			return nil
		case err := <-marker:
			if err == nil {
				return nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("waiting for content: %w", ctx.Err())
			}
			marker = nil
		case <-ctx.Done():
			return fmt.Errorf("waiting for content: %w", ctx.Err())
		}
	}
}

func drain(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}
