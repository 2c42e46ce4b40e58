package harvest

import (
	"context"
	"time"
)

// RenderProfile controls how a page is rendered before its HTML is captured.
type RenderProfile struct {
	// WaitSelector is a CSS selector that must be present before capture.
	WaitSelector string

	// PreRenderScript is JavaScript evaluated once the page has loaded,
	// typically to scroll or expand collapsed sections.
	PreRenderScript string

	// SettleDelay is how long to wait after the script ran.
	SettleDelay time.Duration

	// PageTimeout bounds the whole page load.
	PageTimeout time.Duration
}

// FetchResult is the rendered page returned by a Fetcher.
type FetchResult struct {
	// URL is the final URL after redirects.
	URL string

	HTML       string
	StatusCode int
}

// Fetcher retrieves rendered HTML from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch loads the URL according to the profile and returns the rendered HTML.
	// A failed load is reported as an error, never as an empty result.
	Fetch(ctx context.Context, url string, profile RenderProfile) (*FetchResult, error)

	// Close releases browser resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}

// URLSet records URLs that have already been scheduled.
type URLSet interface {
	// Add records the URL and reports whether it was not seen before.
	Add(url string) bool
}
