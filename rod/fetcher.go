// Package rod renders JavaScript-heavy documentation pages in headless
// Chrome.
package rod

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/go-rod/rod"
)

// DefaultPageTimeout bounds a fetch when the render profile has none.
const DefaultPageTimeout = 60 * time.Second

// statusScript reads the HTTP status of the main document.
const statusScript = `() => {
  const nav = performance.getEntriesByType('navigation')[0];
  return nav && nav.responseStatus ? nav.responseStatus : 0;
}`

// serializeScript returns the document including open shadow roots, or
// null when the browser cannot serialize them.
const serializeScript = `() => {
  const root = document.documentElement;
  if (typeof root.getHTML !== 'function') return null;
  const roots = [];
  const walk = (node) => {
    for (const el of node.querySelectorAll('*')) {
      if (el.shadowRoot) {
        roots.push(el.shadowRoot);
        walk(el.shadowRoot);
      }
    }
  };
  walk(document);
  const attrs = Array.from(root.attributes)
    .map((a) => ' ' + a.name + '="' + a.value.replace(/"/g, '&quot;') + '"')
    .join('');
  return '<!DOCTYPE html><html' + attrs + '>' + root.getHTML({shadowRoots: roots}) + '</html>';
}`

// Ensure Fetcher implements harvest.Fetcher at compile time.
var _ harvest.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Each fetch opens a fresh tab on the managed browser.
type Fetcher struct {
	manager *BrowserManager
	logger  *slog.Logger
	closed  atomic.Bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger used for non-fatal render problems.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher creates a Fetcher rendering pages with the manager's browser.
// Closing the Fetcher closes the manager.
func NewFetcher(manager *BrowserManager, opts ...Option) *Fetcher {
	f := &Fetcher{
		manager: manager,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch loads the URL and returns the HTML once the page has rendered:
// the document has loaded, the wait selector is present, the pre-render
// script has run and the settle delay has passed.
func (f *Fetcher) Fetch(ctx context.Context, url string, profile harvest.RenderProfile) (*harvest.FetchResult, error) {
	if f.closed.Load() {
		return nil, harvest.Errorf(harvest.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := profile.PageTimeout
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	pageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fail := func(op string, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if pageCtx.Err() != nil {
			return harvest.Errorf(harvest.EFETCH, "%s %s: timed out after %s", op, url, timeout)
		}
		return harvest.Errorf(harvest.EFETCH, "%s %s: %v", op, url, err)
	}

	page, release, err := f.manager.OpenPage()
	if err != nil {
		return nil, fail("open page for", err)
	}
	defer release()

	page = page.Context(pageCtx)

	if err := page.Navigate(url); err != nil {
		return nil, fail("navigate to", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fail("load", err)
	}

	status := 0
	if res, err := page.Eval(statusScript); err == nil {
		status = res.Value.Int()
	}
	if status >= 400 {
		return nil, harvest.Errorf(harvest.EFETCH, "HTTP %d for %s", status, url)
	}

	if profile.WaitSelector != "" {
		if _, err := page.Element(profile.WaitSelector); err != nil {
			return nil, fail("wait for "+profile.WaitSelector+" on", err)
		}
	}

	if profile.PreRenderScript != "" {
		if _, err := page.Eval("async () => {\n" + profile.PreRenderScript + "\n}"); err != nil {
			if pageCtx.Err() != nil {
				return nil, fail("pre-render script on", err)
			}
			f.logger.Warn("pre-render script failed", "url", url, "err", err)
		}
	}

	if profile.SettleDelay > 0 {
		select {
		case <-time.After(profile.SettleDelay):
		case <-pageCtx.Done():
			return nil, fail("settle", pageCtx.Err())
		}
	}

	html, err := f.serialize(page)
	if err != nil {
		return nil, fail("read HTML of", err)
	}

	final := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		final = info.URL
	}

	return &harvest.FetchResult{
		URL:        final,
		HTML:       html,
		StatusCode: status,
	}, nil
}

func (f *Fetcher) serialize(page *rod.Page) (string, error) {
	if res, err := page.Eval(serializeScript); err == nil && !res.Value.Nil() {
		if html := res.Value.Str(); html != "" {
			return html, nil
		}
	}
	return page.HTML()
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}
