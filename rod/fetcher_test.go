//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Fetcher implements harvest.Fetcher.
var _ harvest.Fetcher = (*rod.Fetcher)(nil)

func newFetcher(t *testing.T) *rod.Fetcher {
	t.Helper()

	manager, err := rod.NewBrowserManager()
	require.NoError(t, err)
	f := rod.NewFetcher(manager)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_Fetch_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := serve(t, "<html><body>never</body></html>")
	fetcher := newFetcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx, srv.URL, harvest.RenderProfile{})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcher_Fetch_ReturnsRenderedHTML(t *testing.T) {
	t.Parallel()

	srv := serve(t, `<!DOCTYPE html>
<html lang="en">
<head><title>Test Page</title></head>
<body>
<div id="content">Loading...</div>
<script>
document.getElementById('content').textContent = 'JavaScript Rendered';
</script>
</body>
</html>`)
	fetcher := newFetcher(t)

	result, err := fetcher.Fetch(context.Background(), srv.URL, harvest.RenderProfile{WaitSelector: "#content"})

	require.NoError(t, err)
	assert.Contains(t, result.HTML, "JavaScript Rendered")
	assert.NotContains(t, result.HTML, "Loading...")
	assert.Contains(t, result.HTML, `lang="en"`)
	assert.Equal(t, http.StatusOK, result.StatusCode)
}

func TestFetcher_Fetch_WaitsForLateContent(t *testing.T) {
	t.Parallel()

	srv := serve(t, `<!DOCTYPE html>
<html><body>
<div id="app"></div>
<script>
setTimeout(() => {
  const el = document.createElement('article');
  el.textContent = 'Late content';
  document.getElementById('app').appendChild(el);
}, 300);
</script>
</body></html>`)
	fetcher := newFetcher(t)

	result, err := fetcher.Fetch(context.Background(), srv.URL, harvest.RenderProfile{
		WaitSelector: "article",
		PageTimeout:  10 * time.Second,
	})

	require.NoError(t, err)
	assert.Contains(t, result.HTML, "Late content")
}

func TestFetcher_Fetch_RunsPreRenderScript(t *testing.T) {
	t.Parallel()

	srv := serve(t, `<!DOCTYPE html><html><body><p>Static</p></body></html>`)
	fetcher := newFetcher(t)

	// Top-level await must work, as in the default script.
	script := `
await new Promise(resolve => setTimeout(resolve, 50));
document.body.insertAdjacentHTML('beforeend', '<p>Injected</p>');
`

	result, err := fetcher.Fetch(context.Background(), srv.URL, harvest.RenderProfile{
		PreRenderScript: script,
		SettleDelay:     100 * time.Millisecond,
	})

	require.NoError(t, err)
	assert.Contains(t, result.HTML, "Injected")
}

func TestFetcher_Fetch_TimeoutTriggersOnMissingSelector(t *testing.T) {
	t.Parallel()

	srv := serve(t, `<html><body><p>no target here</p></body></html>`)
	fetcher := newFetcher(t)

	_, err := fetcher.Fetch(context.Background(), srv.URL, harvest.RenderProfile{
		WaitSelector: "#never",
		PageTimeout:  500 * time.Millisecond,
	})

	require.Error(t, err)
	assert.Equal(t, harvest.EFETCH, harvest.ErrorCode(err))
	assert.Contains(t, harvest.ErrorMessage(err), "timed out")
}

func TestFetcher_Fetch_ReportsHTTPErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	fetcher := newFetcher(t)

	_, err := fetcher.Fetch(context.Background(), srv.URL, harvest.RenderProfile{})

	require.Error(t, err)
	assert.Equal(t, harvest.EFETCH, harvest.ErrorCode(err))
	assert.Contains(t, harvest.ErrorMessage(err), "404")
}

func TestFetcher_Close_Idempotent(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager()
	require.NoError(t, err)
	fetcher := rod.NewFetcher(manager)

	require.NoError(t, fetcher.Close())
	require.NoError(t, fetcher.Close())
}

func TestFetcher_Fetch_AfterClose_ReturnsError(t *testing.T) {
	t.Parallel()

	manager, err := rod.NewBrowserManager()
	require.NoError(t, err)
	fetcher := rod.NewFetcher(manager)
	require.NoError(t, fetcher.Close())

	_, err = fetcher.Fetch(context.Background(), "http://example.com", harvest.RenderProfile{})

	require.Error(t, err)
	assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	assert.Contains(t, harvest.ErrorMessage(err), "closed")
}

func TestFetcher_Fetch_SerializesShadowDOMContent(t *testing.T) {
	t.Parallel()

	srv := serve(t, `<!DOCTYPE html>
<html>
<head><title>Shadow DOM Test</title></head>
<body>
<nav-menu></nav-menu>
<script>
class NavMenu extends HTMLElement {
  constructor() {
    super();
    const shadow = this.attachShadow({mode: 'open'});
    shadow.innerHTML = '<a href="/shadow-link-1" data-shadow-content="true">Shadow Link 1</a><a href="/shadow-link-2" data-shadow-content="true">Shadow Link 2</a>';
  }
}
customElements.define('nav-menu', NavMenu);
</script>
</body>
</html>`)
	fetcher := newFetcher(t)

	result, err := fetcher.Fetch(context.Background(), srv.URL, harvest.RenderProfile{})

	require.NoError(t, err)
	// The marker appears twice inside the script; serialized shadow roots add more.
	markerCount := strings.Count(result.HTML, `data-shadow-content="true"`)
	assert.Greater(t, markerCount, 2, "shadow DOM content not serialized: marker found %d times", markerCount)
}
