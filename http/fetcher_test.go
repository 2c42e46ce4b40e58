package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/harvest"
	harvesthttp "github.com/fwojciec/harvest/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns HTML body from server", func(t *testing.T) {
		t.Parallel()

		var userAgent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userAgent = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>Hello World</body></html>"))
		}))
		defer server.Close()

		fetcher := harvesthttp.NewFetcher()
		defer fetcher.Close()

		result, err := fetcher.Fetch(context.Background(), server.URL, harvest.RenderProfile{})

		require.NoError(t, err)
		assert.Equal(t, "<html><body>Hello World</body></html>", result.HTML)
		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.Equal(t, harvesthttp.DefaultUserAgent, userAgent)
	})

	t.Run("reports the final URL after redirects", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<p>moved</p>"))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		result, err := harvesthttp.NewFetcher().Fetch(context.Background(), server.URL+"/old", harvest.RenderProfile{})

		require.NoError(t, err)
		assert.Equal(t, server.URL+"/new", result.URL)
	})

	t.Run("applies the page timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		fetcher := harvesthttp.NewFetcher()

		_, err := fetcher.Fetch(context.Background(), server.URL, harvest.RenderProfile{PageTimeout: 10 * time.Millisecond})

		require.Error(t, err)
		assert.Equal(t, harvest.EFETCH, harvest.ErrorCode(err))
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := harvesthttp.NewFetcher().Fetch(ctx, server.URL, harvest.RenderProfile{})

		require.Error(t, err)
	})

	t.Run("returns error for non-existent host", func(t *testing.T) {
		t.Parallel()

		profile := harvest.RenderProfile{PageTimeout: 100 * time.Millisecond}

		_, err := harvesthttp.NewFetcher().Fetch(context.Background(), "http://non-existent-host.invalid/page", profile)

		require.Error(t, err)
		assert.Equal(t, harvest.EFETCH, harvest.ErrorCode(err))
	})

	t.Run("returns error for non-200 status codes", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("404 Not Found"))
		}))
		defer server.Close()

		_, err := harvesthttp.NewFetcher().Fetch(context.Background(), server.URL, harvest.RenderProfile{})

		require.Error(t, err)
		assert.Equal(t, harvest.EFETCH, harvest.ErrorCode(err))
		assert.Contains(t, harvest.ErrorMessage(err), "404")
	})

	t.Run("returns error for an empty body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("  \n"))
		}))
		defer server.Close()

		_, err := harvesthttp.NewFetcher().Fetch(context.Background(), server.URL, harvest.RenderProfile{})

		assert.Equal(t, harvest.EFETCH, harvest.ErrorCode(err))
	})

	t.Run("caps the body size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 100)))
		}))
		defer server.Close()

		result, err := harvesthttp.NewFetcher(harvesthttp.WithMaxBodyBytes(10)).Fetch(context.Background(), server.URL, harvest.RenderProfile{})

		require.NoError(t, err)
		assert.Len(t, result.HTML, 10)
	})
}
