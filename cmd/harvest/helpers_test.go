package main_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/crawl"
	"github.com/fwojciec/harvest/fs"
	"github.com/fwojciec/harvest/mock"
	"github.com/stretchr/testify/require"
)

const manifestJSON = `{
  "modules": {
    "UI Components": {
      "directory": "ui",
      "sub_modules": {
        "Button": {"module_name": "button", "url": "https://docs.example.com/ui/button"},
        "List": {"module_name": "list", "url": "https://docs.example.com/ui/list"}
      }
    }
  }
}`

// pageHTML returns a rendered page long enough to pass the content gate.
func pageHTML(title string) string {
	body := strings.Repeat("<p>Use the component for layout and interaction.</p>\n", 40)
	return fmt.Sprintf("<html><head><title>%s</title></head><body><main><h1>%s</h1>\n%s</main></body></html>", title, title, body)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// pageFetcher serves pageHTML for every URL except those in failing.
func pageFetcher(failing ...string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string, _ harvest.RenderProfile) (*harvest.FetchResult, error) {
			for _, f := range failing {
				if f == url {
					return nil, harvest.Errorf(harvest.EFETCH, "HTTP 503 for %s", url)
				}
			}
			return &harvest.FetchResult{URL: url, HTML: pageHTML(url), StatusCode: 200}, nil
		},
		CloseFn: func() error { return nil },
	}
}

func newOrchestrator(root string, fetcher harvest.Fetcher) *crawl.Orchestrator {
	return &crawl.Orchestrator{
		Executor: &crawl.Executor{
			Store:   fs.NewArtifactStore(root),
			Fetcher: fetcher,
		},
		OutputDir: root,
		Sleep:     func(context.Context, time.Duration) error { return nil },
	}
}
