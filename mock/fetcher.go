package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var (
	_ harvest.Fetcher        = (*Fetcher)(nil)
	_ harvest.SitemapService = (*SitemapService)(nil)
)

// Fetcher is a mock implementation of harvest.Fetcher. A nil CloseFn
// makes Close a no-op.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string, profile harvest.RenderProfile) (*harvest.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string, profile harvest.RenderProfile) (*harvest.FetchResult, error) {
	return f.FetchFn(ctx, url, profile)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

// SitemapService is a mock implementation of harvest.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *harvest.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *harvest.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}
