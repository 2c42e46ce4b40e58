package crawl

import (
	"context"
	"net/url"
	"sync"

	"github.com/fwojciec/harvest"
	"golang.org/x/time/rate"
)

var (
	_ harvest.DomainLimiter = (*DomainLimiter)(nil)
	_ harvest.Fetcher       = (*ThrottledFetcher)(nil)
)

// DomainLimiter keeps one token bucket per host. Buckets hold a single
// token, so requests to a host are spaced evenly at rps.
type DomainLimiter struct {
	rps rate.Limit

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{rps: rate.Limit(rps), buckets: map[string]*rate.Limiter{}}
}

// Wait blocks until domain may be requested again or ctx is done.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return d.bucket(domain).Wait(ctx)
}

func (d *DomainLimiter) bucket(domain string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := d.buckets[domain]
	if b == nil {
		b = rate.NewLimiter(d.rps, 1)
		d.buckets[domain] = b
	}
	return b
}

// ThrottledFetcher waits for the per-domain limiter before every fetch.
// It sits below RetryFetcher so that retries are throttled too.
type ThrottledFetcher struct {
	Fetcher harvest.Fetcher
	Limiter harvest.DomainLimiter
}

func (f *ThrottledFetcher) Fetch(ctx context.Context, rawURL string, profile harvest.RenderProfile) (*harvest.FetchResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, harvest.Errorf(harvest.EFETCH, "invalid url %q", rawURL)
	}
	if err := f.Limiter.Wait(ctx, u.Host); err != nil {
		return nil, err
	}
	return f.Fetcher.Fetch(ctx, rawURL, profile)
}

func (f *ThrottledFetcher) Close() error {
	return f.Fetcher.Close()
}
