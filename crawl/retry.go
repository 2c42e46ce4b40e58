package crawl

import (
	"context"
	"time"

	"github.com/fwojciec/harvest"
)

var _ harvest.Fetcher = (*RetryFetcher)(nil)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// RetryFetcher retries failed fetches with a fixed backoff schedule.
// Retries belong to the fetch boundary; the Executor never retries.
type RetryFetcher struct {
	Fetcher harvest.Fetcher

	// Delays between attempts. One initial attempt plus one per delay.
	// Nil means DefaultRetryDelays.
	Delays []time.Duration

	// Log, if set, is called before every retry.
	Log LogFunc
}

func (f *RetryFetcher) Fetch(ctx context.Context, url string, profile harvest.RenderProfile) (*harvest.FetchResult, error) {
	delays := f.Delays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := f.Fetcher.Fetch(ctx, url, profile)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if f.Log != nil {
			f.Log("  retry %s (attempt %d): %v", url, attempt+2, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}

func (f *RetryFetcher) Close() error {
	return f.Fetcher.Close()
}
