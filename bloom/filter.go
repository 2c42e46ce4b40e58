// Package bloom provides URL deduplication using Bloom filters.
package bloom

import (
	"github.com/bits-and-blooms/bloom/v3"
	"github.com/fwojciec/harvest"
)

// DefaultFalsePositiveRate is the filter accuracy used by NewURLSet.
const DefaultFalsePositiveRate = 0.01

var _ harvest.URLSet = (*Filter)(nil)

// Filter wraps a Bloom filter for URL deduplication.
//
// Positive filter hits are confirmed against the exact set of added URLs,
// so a false positive never drops a URL that was not seen before.
type Filter struct {
	f    *bloom.BloomFilter
	seen map[string]struct{}
}

// NewFilter creates a new Bloom filter sized for n expected items
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f:    bloom.NewWithEstimates(max(n, 1), fpRate),
		seen: make(map[string]struct{}, n),
	}
}

// NewURLSet returns a Filter sized for n URLs.
func NewURLSet(n int) harvest.URLSet {
	return NewFilter(uint(max(n, 0)), DefaultFalsePositiveRate)
}

// Add records the URL and reports whether it was not seen before.
func (f *Filter) Add(url string) bool {
	if !f.f.TestOrAddString(url) {
		f.seen[url] = struct{}{}
		return true
	}
	if _, ok := f.seen[url]; ok {
		return false
	}
	f.seen[url] = struct{}{}
	return true
}

// Test returns true if the URL might be in the filter.
// False positives are possible; false negatives are not.
func (f *Filter) Test(url string) bool {
	return f.f.TestString(url)
}

// EstimatedCount returns the approximate number of items in the filter.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}
