package mock

import (
	"context"

	"github.com/fwojciec/harvest"
)

var (
	_ harvest.Extractor      = (*Extractor)(nil)
	_ harvest.Converter      = (*Converter)(nil)
	_ harvest.MetadataReader = (*MetadataReader)(nil)
	_ harvest.TokenCounter   = (*TokenCounter)(nil)
)

// Extractor is a mock implementation of harvest.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*harvest.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*harvest.ExtractResult, error) {
	return e.ExtractFn(html)
}

// Converter is a mock implementation of harvest.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

// MetadataReader is a mock implementation of harvest.MetadataReader.
type MetadataReader struct {
	ReadMetadataFn func(html string) (*harvest.PageMetadata, error)
}

func (r *MetadataReader) ReadMetadata(html string) (*harvest.PageMetadata, error) {
	return r.ReadMetadataFn(html)
}

// TokenCounter is a mock implementation of harvest.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return tc.CountTokensFn(ctx, text)
}
