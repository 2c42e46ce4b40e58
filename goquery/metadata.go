package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
)

var _ harvest.MetadataReader = (*MetadataReader)(nil)

// MetadataReader reads the title, description and language of a page.
// Open Graph values are used when the standard tags are missing.
type MetadataReader struct{}

// NewMetadataReader creates a new MetadataReader.
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// ReadMetadata parses html and returns its metadata.
func (r *MetadataReader) ReadMetadata(html string) (*harvest.PageMetadata, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, harvest.Errorf(harvest.ETRANSFORM, "parse HTML: %v", err)
	}

	meta := &harvest.PageMetadata{
		Title:       clean(doc.Find("head title").First().Text()),
		Description: attr(doc, `meta[name="description"]`, "content"),
		Language:    attr(doc, "html", "lang"),
	}
	if meta.Title == "" {
		meta.Title = attr(doc, `meta[property="og:title"]`, "content")
	}
	if meta.Title == "" {
		meta.Title = clean(doc.Find("h1").First().Text())
	}
	if meta.Description == "" {
		meta.Description = attr(doc, `meta[property="og:description"]`, "content")
	}
	return meta, nil
}

func attr(doc *goquery.Document, selector, name string) string {
	v, _ := doc.Find(selector).First().Attr(name)
	return clean(v)
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
