package harvest

// PageMetadata is descriptive information read from a page's head.
type PageMetadata struct {
	Title       string
	Description string
	Language    string
}

// MetadataReader reads page metadata from rendered HTML.
type MetadataReader interface {
	ReadMetadata(html string) (*PageMetadata, error)
}
