package harvest

// Link is a same-site link found on an index page.
type Link struct {
	URL  string
	Text string
}

// LinkExtractor finds the documentation links of an index page, such as
// the entries of a docs sidebar. Links keep document order and are
// resolved against baseURL.
type LinkExtractor interface {
	ExtractLinks(html, baseURL string) ([]Link, error)
}
