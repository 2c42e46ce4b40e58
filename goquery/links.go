// Package goquery reads documentation pages with goquery.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/harvest"
)

// DefaultLinkSelectors match the navigation areas of common documentation
// sites.
var DefaultLinkSelectors = []string{
	"nav a[href]",
	"aside a[href]",
	"[role=navigation] a[href]",
	".sidebar a[href]",
	".toc a[href]",
}

var _ harvest.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor collects same-host links matched by CSS selectors.
type LinkExtractor struct {
	selectors []string
	fallback  bool
}

// NewLinkExtractor returns a LinkExtractor using selectors, or
// DefaultLinkSelectors when none are given. When the selectors match
// nothing, every anchor under the base URL path is used instead.
func NewLinkExtractor(selectors ...string) *LinkExtractor {
	if len(selectors) == 0 {
		selectors = DefaultLinkSelectors
	}
	return &LinkExtractor{selectors: selectors, fallback: true}
}

// ExtractLinks returns the deduplicated links in document order.
// External links, non-HTTP links and links back to the page are dropped.
func (e *LinkExtractor) ExtractLinks(html, baseURL string) ([]harvest.Link, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, harvest.Errorf(harvest.EINVALID, "invalid base URL %q", baseURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, harvest.Errorf(harvest.ETRANSFORM, "parse HTML: %v", err)
	}

	c := &linkCollector{base: base, seen: make(map[string]bool)}
	doc.Find(strings.Join(e.selectors, ", ")).Each(func(_ int, sel *goquery.Selection) {
		c.add(sel)
	})

	// Sites without semantic navigation markup still expose their pages
	// as anchors below the index path.
	if len(c.links) == 0 && e.fallback {
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			c.addUnder(sel, base.Path)
		})
	}

	return c.links, nil
}

type linkCollector struct {
	base  *url.URL
	seen  map[string]bool
	links []harvest.Link
}

func (c *linkCollector) add(sel *goquery.Selection) {
	c.addUnder(sel, "")
}

func (c *linkCollector) addUnder(sel *goquery.Selection, prefix string) {
	href, exists := sel.Attr("href")
	if !exists || href == "" || isNonHTTPLink(href) {
		return
	}

	resolved := resolveURL(c.base, href)
	if resolved == nil || resolved.Host != c.base.Host {
		return
	}
	if prefix != "" && !strings.HasPrefix(resolved.Path, prefix) {
		return
	}

	u := resolved.String()
	if c.seen[u] {
		return
	}
	c.seen[u] = true
	c.links = append(c.links, harvest.Link{
		URL:  u,
		Text: strings.Join(strings.Fields(sel.Text()), " "),
	})
}

// resolveURL resolves href against base without its fragment. It returns
// nil when href cannot be parsed or points back to the base page.
func resolveURL(base *url.URL, href string) *url.URL {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	page := *base
	page.Fragment = ""
	if resolved.String() == page.String() {
		return nil
	}
	return resolved
}

func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
