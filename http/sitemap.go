package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/harvest"
)

var _ harvest.SitemapService = (*SitemapService)(nil)

// SitemapService lists the pages a site publishes through robots.txt
// and sitemap XML.
type SitemapService struct {
	client *http.Client
}

// NewSitemapService returns a SitemapService using client, or
// http.DefaultClient when client is nil.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// DiscoverURLs returns the page URLs listed in a site's sitemaps, in
// sitemap order and without duplicates. A site with no sitemap yields an
// empty slice.
//
// target is either a site URL or the URL of a sitemap file (.xml or
// .xml.gz). For a site URL with a path, such as https://example.com/docs/,
// only pages under that path are kept.
func (s *SitemapService) DiscoverURLs(ctx context.Context, target string, filter *harvest.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return nil, harvest.Errorf(harvest.EINVALID, "invalid base URL %q", target)
	}

	w := &sitemapWalk{
		svc:     s,
		filter:  filter,
		visited: map[string]bool{},
		kept:    map[string]bool{},
		urls:    []string{},
	}

	var entries []string
	if isSitemapPath(u.Path) {
		entries = []string{u.String()}
	} else {
		if u.Path != "" && u.Path != "/" {
			w.scope = strings.TrimSuffix(u.Path, "/") + "/"
		}
		site := &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
		if entries, err = s.locate(ctx, site); err != nil {
			return nil, err
		}
	}

	for _, e := range entries {
		if err := w.visit(ctx, e); err != nil {
			return nil, err
		}
	}
	return w.urls, nil
}

func isSitemapPath(p string) bool {
	p = strings.ToLower(p)
	return strings.HasSuffix(p, ".xml") || strings.HasSuffix(p, ".xml.gz")
}

// locate returns the sitemaps named in robots.txt, or /sitemap.xml when
// robots.txt names none and the file exists.
func (s *SitemapService) locate(ctx context.Context, site *url.URL) ([]string, error) {
	if found := s.robotsSitemaps(ctx, site.JoinPath("robots.txt").String()); len(found) > 0 {
		return found, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fallback := site.JoinPath("sitemap.xml").String()
	if s.exists(ctx, fallback) {
		return []string{fallback}, nil
	}
	return nil, ctx.Err()
}

// robotsSitemaps reads Sitemap: lines. A missing or unreadable robots.txt
// counts as naming no sitemaps.
func (s *SitemapService) robotsSitemaps(ctx context.Context, robotsURL string) []string {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil
	}
	defer body.Close()

	var out []string
	sc := bufio.NewScanner(body)
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if v := strings.TrimSpace(value); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// sitemapWalk accumulates page URLs across nested sitemap indexes.
type sitemapWalk struct {
	svc     *SitemapService
	filter  *harvest.URLFilter
	scope   string
	visited map[string]bool
	kept    map[string]bool
	urls    []string
}

func (w *sitemapWalk) visit(ctx context.Context, sitemapURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.visited[sitemapURL] {
		return nil
	}
	w.visited[sitemapURL] = true

	root, err := w.svc.load(ctx, sitemapURL)
	if err != nil {
		return err
	}

	if root.Tag == "sitemapindex" {
		for _, child := range locs(root, "sitemap") {
			if err := w.visit(ctx, child); err != nil {
				return err
			}
		}
		return nil
	}
	for _, page := range locs(root, "url") {
		w.add(page)
	}
	return nil
}

func (w *sitemapWalk) add(page string) {
	if w.kept[page] {
		return
	}
	w.kept[page] = true
	if w.scope != "" && !inScope(page, w.scope) {
		return
	}
	if !w.filter.Match(page) {
		return
	}
	w.urls = append(w.urls, page)
}

// inScope reports whether page lies under the directory scope (which
// ends in a slash). /docs/ covers /docs and /docs/intro but not
// /documentation.
func inScope(page, scope string) bool {
	u, err := url.Parse(page)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Path+"/", scope)
}

// load fetches and parses one sitemap document, gunzipping .gz files.
func (s *SitemapService) load(ctx context.Context, sitemapURL string) (*etree.Element, error) {
	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var r io.Reader = body
	if strings.HasSuffix(strings.ToLower(sitemapURL), ".gz") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, harvest.Errorf(harvest.EFETCH, "decompress sitemap %s: %v", sitemapURL, err)
		}
		defer gz.Close()
		r = gz
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, harvest.Errorf(harvest.EFETCH, "parse sitemap %s: %v", sitemapURL, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, harvest.Errorf(harvest.EFETCH, "empty sitemap %s", sitemapURL)
	}
	return root, nil
}

// locs returns the non-empty <loc> values under each child named tag.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		if loc := el.SelectElement("loc"); loc != nil {
			if v := strings.TrimSpace(loc.Text()); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func (s *SitemapService) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, harvest.Errorf(harvest.EFETCH, "invalid request for %s: %v", target, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, harvest.Errorf(harvest.EFETCH, "fetch %s: %v", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, harvest.Errorf(harvest.EFETCH, "HTTP %d for %s", resp.StatusCode, target)
	}
	return resp.Body, nil
}

func (s *SitemapService) exists(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
