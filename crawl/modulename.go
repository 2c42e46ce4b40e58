package crawl

import (
	"net/url"
	"path"
	"strings"
	"unicode"
)

// ModuleNameFromURL derives an artifact name from the last path segment of
// a URL. Hyphens become underscores and file extensions are dropped. URLs
// without a usable segment get a name derived from their hash.
func ModuleNameFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return hashedName(rawURL)
	}

	segment := path.Base(path.Clean("/" + u.Path))
	segment = strings.TrimSuffix(segment, path.Ext(segment))
	name := sanitizeName(segment)
	if name == "" {
		return hashedName(rawURL)
	}
	return name
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '-', unicode.IsSpace(r):
			b.WriteByte('_')
		case r == '_', unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "_")
}

func hashedName(rawURL string) string {
	return "page_" + computeHash(rawURL)
}
