package crawl

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// DefaultMinContentLength is the minimum number of characters a rendered
// page must have to be considered loaded.
const DefaultMinContentLength = 1000

// ContentValidationFailed is the error reported for pages rejected by
// IsValidContent.
const ContentValidationFailed = "content validation failed"

// loadingIndicators are phrases left behind by pages that had not finished
// rendering. Matching is approximate: long pages that mention one of them
// are still accepted, and placeholders not in the list are missed.
var loadingIndicators = []string{
	"loading...",
	"please wait",
	"正在加载",
	"请稍候",
	"spinner",
	"loader",
	"loading-",
}

// IsValidContent reports whether rendered content looks like a fully loaded
// page. Lengths are counted in characters. Content containing a loading
// indicator must be at least twice minLength long after trimming.
func IsValidContent(content string, minLength int) bool {
	if content == "" {
		return false
	}
	if utf8.RuneCountInString(content) < minLength {
		return false
	}

	folded := cases.Fold().String(content)
	for _, indicator := range loadingIndicators {
		if !strings.Contains(folded, indicator) {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(content)) < 2*minLength {
			return false
		}
		break
	}

	return true
}
