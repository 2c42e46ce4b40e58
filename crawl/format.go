package crawl

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// computeHash returns the 16 hex digit xxhash of s.
func computeHash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

// TruncateURL shortens a URL to maxLen characters for display. The end of
// the URL is kept since it names the page.
func TruncateURL(url string, maxLen int) string {
	runes := []rune(url)
	switch {
	case maxLen <= 0:
		return ""
	case len(runes) <= maxLen:
		return url
	case maxLen < 4:
		return string(runes[:maxLen])
	}
	return "..." + string(runes[len(runes)-maxLen+3:])
}

var byteUnits = []string{"KB", "MB", "GB"}

// FormatBytes formats a size with binary units, e.g. "1.5 KB".
func FormatBytes(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	size := float64(n) / 1024
	unit := 0
	for size >= 1024 && unit < len(byteUnits)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", size, byteUnits[unit])
}

// FormatTokens formats an approximate token count, e.g. "~12k tokens".
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("~%dk tokens", (tokens+500)/1000)
}

// FormatRate formats a percentage with one decimal.
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}
