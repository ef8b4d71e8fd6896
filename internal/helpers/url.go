package helpers

import (
	"strings"
)

var urlPrefixes = []string{"http://", "https://", "www."}

// LooksLikeURL reports whether decoded text should be treated as a link.
// The text is trimmed and matched case-insensitively against http://, https:// and www.
func LooksLikeURL(text string) bool {
	stripped := strings.ToLower(strings.TrimSpace(text))
	if stripped == "" {
		return false
	}

	for _, prefix := range urlPrefixes {
		if strings.HasPrefix(stripped, prefix) {
			return true
		}
	}
	return false
}

// NormalizeURL returns the trimmed text with https:// prepended when it has no http(s) scheme
func NormalizeURL(text string) string {
	url := strings.TrimSpace(text)
	lower := strings.ToLower(url)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return url
	}
	return "https://" + url
}
