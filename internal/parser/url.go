package parser

import (
	"net/url"
	"strings"
)

// ResolveURL resolves a possibly relative reference against the URL of the
// playlist that contains it. References carrying their own scheme are
// returned unchanged, and so is any reference that cannot be resolved
// because base is empty or malformed.
func ResolveURL(reference, base string) string {
	if hasScheme(reference) || base == "" {
		return reference
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return reference
	}

	rel, err := url.Parse(reference)
	if err != nil {
		return reference
	}

	// Resolve the relative URL against the base
	return baseURL.ResolveReference(rel).String()
}

// hasScheme reports whether s starts with "scheme://".
func hasScheme(s string) bool {
	i := strings.Index(s, "://")
	if i <= 0 {
		return false
	}
	for j, r := range s[:i] {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case j > 0 && ('0' <= r && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
