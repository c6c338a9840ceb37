// Package attrlist tokenizes HLS attribute lists such as the value of
// #EXT-X-STREAM-INF.
package attrlist

import (
	"strconv"
	"strings"
)

// SourceKey is the reserved key under which Parse stores the raw input.
const SourceKey = "_source"

// Attributes maps attribute names to their raw (unquoted) values.
type Attributes map[string]string

// Parse splits a comma separated KEY=VALUE list. Commas inside double quotes
// belong to the value, and the quotes themselves are dropped. Parsing never
// fails: an unterminated quote runs to the end of the input.
func Parse(s string) Attributes {
	attrs := Attributes{SourceKey: s}

	var (
		key, value strings.Builder
		inQuotes   bool
		inKey      = true
	)

	flush := func() {
		if key.Len() > 0 || value.Len() > 0 {
			attrs[strings.TrimSpace(key.String())] = value.String()
		}
		key.Reset()
		value.Reset()
		inKey = true
	}

	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			flush()
		case r == '=' && inKey && !inQuotes:
			inKey = false
		case inKey:
			key.WriteRune(r)
		default:
			value.WriteRune(r)
		}
	}
	flush()

	return attrs
}

// Get returns the value for key, or "" when absent.
func (a Attributes) Get(key string) string {
	return a[key]
}

// Int returns the value for key as an integer. Missing or malformed values
// yield 0.
func (a Attributes) Int(key string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(a[key]), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Source returns the original attribute string.
func (a Attributes) Source() string {
	return a[SourceKey]
}

// Len returns the number of parsed attributes, excluding the source entry.
func (a Attributes) Len() int {
	if _, ok := a[SourceKey]; ok {
		return len(a) - 1
	}
	return len(a)
}
