package jmap

import "strings"

// ResolveRedirect resolves a Location header value against the URL that
// produced it. Absolute URLs pass through unchanged, a leading "/" keeps the
// scheme and host of base, and anything else is taken relative to the
// directory of base. A base without a path after the scheme falls back to
// plain concatenation.
func ResolveRedirect(baseURL, location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	if strings.HasPrefix(location, "/") {
		idx := strings.Index(baseURL, "://")
		if idx < 0 {
			return location
		}
		rest := baseURL[idx+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return baseURL + location
		}
		return baseURL[:idx+3+slash] + location
	}
	if i := strings.LastIndex(baseURL, "/"); i >= 0 {
		return baseURL[:i] + "/" + location
	}
	return location
}
