// Package urlutil canonicalizes URLs so the rest of the pipeline can compare
// and deduplicate them by string equality.
package urlutil

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL for deduplication:
//   - lowercases scheme and host
//   - removes the fragment
//   - trims the trailing slash from the path (root stays "/")
//   - preserves the query string verbatim
//
// Unparseable input is returned unchanged; the caller treats it as opaque.
func Normalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// EnsureScheme prepends https:// when the input has no http/https scheme.
// Seed URLs typed on a command line usually arrive bare.
func EnsureScheme(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	return "https://" + trimmed
}

// Depth returns the number of non-empty path segments.
func Depth(rawURL string) int {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	n := 0
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			n++
		}
	}
	return n
}

// FirstSegment returns the first non-empty path segment, or "" for the root.
// Discovery uses it to group candidate pages by site section.
func FirstSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}

// Origin returns scheme://host for a URL, lowercased.
func Origin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}

// PathWithQuery returns the request path plus query string, the form robots
// rules are matched against.
func PathWithQuery(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
