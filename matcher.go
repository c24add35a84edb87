package throttle

import (
	"net/url"
	"path"
	"strings"
)

// matchRequest reports whether a request matches a route pattern.
//
// A pattern is an optional HTTP method followed by a host+path glob:
//   - "*" matches every request
//   - "api.example.com/*" matches any path on that host
//   - "POST api.example.com/v1/auth/*" matches only POSTs under /v1/auth
//   - "api.example.com/v1/users/*/avatar" where "*" spans one path segment
func matchRequest(method, rawURL, pattern string) bool {
	pattern = strings.TrimSpace(pattern)
	if m, rest, ok := strings.Cut(pattern, " "); ok {
		if !strings.EqualFold(m, method) {
			return false
		}
		pattern = strings.TrimSpace(rest)
	}
	return matchURL(rawURL, pattern)
}

// matchURL matches the host and path of rawURL against a glob pattern.
// Query strings and trailing slashes are ignored.
func matchURL(rawURL, pattern string) bool {
	if pattern == "*" {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	target := strings.TrimRight(u.Host+u.Path, "/")
	pattern = strings.TrimRight(pattern, "/")

	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if target == prefix || strings.HasPrefix(target, prefix+"/") {
			return true
		}
	}

	ok, err := path.Match(pattern, target)
	return err == nil && ok
}
