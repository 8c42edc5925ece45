package app

import (
	"net/url"
	"strings"
)

// extractOriginHost returns the lower-cased "host[:port]" of an origin URL.
func extractOriginHost(origin string) string {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" {
		return strings.ToLower(origin)
	}
	return strings.ToLower(u.Host)
}

// matchOriginPattern reports whether host matches pattern. Patterns may be
// written as bare hosts or full origins, with a leading "*." for any
// subdomain or a trailing ":*" for any port.
func matchOriginPattern(pattern, host string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if _, rest, ok := strings.Cut(pattern, "://"); ok {
		pattern = rest
	}
	pattern = strings.TrimSuffix(pattern, "/")
	switch {
	case pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}

// allowOrigins builds the CORS origin check for the configured patterns.
func allowOrigins(patterns []string) func(origin string) bool {
	return func(origin string) bool {
		host := extractOriginHost(origin)
		for _, pattern := range patterns {
			if matchOriginPattern(pattern, host) {
				return true
			}
		}
		return false
	}
}
