package storage

import (
	"net"
	"regexp"
)

// URLResolver rewrites loopback URLs that point at the sibling backend so
// they can be reached from inside the container network, where the backend
// is known by its service name.
type URLResolver struct {
	pattern     *regexp.Regexp
	replacement string
}

// NewURLResolver matches localhost:<port> and 127.0.0.1:<port> only at a
// host boundary, so a rewritten URL never matches again.
func NewURLResolver(internalHost, port string) *URLResolver {
	hostPort := net.JoinHostPort(internalHost, port)
	return &URLResolver{
		pattern: regexp.MustCompile(
			`(//|@)(?:localhost|127\.0\.0\.1):` + regexp.QuoteMeta(port) + `([/?#]|$)`),
		replacement: "${1}" + hostPort + "${2}",
	}
}

// Resolve returns the URL to actually request. It never fails.
func (r *URLResolver) Resolve(resourceURL string) string {
	return r.pattern.ReplaceAllString(resourceURL, r.replacement)
}
