package buildbot

import (
	"strings"
)

// Endpoint is the scheme and host[:port] a Client talks to.
type Endpoint struct {
	Scheme string
	Host   string
}

// String renders the endpoint as a base URL.
func (e Endpoint) String() string {
	return e.Scheme + "://" + e.Host
}

// ParseEndpoint splits a base URL of the form scheme://host[:port]. Only http
// and https are accepted.
func ParseEndpoint(rawURL string) (Endpoint, error) {
	scheme, host, ok := strings.Cut(strings.TrimSpace(rawURL), "://")
	if !ok {
		return Endpoint{}, &ConfigurationError{URL: rawURL, Reason: "expected scheme://host[:port]"}
	}
	switch scheme {
	case "http", "https":
	default:
		return Endpoint{}, &ConfigurationError{URL: rawURL, Reason: "unknown protocol " + quoteOrEmpty(scheme)}
	}
	host = strings.TrimRight(host, "/")
	if host == "" {
		return Endpoint{}, &ConfigurationError{URL: rawURL, Reason: "missing host"}
	}
	return Endpoint{Scheme: scheme, Host: host}, nil
}

func quoteOrEmpty(s string) string {
	if s == "" {
		return "(empty)"
	}
	return `"` + s + `"`
}

// quotePath percent-encodes path as a single string, leaving unreserved
// characters and '/' untouched.
func quotePath(path string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(path))
	for i := 0; i < len(path); i++ {
		c := path[i]
		if isUnreserved(c) || c == '/' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '_', c == '.', c == '~':
		return true
	}
	return false
}
