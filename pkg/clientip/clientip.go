package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Common proxy headers, in the order deployments usually trust them.
const (
	HeaderCFConnectingIP = "CF-Connecting-IP"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderXRealIP        = "X-Real-IP"
)

// Resolver derives the client address of a request. Proxy headers are only
// consulted when listed as trusted; otherwise the TCP peer address is used,
// so clients cannot pick their own rate limit key.
type Resolver struct {
	trusted []string
}

// NewResolver creates a Resolver trusting the given headers in priority order.
// Blank names are ignored.
func NewResolver(trustedHeaders ...string) Resolver {
	r := Resolver{}
	for _, h := range trustedHeaders {
		if h = strings.TrimSpace(h); h != "" {
			r.trusted = append(r.trusted, http.CanonicalHeaderKey(h))
		}
	}
	return r
}

// IP returns the normalized client address, or "" when none is valid.
func (res Resolver) IP(r *http.Request) string {
	for _, h := range res.trusted {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		// X-Forwarded-For style lists carry the client first.
		for candidate := range strings.SplitSeq(v, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
