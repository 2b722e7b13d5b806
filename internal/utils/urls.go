package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyURL       = errors.New("empty url")
	ErrMissingHost    = errors.New("missing host")
	ErrUnsupportedURL = errors.New("only http and https urls are supported")
)

// Common tracking params removed by Canonicalize when DropTrackingParams is set.
var trackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {}, "utm_term": {}, "utm_content": {},
	"gclid": {}, "fbclid": {}, "mc_cid": {}, "mc_eid": {},
}

// CanonicalizeOptions controls optional canonicalization policies.
type CanonicalizeOptions struct {
	DropTrackingParams bool // remove utm_*, gclid, fbclid, ...
	StripTrailingSlash bool // /a and /a/ canonicalize the same; root stays "/"
}

// ParseHTTPURL parses raw as an absolute http(s) URL with a host.
func ParseHTTPURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", raw, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%q: %w", raw, ErrUnsupportedURL)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%q: %w", raw, ErrMissingHost)
	}
	return u, nil
}

// Canonicalize returns a deterministic form of an http(s) URL: lowercase
// scheme, punycode host, no default port, credentials or fragment, a cleaned
// path and sorted query parameters.
func Canonicalize(raw string, opts CanonicalizeOptions) (string, error) {
	u, err := ParseHTTPURL(raw)
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host, err := ASCIIHost(u.Hostname())
	if err != nil {
		return "", err
	}
	switch port := u.Port(); {
	case port == "", u.Scheme == "http" && port == "80", u.Scheme == "https" && port == "443":
		u.Host = host
	default:
		u.Host = net.JoinHostPort(host, port)
	}
	u.User = nil
	u.Fragment = ""
	u.RawFragment = ""

	p := path.Clean("/" + u.Path)
	if !opts.StripTrailingSlash && strings.HasSuffix(u.Path, "/") && p != "/" {
		p += "/"
	}
	u.Path = p
	u.RawPath = ""

	q := u.Query()
	if opts.DropTrackingParams {
		for k := range q {
			if _, ok := trackingParams[strings.ToLower(k)]; ok {
				q.Del(k)
			}
		}
	}
	for _, values := range q {
		sort.Strings(values)
	}
	// Encode sorts by key.
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ASCIIHost lowercases host and converts an internationalized name to punycode.
func ASCIIHost(host string) (string, error) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if net.ParseIP(host) != nil {
		return host, nil
	}
	puny, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", host, err)
	}
	return puny, nil
}
