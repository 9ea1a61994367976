// Package canonical normalizes URLs into the deduplication key used for
// stored analysis results.
//
// The canonical form is scheme://host/path[?query] where the scheme and host
// are lowercase, the host is IDNA ASCII, userinfo and port are dropped, an
// empty path becomes "/", query parameters are sorted as raw tokens, and the
// fragment is discarded. Percent-encoding and parameter values are left
// exactly as given.
package canonical

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/idna"
)

// InvalidURLError is returned when input cannot be turned into a canonical URL.
type InvalidURLError struct {
	Raw    string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid URL %q: %s", e.Raw, e.Reason)
}

var (
	schemePrefix = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)

	hostProfile = idna.New(
		idna.MapForLookup(),
		idna.StrictDomainName(false),
		idna.ValidateLabels(false),
	)
)

// Canonicalize returns the canonical form of raw.
func Canonicalize(raw string) (string, error) {
	u, err := parse(raw)
	if err != nil {
		return "", err
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "http"
	}

	host, err := asciiHost(u.Hostname())
	if err != nil {
		return "", &InvalidURLError{Raw: raw, Reason: err.Error()}
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteString("://")
	b.WriteString(host)

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	b.WriteString(path)

	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(sortQuery(u.RawQuery))
	}

	return b.String(), nil
}

// Host returns the bare hostname of a URL in canonical form: no userinfo,
// no port, no IPv6 brackets.
func Host(canon string) (string, error) {
	u, err := parse(canon)
	if err != nil {
		return "", err
	}
	return strings.ToLower(u.Hostname()), nil
}

func parse(raw string) (*url.URL, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, &InvalidURLError{Raw: raw, Reason: "empty input"}
	}

	switch {
	case strings.HasPrefix(s, "//"):
		s = "http:" + s
	case !schemePrefix.MatchString(s):
		s = "http://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, &InvalidURLError{Raw: raw, Reason: err.Error()}
	}
	if u.Hostname() == "" {
		return nil, &InvalidURLError{Raw: raw, Reason: "missing host"}
	}
	return u, nil
}

func asciiHost(host string) (string, error) {
	if strings.Contains(host, ":") {
		return ipv6Literal(host)
	}
	if net.ParseIP(host) != nil {
		return host, nil
	}

	ascii, err := hostProfile.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("idna: %w", err)
	}
	if ascii == "" {
		return "", errors.New("empty host after IDNA mapping")
	}
	return strings.ToLower(ascii), nil
}

// ipv6Literal re-brackets an IPv6 host. A zone is kept as given and its
// separator escaped so the result parses back to the same host.
func ipv6Literal(host string) (string, error) {
	addr, zone, zoned := strings.Cut(host, "%")
	if net.ParseIP(addr) == nil {
		return "", fmt.Errorf("invalid IPv6 address %q", host)
	}
	if zoned && zone == "" {
		return "", fmt.Errorf("empty IPv6 zone in %q", host)
	}

	literal := "[" + strings.ToLower(addr)
	if zoned {
		literal += "%25" + zone
	}
	return literal + "]", nil
}

func sortQuery(rawQuery string) string {
	params := strings.Split(rawQuery, "&")
	sort.Strings(params)
	return strings.Join(params, "&")
}
