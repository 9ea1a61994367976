package intel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

const defaultWhoisTimeout = 5 * time.Second

// Created date layouts seen across registries.
var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02",
	"2006/01/02",
}

var errNoCreatedDate = errors.New("whois: no parsable creation date")

// WhoisAger looks up domain registration dates over WHOIS. Hosts that are
// subdomains fall back to their parent domain.
type WhoisAger struct {
	lookup  func(domain string) (string, error)
	timeout time.Duration
	now     func() time.Time
}

// NewWhoisAger returns an ager that queries WHOIS servers with timeout.
func NewWhoisAger(timeout time.Duration) *WhoisAger {
	if timeout <= 0 {
		timeout = defaultWhoisTimeout
	}
	client := whois.NewClient().SetTimeout(timeout)

	return &WhoisAger{
		lookup: func(domain string) (string, error) {
			return client.Whois(domain)
		},
		timeout: timeout,
		now:     time.Now,
	}
}

// DomainAgeDays returns the age of host's registration. IP literals have no
// registration and return nil.
func (a *WhoisAger) DomainAgeDays(ctx context.Context, host string) (*int, error) {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" || net.ParseIP(host) != nil || !strings.Contains(host, ".") {
		return nil, nil //nolint:nilnil // no registrable domain
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type result struct {
		created time.Time
		err     error
	}
	done := make(chan result, 1)
	go func() {
		created, err := a.createdDate(host)
		done <- result{created: created, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("whois %s: %w", host, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		age := AgeDays(r.created, a.now())
		return &age, nil
	}
}

func (a *WhoisAger) createdDate(domain string) (time.Time, error) {
	for {
		created, err := a.lookupCreated(domain)
		if err == nil {
			return created, nil
		}

		parent, ok := parentDomain(domain)
		if !ok {
			return time.Time{}, err
		}
		domain = parent
	}
}

func (a *WhoisAger) lookupCreated(domain string) (time.Time, error) {
	raw, err := a.lookup(domain)
	if err != nil {
		return time.Time{}, fmt.Errorf("whois %s: %w", domain, err)
	}

	info, err := whoisparser.Parse(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse whois %s: %w", domain, err)
	}
	if info.Domain == nil {
		return time.Time{}, errNoCreatedDate
	}

	return parseWhoisDate(info.Domain.CreatedDate)
}

func parseWhoisDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range whoisDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errNoCreatedDate
}

// parentDomain drops the leftmost label while at least two labels remain.
func parentDomain(domain string) (string, bool) {
	if strings.Count(domain, ".") < 2 {
		return "", false
	}
	return domain[strings.IndexByte(domain, '.')+1:], true
}
