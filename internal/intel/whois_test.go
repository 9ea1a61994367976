package intel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

const sampleWhois = `Domain Name: EXAMPLE.COM
Registry Domain ID: 2336799_DOMAIN_COM-VRSN
Registrar WHOIS Server: whois.iana.org
Registrar URL: http://res-dom.iana.org
Updated Date: 2024-08-14T07:01:34Z
Creation Date: 1995-08-14T04:00:00Z
Registry Expiry Date: 2025-08-13T04:00:00Z
Registrar: RESERVED-Internet Assigned Numbers Authority
Registrar IANA ID: 376
Domain Status: clientDeleteProhibited https://icann.org/epp#clientDeleteProhibited
Name Server: A.IANA-SERVERS.NET
Name Server: B.IANA-SERVERS.NET
DNSSEC: signedDelegation
`

type recordingLookup struct {
	mu      sync.Mutex
	queried []string
	answers map[string]string
}

func (r *recordingLookup) lookup(domain string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queried = append(r.queried, domain)
	if raw, ok := r.answers[domain]; ok {
		return raw, nil
	}
	return "", errors.New("no whois server answer")
}

func newTestAger(l *recordingLookup, now time.Time) *WhoisAger {
	return &WhoisAger{
		lookup:  l.lookup,
		timeout: time.Second,
		now:     func() time.Time { return now },
	}
}

func TestWhoisAger_ParentFallback(t *testing.T) {
	t.Parallel()

	l := &recordingLookup{answers: map[string]string{"example.com": sampleWhois}}
	now := time.Date(1995, 9, 13, 4, 0, 0, 0, time.UTC)

	age, err := newTestAger(l, now).DomainAgeDays(context.Background(), "login.shop.example.com")
	if err != nil {
		t.Fatalf("DomainAgeDays() error = %v", err)
	}
	if age == nil || *age != 30 {
		t.Fatalf("age = %v, want 30", age)
	}

	want := []string{"login.shop.example.com", "shop.example.com", "example.com"}
	if strings.Join(l.queried, ",") != strings.Join(want, ",") {
		t.Errorf("queried = %v, want %v", l.queried, want)
	}
}

func TestWhoisAger_Failure(t *testing.T) {
	t.Parallel()

	l := &recordingLookup{answers: map[string]string{}}

	age, err := newTestAger(l, time.Now()).DomainAgeDays(context.Background(), "a.example.net")
	if err == nil {
		t.Fatalf("DomainAgeDays() age = %v, want error", age)
	}
	if len(l.queried) != 2 {
		t.Errorf("queried = %v, want subdomain then parent", l.queried)
	}
}

func TestWhoisAger_SkipsIPAndBareHosts(t *testing.T) {
	t.Parallel()

	l := &recordingLookup{}
	a := newTestAger(l, time.Now())

	for _, host := range []string{"192.168.1.1", "::1", "localhost", ""} {
		age, err := a.DomainAgeDays(context.Background(), host)
		if err != nil || age != nil {
			t.Errorf("DomainAgeDays(%q) = %v, %v; want nil, nil", host, age, err)
		}
	}
	if len(l.queried) != 0 {
		t.Errorf("unexpected lookups: %v", l.queried)
	}
}

func TestWhoisAger_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	a := &WhoisAger{
		lookup: func(string) (string, error) {
			<-release
			return sampleWhois, nil
		},
		timeout: 20 * time.Millisecond,
		now:     time.Now,
	}

	_, err := a.DomainAgeDays(context.Background(), "example.com")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestParseWhoisDate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"1995-08-14T04:00:00Z", time.Date(1995, 8, 14, 4, 0, 0, 0, time.UTC), false},
		{"2020-01-02 03:04:05", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC), false},
		{" 2020-01-02 ", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"02-Jan-2020", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"2020.01.02", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), false},
		{"yesterday", time.Time{}, true},
	}

	for _, tc := range testCases {
		got, err := parseWhoisDate(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseWhoisDate(%q) want error", tc.in)
			}
			continue
		}
		if err != nil || !got.Equal(tc.want) {
			t.Errorf("parseWhoisDate(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestParentDomain(t *testing.T) {
	t.Parallel()

	if p, ok := parentDomain("a.b.example.com"); !ok || p != "b.example.com" {
		t.Errorf("parentDomain = %q, %v", p, ok)
	}
	if _, ok := parentDomain("example.com"); ok {
		t.Error("registrable domain should have no parent")
	}
}
