package canonical_test

import (
	"errors"
	"testing"

	"github.com/SiGentIsHere/Weblink-Shield/internal/canonical"
)

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare host gets scheme and path", "example.com", "http://example.com/"},
		{"trim and lowercase", "  HTTP://Example.COM  ", "http://example.com/"},
		{"path preserved", "https://a.com/Login/Index.php", "https://a.com/Login/Index.php"},
		{"query sorted", "http://a.com/p?b=2&a=1", "http://a.com/p?a=1&b=2"},
		{"duplicate params kept", "http://a.com/?x=2&x=1&x=2", "http://a.com/?x=1&x=2&x=2"},
		{"fragment dropped", "http://a.com/p?b=2&a=1#section", "http://a.com/p?a=1&b=2"},
		{"empty query dropped", "http://a.com/?", "http://a.com/"},
		{"default https port dropped", "https://a.com:443/x", "https://a.com/x"},
		{"default http port dropped", "http://a.com:80", "http://a.com/"},
		{"explicit port dropped", "http://a.com:8080/p?b=2&a=1", "http://a.com/p?a=1&b=2"},
		{"idn host", "http://bücher.de/", "http://xn--bcher-kva.de/"},
		{"ipv4", "http://192.168.0.1/admin", "http://192.168.0.1/admin"},
		{"ipv6", "http://[::1]:8080/x", "http://[::1]/x"},
		{"ipv6 zone", "http://[FE80::1%25en0]/", "http://[fe80::1%25en0]/"},
		{"userinfo dropped", "http://paypal.com@evil.tk/login", "http://evil.tk/login"},
		{"userinfo with password dropped", "https://u:pw@A.com:8443/", "https://a.com/"},
		{"scheme relative", "//cdn.example.com/a.js", "http://cdn.example.com/a.js"},
		{"url inside query", "example.com/r?u=http://x.com", "http://example.com/r?u=http://x.com"},
		{"percent encoding untouched", "http://a.com/a%2Fb?q=%41", "http://a.com/a%2Fb?q=%41"},
		{"host with port no scheme", "localhost:3000/app", "http://localhost/app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := canonical.Canonicalize(tt.raw)
			if err != nil {
				t.Fatalf("Canonicalize(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCanonicalize_Invalid(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		"http://",
		"http://[::1",
		"http://a.com:port/",
		"https:///path-only",
	}

	for _, raw := range inputs {
		_, err := canonical.Canonicalize(raw)
		var invalid *canonical.InvalidURLError
		if !errors.As(err, &invalid) {
			t.Errorf("Canonicalize(%q) error = %v, want *InvalidURLError", raw, err)
			continue
		}
		if invalid.Raw != raw {
			t.Errorf("InvalidURLError.Raw = %q, want %q", invalid.Raw, raw)
		}
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"example.com",
		"HTTPS://Shop.Example.com:443/cart?z=1&a=2&m",
		"http://bücher.de/über?b&a",
		"http://user:pw@host.xyz:8443/a/b/c/?q=1#x",
		"http://[2001:DB8::1]/",
		"http://[fe80::1%25en0]/",
		"http://a.com/a%2Fb",
	}

	for _, raw := range inputs {
		once, err := canonical.Canonicalize(raw)
		if err != nil {
			t.Fatalf("Canonicalize(%q) error = %v", raw, err)
		}
		twice, err := canonical.Canonicalize(once)
		if err != nil {
			t.Fatalf("Canonicalize(%q) error = %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", raw, once, twice)
		}
	}
}

func TestCanonicalize_QueryOrderInvariant(t *testing.T) {
	t.Parallel()

	a, errA := canonical.Canonicalize("http://a.com/p?b=2&a=1")
	b, errB := canonical.Canonicalize("http://a.com/p?a=1&b=2")
	if errA != nil || errB != nil {
		t.Fatalf("errors: %v, %v", errA, errB)
	}
	if a != b {
		t.Errorf("%q != %q", a, b)
	}
}

func TestHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		canon string
		want  string
	}{
		{"http://example.com/", "example.com"},
		{"http://user@evil.tk:8080/x", "evil.tk"},
		{"http://[::1]:8080/", "::1"},
	}

	for _, tt := range tests {
		got, err := canonical.Host(tt.canon)
		if err != nil {
			t.Fatalf("Host(%q) error = %v", tt.canon, err)
		}
		if got != tt.want {
			t.Errorf("Host(%q) = %q, want %q", tt.canon, got, tt.want)
		}
	}
}
