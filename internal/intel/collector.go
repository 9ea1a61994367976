// Package intel gathers network-observable signals about a host: its DNS
// resolution, the age and issuer of its TLS certificate and, optionally, the
// age of its domain registration. Collection is best effort and never fails.
package intel

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
	"github.com/SiGentIsHere/Weblink-Shield/internal/metrics"
)

const (
	defaultProbeTimeout = 3 * time.Second
	httpsPort           = 443
	hoursPerDay         = 24
)

//go:generate mockgen -destination=../testutils/mocks/collector_mock.go -package=mocks github.com/SiGentIsHere/Weblink-Shield/internal/intel Collector

// Collector returns whatever can be observed about host.
type Collector interface {
	Collect(ctx context.Context, host string) domain.HostIntel
}

// Resolver is the subset of *net.Resolver the collector uses.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// CertProber fetches the leaf certificate a host presents.
type CertProber interface {
	LeafCertificate(ctx context.Context, host string) (*x509.Certificate, error)
}

// DomainAger reports the registration age of a domain in whole days. A nil
// age with a nil error means the age is unknown.
type DomainAger interface {
	DomainAgeDays(ctx context.Context, host string) (*int, error)
}

// Config holds probe timeouts.
type Config struct {
	DNSTimeout     time.Duration
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

func (c *Config) setDefaults() {
	if c.DNSTimeout <= 0 {
		c.DNSTimeout = defaultProbeTimeout
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultProbeTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultProbeTimeout
	}
}

// NetCollector probes DNS, TLS and the domain ager concurrently.
type NetCollector struct {
	cfg      Config
	resolver Resolver
	prober   CertProber
	ager     DomainAger
	metrics  *metrics.Metrics
	log      logger.Logger
	now      func() time.Time
}

// Option configures a NetCollector.
type Option func(*NetCollector)

// WithResolver replaces the system resolver.
func WithResolver(r Resolver) Option {
	return func(c *NetCollector) { c.resolver = r }
}

// WithCertProber replaces the TLS prober.
func WithCertProber(p CertProber) Option {
	return func(c *NetCollector) { c.prober = p }
}

// WithDomainAger sets the domain age collaborator. The default knows nothing.
func WithDomainAger(a DomainAger) Option {
	return func(c *NetCollector) { c.ager = a }
}

// WithMetrics records probe failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *NetCollector) { c.metrics = m }
}

// WithLogger sets the logger used for probe diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(c *NetCollector) { c.log = log }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *NetCollector) { c.now = now }
}

// NewCollector builds a collector with the system resolver and a TLS prober
// on port 443.
func NewCollector(cfg Config, opts ...Option) *NetCollector {
	cfg.setDefaults()

	c := &NetCollector{
		cfg:      cfg,
		resolver: net.DefaultResolver,
		ager:     NopAger{},
		log:      logger.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.prober == nil {
		c.prober = &TLSProber{
			Port:           httpsPort,
			ConnectTimeout: cfg.ConnectTimeout,
			ReadTimeout:    cfg.ReadTimeout,
		}
	}
	return c
}

// Collect observes host. Failures leave the matching fields nil.
func (c *NetCollector) Collect(ctx context.Context, host string) domain.HostIntel {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")

	var (
		ip        *string
		tlsAge    *int
		tlsIssuer *string
		domainAge *int
	)

	var g errgroup.Group

	g.Go(func() error {
		ip = c.resolve(ctx, host)
		return nil
	})
	g.Go(func() error {
		tlsAge, tlsIssuer = c.probeTLS(ctx, host)
		return nil
	})
	g.Go(func() error {
		domainAge = c.domainAge(ctx, host)
		return nil
	})

	_ = g.Wait()

	return domain.HostIntel{
		Domain:        host,
		TLD:           TopLevelLabel(host),
		IP:            ip,
		DomainAgeDays: domainAge,
		TLSAgeDays:    tlsAge,
		TLSIssuer:     tlsIssuer,
		FetchedAt:     c.now().UTC(),
	}
}

func (c *NetCollector) resolve(ctx context.Context, host string) *string {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.DNSTimeout)
	defer cancel()

	addrs, err := c.resolver.LookupIPAddr(ctx, host)
	if err != nil || len(addrs) == 0 {
		c.metrics.ProbeFailed(metrics.ProbeDNS)
		c.log.Debug("DNS probe failed", logger.String("host", host), logger.Error(err))
		return nil
	}

	ip := addrs[0].IP.String()
	return &ip
}

func (c *NetCollector) probeTLS(ctx context.Context, host string) (*int, *string) {
	cert, err := c.prober.LeafCertificate(ctx, host)
	if err != nil || cert == nil {
		c.metrics.ProbeFailed(metrics.ProbeTLS)
		c.log.Debug("TLS probe failed", logger.String("host", host), logger.Error(err))
		return nil, nil
	}

	age := AgeDays(cert.NotBefore, c.now())
	issuer := cert.Issuer.String()
	return &age, &issuer
}

func (c *NetCollector) domainAge(ctx context.Context, host string) *int {
	age, err := c.ager.DomainAgeDays(ctx, host)
	if err != nil {
		c.metrics.ProbeFailed(metrics.ProbeWhois)
		c.log.Debug("Domain age lookup failed", logger.String("host", host), logger.Error(err))
		return nil
	}
	return age
}

// TopLevelLabel returns the text after the final dot of host, or "" if host
// has no dot.
func TopLevelLabel(host string) string {
	host = strings.TrimSuffix(host, ".")
	idx := strings.LastIndexByte(host, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(host[idx+1:])
}

// AgeDays returns whole days from since to now, floored at zero.
func AgeDays(since, now time.Time) int {
	d := now.Sub(since)
	if d <= 0 {
		return 0
	}
	return int(d.Hours() / hoursPerDay)
}

// TLSProber completes a TLS handshake and returns the peer's leaf
// certificate. No HTTP request is sent, so redirects never apply.
type TLSProber struct {
	Port           int
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	// RootCAs overrides the system pool. Nil uses the system pool.
	RootCAs *x509.CertPool
}

var errNoPeerCertificate = errors.New("no peer certificate")

// LeafCertificate dials host and returns the first certificate it presents.
func (p *TLSProber) LeafCertificate(ctx context.Context, host string) (*x509.Certificate, error) {
	port := p.Port
	if port == 0 {
		port = httpsPort
	}

	dialer := &net.Dialer{Timeout: p.ConnectTimeout}
	raw, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	if p.ReadTimeout > 0 {
		if err = raw.SetDeadline(time.Now().Add(p.ReadTimeout)); err != nil {
			return nil, err
		}
	}

	conn := tls.Client(raw, &tls.Config{
		ServerName: host,
		RootCAs:    p.RootCAs,
		MinVersion: tls.VersionTLS12,
	})
	if err = conn.HandshakeContext(ctx); err != nil {
		return nil, err
	}

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return nil, errNoPeerCertificate
	}
	return certs[0], nil
}

// NopAger never knows a domain's age.
type NopAger struct{}

// DomainAgeDays always returns nil.
func (NopAger) DomainAgeDays(context.Context, string) (*int, error) {
	return nil, nil //nolint:nilnil // unknown age is not an error
}
