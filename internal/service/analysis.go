// Package service runs the synchronous analysis of one URL: canonicalize,
// record, gather host intel, score and store the verdict.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SiGentIsHere/Weblink-Shield/internal/canonical"
	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
	"github.com/SiGentIsHere/Weblink-Shield/internal/intel"
	"github.com/SiGentIsHere/Weblink-Shield/internal/metrics"
)

//go:generate mockgen -destination=../testutils/mocks/repository_mock.go -package=mocks github.com/SiGentIsHere/Weblink-Shield/internal/service Repository

// Repository persists URLs, host intel and verdicts. Lookups of missing
// records return domain.ErrNotFound.
type Repository interface {
	FindURLByCanonical(ctx context.Context, canon string) (*domain.URL, error)
	// SaveURL returns the row for canon, inserting it if needed.
	SaveURL(ctx context.Context, canon string) (*domain.URL, error)
	FindHostIntel(ctx context.Context, urlID int64) (*domain.HostIntel, error)
	SaveHostIntel(ctx context.Context, hi *domain.HostIntel) error
	FindVerdict(ctx context.Context, urlID int64) (*domain.Verdict, error)
	SaveVerdict(ctx context.Context, v *domain.Verdict) error
}

// Scorer turns a canonical URL and its host intel into a classified score.
type Scorer interface {
	Score(canon string, hi *domain.HostIntel) (int, []domain.Hit)
	Classify(score int) (domain.VerdictStatus, domain.ClassLabel)
}

// Analyzer coordinates one analysis.
type Analyzer struct {
	repo      Repository
	collector intel.Collector
	scorer    Scorer
	maxAge    time.Duration
	log       logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithIntelMaxAge re-collects stored host intel older than d. Zero keeps
// stored intel indefinitely.
func WithIntelMaxAge(d time.Duration) Option {
	return func(a *Analyzer) { a.maxAge = d }
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Analyzer) { a.log = log }
}

// WithMetrics records verdict and scoring metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer builds an Analyzer.
func NewAnalyzer(repo Repository, collector intel.Collector, scorer Scorer, opts ...Option) *Analyzer {
	a := &Analyzer{
		repo:      repo,
		collector: collector,
		scorer:    scorer,
		log:       logger.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores raw and upserts its verdict. An unparseable URL returns a
// *canonical.InvalidURLError.
func (a *Analyzer) Analyze(ctx context.Context, raw string) (*domain.Result, error) {
	canon, err := canonical.Canonicalize(raw)
	if err != nil {
		return nil, err
	}

	u, err := a.repo.SaveURL(ctx, canon)
	if err != nil {
		return nil, fmt.Errorf("save url: %w", err)
	}

	hi, err := a.hostIntel(ctx, u)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	score, hits := a.scorer.Score(canon, hi)
	a.metrics.ObserveScore(time.Since(started))

	status, class := a.scorer.Classify(score)
	verdict := &domain.Verdict{
		URLID:     u.ID,
		Status:    status,
		Class:     class,
		Score:     score,
		Reasons:   hits,
		UpdatedAt: a.now().UTC(),
	}
	if err = a.repo.SaveVerdict(ctx, verdict); err != nil {
		return nil, fmt.Errorf("save verdict: %w", err)
	}
	a.metrics.RecordVerdict(string(status))

	a.log.Debug("URL analyzed",
		logger.String("url", canon),
		logger.String("verdict", string(status)),
		logger.Int("score", score),
		logger.Int("hits", len(hits)),
	)

	return resultOf(canon, verdict), nil
}

// GetVerdict returns the stored verdict for raw without analyzing it.
// domain.ErrNotFound means raw was never analyzed.
func (a *Analyzer) GetVerdict(ctx context.Context, raw string) (*domain.Result, error) {
	canon, err := canonical.Canonicalize(raw)
	if err != nil {
		return nil, err
	}

	u, err := a.repo.FindURLByCanonical(ctx, canon)
	if err != nil {
		return nil, fmt.Errorf("find url: %w", err)
	}

	v, err := a.repo.FindVerdict(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("find verdict: %w", err)
	}

	return resultOf(u.Canonical, v), nil
}

// hostIntel loads stored intel for u, collecting it when missing or stale.
func (a *Analyzer) hostIntel(ctx context.Context, u *domain.URL) (*domain.HostIntel, error) {
	stored, err := a.repo.FindHostIntel(ctx, u.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("find host intel: %w", err)
	case a.maxAge > 0 && a.now().Sub(stored.FetchedAt) > a.maxAge:
		a.log.Debug("Host intel stale, re-collecting",
			logger.Int64("url_id", u.ID),
			logger.Duration("age", a.now().Sub(stored.FetchedAt)),
		)
	default:
		return stored, nil
	}

	host, err := canonical.Host(u.Canonical)
	if err != nil {
		return nil, err
	}

	hi := a.collector.Collect(ctx, host)
	hi.URLID = u.ID
	if err = a.repo.SaveHostIntel(ctx, &hi); err != nil {
		return nil, fmt.Errorf("save host intel: %w", err)
	}
	return &hi, nil
}

func resultOf(canon string, v *domain.Verdict) *domain.Result {
	reasons := v.Reasons
	if reasons == nil {
		reasons = []domain.Hit{}
	}
	return &domain.Result{
		URL:     canon,
		Verdict: v.Status,
		Class:   v.Class,
		Score:   v.Score,
		Reasons: reasons,
	}
}
