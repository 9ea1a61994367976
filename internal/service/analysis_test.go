package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/SiGentIsHere/Weblink-Shield/internal/canonical"
	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
	"github.com/SiGentIsHere/Weblink-Shield/internal/intel"
	"github.com/SiGentIsHere/Weblink-Shield/internal/rules"
	"github.com/SiGentIsHere/Weblink-Shield/internal/service"
	"github.com/SiGentIsHere/Weblink-Shield/internal/testutils/mocks"
)

// fakeRepo is a map-backed Repository.
type fakeRepo struct {
	mu       sync.Mutex
	nextID   int64
	urls     map[string]*domain.URL
	intel    map[int64]domain.HostIntel
	verdicts map[int64]domain.Verdict
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		urls:     map[string]*domain.URL{},
		intel:    map[int64]domain.HostIntel{},
		verdicts: map[int64]domain.Verdict{},
	}
}

func (r *fakeRepo) FindURLByCanonical(_ context.Context, canon string) (*domain.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.urls[canon]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (r *fakeRepo) SaveURL(_ context.Context, canon string) (*domain.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.urls[canon]; ok {
		return u, nil
	}
	r.nextID++
	u := &domain.URL{ID: r.nextID, Canonical: canon, FirstSeen: time.Now()}
	r.urls[canon] = u
	return u, nil
}

func (r *fakeRepo) FindHostIntel(_ context.Context, urlID int64) (*domain.HostIntel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hi, ok := r.intel[urlID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &hi, nil
}

func (r *fakeRepo) SaveHostIntel(_ context.Context, hi *domain.HostIntel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intel[hi.URLID] = *hi
	return nil
}

func (r *fakeRepo) FindVerdict(_ context.Context, urlID int64) (*domain.Verdict, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.verdicts[urlID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (r *fakeRepo) SaveVerdict(_ context.Context, v *domain.Verdict) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts[v.URLID] = *v
	return nil
}

type stubCollector struct {
	mu    sync.Mutex
	calls []string
	intel domain.HostIntel
}

func (s *stubCollector) Collect(_ context.Context, host string) domain.HostIntel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, host)
	hi := s.intel
	hi.Domain = host
	hi.FetchedAt = time.Now()
	return hi
}

func (s *stubCollector) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func phishingIntel() domain.HostIntel {
	return domain.HostIntel{TLD: "tk"}
}

func newAnalyzer(repo service.Repository, c intel.Collector, opts ...service.Option) *service.Analyzer {
	return service.NewAnalyzer(repo, c, rules.MustNewEngine(rules.DefaultPolicy()), opts...)
}

func TestAnalyzer_Analyze(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	collector := &stubCollector{intel: phishingIntel()}
	a := newAnalyzer(repo, collector)

	res, err := a.Analyze(context.Background(), "  paypal.com@EVIL.tk/login ")
	require.NoError(t, err)

	assert.Equal(t, "http://evil.tk/login", res.URL)
	assert.Equal(t, domain.VerdictMalicious, res.Verdict)
	assert.Equal(t, domain.ClassPhishing, res.Class)
	assert.Equal(t, 60, res.Score)
	require.Len(t, res.Reasons, 4)
	assert.Equal(t, "login_keyword", res.Reasons[0].Name)
	for _, hit := range res.Reasons {
		assert.NotEqual(t, "at_symbol", hit.Name, "userinfo is not part of the canonical URL")
	}

	assert.Equal(t, []string{"evil.tk"}, collector.calls)

	stored, err := repo.FindVerdict(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 60, stored.Score)
}

func TestAnalyzer_ReusesStoredIntel(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	collector := &stubCollector{intel: phishingIntel()}
	a := newAnalyzer(repo, collector)

	first, err := a.Analyze(context.Background(), "http://evil.tk/")
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), "HTTP://EVIL.TK")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, collector.count())
	assert.Len(t, repo.urls, 1)
}

func TestAnalyzer_RecollectsStaleIntel(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	collector := &stubCollector{intel: phishingIntel()}
	now := time.Now()
	clock := func() time.Time { return now }
	a := newAnalyzer(repo, collector, service.WithIntelMaxAge(time.Hour), service.WithClock(clock))

	_, err := a.Analyze(context.Background(), "http://evil.tk/")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = a.Analyze(context.Background(), "http://evil.tk/")
	require.NoError(t, err)

	assert.Equal(t, 2, collector.count())
}

func TestAnalyzer_InvalidURL(t *testing.T) {
	t.Parallel()

	a := newAnalyzer(newFakeRepo(), &stubCollector{})

	_, err := a.Analyze(context.Background(), "http://")

	var invalid *canonical.InvalidURLError
	assert.ErrorAs(t, err, &invalid)
}

func TestAnalyzer_StoresCollectedIntel(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	collector := mocks.NewMockCollector(ctrl)
	u := &domain.URL{ID: 3, Canonical: "http://evil.tk/login"}

	gomock.InOrder(
		repo.EXPECT().SaveURL(gomock.Any(), "http://evil.tk/login").Return(u, nil),
		repo.EXPECT().FindHostIntel(gomock.Any(), int64(3)).Return(nil, domain.ErrNotFound),
		collector.EXPECT().Collect(gomock.Any(), "evil.tk").Return(phishingIntel()),
		repo.EXPECT().SaveHostIntel(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, hi *domain.HostIntel) error {
				assert.Equal(t, int64(3), hi.URLID)
				return nil
			}),
		repo.EXPECT().SaveVerdict(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, v *domain.Verdict) error {
				assert.Equal(t, int64(3), v.URLID)
				assert.Equal(t, 60, v.Score)
				return nil
			}),
	)

	res, err := newAnalyzer(repo, collector).Analyze(context.Background(), "http://user@EVIL.tk:8080/login")
	require.NoError(t, err)
	assert.Equal(t, "http://evil.tk/login", res.URL)
	assert.Equal(t, domain.VerdictMalicious, res.Verdict)
}

func TestAnalyzer_RepositoryErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	const canon = "http://example.com/"
	u := &domain.URL{ID: 7, Canonical: canon}

	tests := []struct {
		name    string
		setup   func(repo *mocks.MockRepository, collector *mocks.MockCollector)
		wantMsg string
	}{
		{
			name: "save url",
			setup: func(repo *mocks.MockRepository, _ *mocks.MockCollector) {
				repo.EXPECT().SaveURL(gomock.Any(), canon).Return(nil, boom)
			},
			wantMsg: "save url",
		},
		{
			name: "find host intel",
			setup: func(repo *mocks.MockRepository, _ *mocks.MockCollector) {
				repo.EXPECT().SaveURL(gomock.Any(), canon).Return(u, nil)
				repo.EXPECT().FindHostIntel(gomock.Any(), int64(7)).Return(nil, boom)
			},
			wantMsg: "find host intel",
		},
		{
			name: "save host intel",
			setup: func(repo *mocks.MockRepository, collector *mocks.MockCollector) {
				repo.EXPECT().SaveURL(gomock.Any(), canon).Return(u, nil)
				repo.EXPECT().FindHostIntel(gomock.Any(), int64(7)).Return(nil, domain.ErrNotFound)
				collector.EXPECT().Collect(gomock.Any(), "example.com").Return(domain.HostIntel{})
				repo.EXPECT().SaveHostIntel(gomock.Any(), gomock.Any()).Return(boom)
			},
			wantMsg: "save host intel",
		},
		{
			name: "save verdict",
			setup: func(repo *mocks.MockRepository, _ *mocks.MockCollector) {
				repo.EXPECT().SaveURL(gomock.Any(), canon).Return(u, nil)
				repo.EXPECT().FindHostIntel(gomock.Any(), int64(7)).Return(&domain.HostIntel{URLID: 7}, nil)
				repo.EXPECT().SaveVerdict(gomock.Any(), gomock.Any()).Return(boom)
			},
			wantMsg: "save verdict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			repo := mocks.NewMockRepository(ctrl)
			collector := mocks.NewMockCollector(ctrl)
			tt.setup(repo, collector)

			_, err := newAnalyzer(repo, collector).Analyze(context.Background(), "example.com")
			require.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestAnalyzer_GetVerdict(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	a := newAnalyzer(repo, &stubCollector{intel: phishingIntel()})

	_, err := a.GetVerdict(context.Background(), "evil.tk")
	require.ErrorIs(t, err, domain.ErrNotFound)

	analyzed, err := a.Analyze(context.Background(), "evil.tk")
	require.NoError(t, err)

	got, err := a.GetVerdict(context.Background(), "http://EVIL.tk/")
	require.NoError(t, err)
	assert.Equal(t, analyzed, got)
}

func TestAnalyzer_ConcurrentSameURLConverges(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	a := newAnalyzer(repo, &stubCollector{intel: phishingIntel()})

	var wg sync.WaitGroup
	results := make([]*domain.Result, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := a.Analyze(context.Background(), "http://evil.tk/login")
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	for _, res := range results[1:] {
		assert.Equal(t, results[0], res)
	}
	assert.Len(t, repo.verdicts, 1)
}
