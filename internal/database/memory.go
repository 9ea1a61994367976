package database

import (
	"context"
	"sync"
	"time"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
)

// MemoryRepository keeps analysis records in process memory. It backs the
// one-shot CLI and servers running without a database.
type MemoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	urls     map[string]domain.URL
	intel    map[int64]domain.HostIntel
	verdicts map[int64]domain.Verdict
	now      func() time.Time
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		urls:     make(map[string]domain.URL),
		intel:    make(map[int64]domain.HostIntel),
		verdicts: make(map[int64]domain.Verdict),
		now:      time.Now,
	}
}

// FindURLByCanonical returns the row for canon.
func (m *MemoryRepository) FindURLByCanonical(_ context.Context, canon string) (*domain.URL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.urls[canon]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

// SaveURL inserts canon if it is new and returns its row either way.
func (m *MemoryRepository) SaveURL(_ context.Context, canon string) (*domain.URL, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.urls[canon]; ok {
		return &u, nil
	}

	m.nextID++
	u := domain.URL{ID: m.nextID, Canonical: canon, FirstSeen: m.now().UTC()}
	m.urls[canon] = u
	return &u, nil
}

// FindHostIntel returns the intel stored for a URL.
func (m *MemoryRepository) FindHostIntel(_ context.Context, urlID int64) (*domain.HostIntel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hi, ok := m.intel[urlID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &hi, nil
}

// SaveHostIntel upserts intel keyed by its URL id.
func (m *MemoryRepository) SaveHostIntel(_ context.Context, hi *domain.HostIntel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.intel[hi.URLID] = *hi
	return nil
}

// FindVerdict returns the verdict for a URL.
func (m *MemoryRepository) FindVerdict(_ context.Context, urlID int64) (*domain.Verdict, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.verdicts[urlID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	v.Reasons = append([]domain.Hit(nil), v.Reasons...)
	return &v, nil
}

// SaveVerdict upserts the verdict for a URL.
func (m *MemoryRepository) SaveVerdict(_ context.Context, v *domain.Verdict) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *v
	stored.Reasons = append([]domain.Hit(nil), v.Reasons...)
	m.verdicts[v.URLID] = stored
	return nil
}

// Ping always succeeds.
func (m *MemoryRepository) Ping(context.Context) error {
	return nil
}
