package scan

import (
	"sync"
	"time"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
)

type entry struct {
	mu  sync.Mutex
	job domain.Job
}

// Registry holds live jobs keyed by id. Each job has its own lock so a
// transition and its publish form one step.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Add stores job, replacing any job with the same id.
func (r *Registry) Add(job domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[job.ID] = &entry{job: job}
}

// Remove deletes the job with id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, id)
}

// Len returns the number of jobs held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

func (r *Registry) get(id string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	return e, ok
}

// Update runs fn with the job locked. Changes fn makes to the job are kept
// whether or not it returns an error. Returns ErrJobNotFound for unknown ids.
func (r *Registry) Update(id string, fn func(job *domain.Job) error) error {
	e, ok := r.get(id)
	if !ok {
		return ErrJobNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return fn(&e.job)
}

// View returns a snapshot of the job with id.
func (r *Registry) View(id string) (domain.Snapshot, bool) {
	e, ok := r.get(id)
	if !ok {
		return domain.Snapshot{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.job.Snapshot(), true
}

// EvictTerminalBefore removes finished jobs whose FinishedAt is before cutoff
// and returns their ids. Job locks are taken one at a time without holding
// the registry lock.
func (r *Registry) EvictTerminalBefore(cutoff time.Time) []string {
	r.mu.RLock()
	candidates := make(map[string]*entry, len(r.entries))
	for id, e := range r.entries {
		candidates[id] = e
	}
	r.mu.RUnlock()

	expired := make(map[string]*entry)
	for id, e := range candidates {
		e.mu.Lock()
		done := e.job.Status.IsTerminal() && e.job.FinishedAt != nil && e.job.FinishedAt.Before(cutoff)
		e.mu.Unlock()

		if done {
			expired[id] = e
		}
	}
	if len(expired) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := make([]string, 0, len(expired))
	for id, e := range expired {
		// Skip ids re-added since the scan.
		if r.entries[id] != e {
			continue
		}
		delete(r.entries, id)
		evicted = append(evicted, id)
	}
	return evicted
}
