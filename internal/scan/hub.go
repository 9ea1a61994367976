package scan

import (
	"sync"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
	"github.com/SiGentIsHere/Weblink-Shield/internal/metrics"
)

// DefaultSubscriberBuffer exceeds the number of snapshots one job can
// publish, so a subscriber attached at any point never loses one.
const DefaultSubscriberBuffer = 8

type subscription struct {
	ch chan domain.Snapshot
}

// Hub tracks at most one live subscriber per job. Sends never block.
type Hub struct {
	mu      sync.Mutex
	subs    map[string]*subscription
	buffer  int
	metrics *metrics.Metrics
}

// NewHub creates a hub whose subscriber channels hold buffer snapshots.
func NewHub(buffer int, m *metrics.Metrics) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Hub{
		subs:    make(map[string]*subscription),
		buffer:  buffer,
		metrics: m,
	}
}

// Attach makes a new subscriber the job's only one, closing any previous
// subscriber's channel. The returned func detaches it and is safe to call
// more than once.
func (h *Hub) Attach(jobID string) (<-chan domain.Snapshot, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.subs[jobID]; ok {
		h.closeLocked(jobID, old)
	}

	s := &subscription{ch: make(chan domain.Snapshot, h.buffer)}
	h.subs[jobID] = s
	h.metrics.SubscriberAttached()

	return s.ch, func() { h.detach(jobID, s) }
}

func (h *Hub) detach(jobID string, s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[jobID] == s {
		h.closeLocked(jobID, s)
	}
}

func (h *Hub) closeLocked(jobID string, s *subscription) {
	close(s.ch)
	delete(h.subs, jobID)
	h.metrics.SubscriberDetached()
}

// Publish delivers snap to the job's subscriber. It reports false when there
// is no subscriber or its buffer is full.
func (h *Hub) Publish(jobID string, snap domain.Snapshot) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.subs[jobID]
	if !ok {
		return false
	}

	select {
	case s.ch <- snap:
		return true
	default:
		return false
	}
}

// Close detaches the job's subscriber, if any.
func (h *Hub) Close(jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.subs[jobID]; ok {
		h.closeLocked(jobID, s)
	}
}

// Count returns the number of attached subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}
