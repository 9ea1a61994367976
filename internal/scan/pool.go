package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
	"github.com/SiGentIsHere/Weblink-Shield/internal/metrics"
)

const (
	// DefaultWorkers is the default number of concurrent pipelines.
	DefaultWorkers = 4

	// DefaultQueueSize is the default number of jobs waiting for a worker.
	DefaultQueueSize = 256

	// DefaultJobTimeout bounds one pipeline run.
	DefaultJobTimeout = 30 * time.Second

	// DefaultDrainTimeout bounds graceful shutdown.
	DefaultDrainTimeout = 30 * time.Second

	maxWorkers = 256
)

// PoolState represents the current state of the pool.
type PoolState int32

const (
	// PoolStateStopped means the pool is not running.
	PoolStateStopped PoolState = iota

	// PoolStateRunning means the pool accepts and processes jobs.
	PoolStateRunning

	// PoolStateDraining means the pool finishes queued jobs and accepts no more.
	PoolStateDraining
)

// String returns the string representation of a pool state.
func (s PoolState) String() string {
	switch s {
	case PoolStateStopped:
		return "stopped"
	case PoolStateRunning:
		return "running"
	case PoolStateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// Handler runs one job.
type Handler func(ctx context.Context, jobID string) error

// PoolConfig holds configuration for the worker pool.
type PoolConfig struct {
	// Workers is the number of concurrent pipelines.
	Workers int

	// QueueSize is the number of jobs that may wait for a worker.
	QueueSize int

	// JobTimeout bounds each handler call.
	JobTimeout time.Duration

	// DrainTimeout is the maximum time Stop waits for queued and running jobs.
	DrainTimeout time.Duration
}

// Validate checks if the configuration is valid.
func (c *PoolConfig) Validate() error {
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.Workers > maxWorkers {
		return fmt.Errorf("workers cannot exceed %d", maxWorkers)
	}
	if c.QueueSize < 1 {
		return errors.New("queue size must be at least 1")
	}
	if c.JobTimeout <= 0 {
		return errors.New("job timeout must be positive")
	}
	if c.DrainTimeout <= 0 {
		return errors.New("drain timeout must be positive")
	}
	return nil
}

// Pool runs jobs from a bounded queue on a fixed set of workers.
type Pool struct {
	config  PoolConfig
	handler Handler
	logger  logger.Logger
	metrics *metrics.Metrics
	state   atomic.Int32

	mu     sync.RWMutex // guards queue send against close
	queue  chan string
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	busy atomic.Int32

	// Stats
	totalJobsProcessed atomic.Int64
	totalJobsSucceeded atomic.Int64
	totalJobsFailed    atomic.Int64
}

// NewPool creates a stopped pool.
func NewPool(cfg PoolConfig, handler Handler, log logger.Logger, m *metrics.Metrics) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}

	if log == nil {
		log = logger.NewNop()
	}

	p := &Pool{
		config:  cfg,
		handler: handler,
		logger:  log,
		metrics: m,
	}
	p.state.Store(int32(PoolStateStopped))

	return p, nil
}

// Start launches the workers.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.CompareAndSwap(int32(PoolStateStopped), int32(PoolStateRunning)) {
		return errors.New("pool is already running")
	}

	p.queue = make(chan string, p.config.QueueSize)
	p.ctx, p.cancel = context.WithCancel(context.Background())

	for range p.config.Workers {
		p.wg.Add(1)
		go p.work(p.queue)
	}

	p.logger.Info("worker pool started",
		logger.Int("workers", p.config.Workers),
		logger.Int("queue_size", p.config.QueueSize),
	)

	return nil
}

// Stop stops accepting jobs and waits for queued and running ones. Jobs still
// running after the drain timeout or ctx expiry have their context cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.state.CompareAndSwap(int32(PoolStateRunning), int32(PoolStateDraining)) {
		p.mu.Unlock()
		return ErrPoolNotRunning
	}
	close(p.queue)
	p.mu.Unlock()

	p.logger.Info("worker pool draining")

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(p.config.DrainTimeout)
	defer timer.Stop()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("worker pool stop timed out")
	case <-timer.C:
		p.logger.Warn("worker pool drain timeout exceeded")
	}

	p.cancel()
	p.state.Store(int32(PoolStateStopped))
	return nil
}

// Submit queues jobID without blocking. It returns ErrQueueFull when the
// queue is at capacity and ErrPoolNotRunning when the pool is not running.
func (p *Pool) Submit(jobID string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.State() != PoolStateRunning {
		return ErrPoolNotRunning
	}

	select {
	case p.queue <- jobID:
		p.metrics.SetQueueDepth(len(p.queue))
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) work(queue <-chan string) {
	defer p.wg.Done()

	for jobID := range queue {
		p.metrics.SetQueueDepth(len(queue))
		p.process(jobID)
	}
}

func (p *Pool) process(jobID string) {
	p.metrics.SetWorkersBusy(int(p.busy.Add(1)))
	defer func() {
		p.metrics.SetWorkersBusy(int(p.busy.Add(-1)))
	}()

	ctx, cancel := context.WithTimeout(p.ctx, p.config.JobTimeout)
	defer cancel()

	err := p.safeHandle(ctx, jobID)

	p.totalJobsProcessed.Add(1)
	if err != nil {
		p.totalJobsFailed.Add(1)
		p.logger.Warn("job failed",
			logger.String("job_id", jobID),
			logger.Error(err),
		)
		return
	}
	p.totalJobsSucceeded.Add(1)
}

func (p *Pool) safeHandle(ctx context.Context, jobID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panic: %v", r)
		}
	}()
	return p.handler(ctx, jobID)
}

// State returns the current pool state.
func (p *Pool) State() PoolState {
	return PoolState(p.state.Load())
}

// IsRunning returns true if the pool is running.
func (p *Pool) IsRunning() bool {
	return p.State() == PoolStateRunning
}

// Stats returns pool statistics.
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	queued := 0
	if p.queue != nil {
		queued = len(p.queue)
	}
	p.mu.RUnlock()

	return PoolStats{
		State:         p.State(),
		Workers:       p.config.Workers,
		BusyWorkers:   int(p.busy.Load()),
		QueuedJobs:    queued,
		JobsProcessed: p.totalJobsProcessed.Load(),
		JobsSucceeded: p.totalJobsSucceeded.Load(),
		JobsFailed:    p.totalJobsFailed.Load(),
	}
}

// PoolStats holds statistics for the pool.
type PoolStats struct {
	State         PoolState
	Workers       int
	BusyWorkers   int
	QueuedJobs    int
	JobsProcessed int64
	JobsSucceeded int64
	JobsFailed    int64
}
