package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
	"github.com/SiGentIsHere/Weblink-Shield/internal/metrics"
)

var (
	// ErrJobNotFound is returned for unknown job ids.
	ErrJobNotFound = errors.New("job not found")

	// ErrBlankURL is returned when a submission has no URL.
	ErrBlankURL = errors.New("url must not be blank")

	// ErrQueueFull is returned when no worker or queue slot is free.
	ErrQueueFull = errors.New("scan queue is full")

	// ErrPoolNotRunning is returned when submitting to a stopped orchestrator.
	ErrPoolNotRunning = errors.New("worker pool is not running")

	errAlreadyClaimed = errors.New("job already claimed")
)

const (
	// DefaultRetention keeps finished jobs pollable in memory.
	DefaultRetention = time.Hour

	// DefaultJanitorInterval is how often finished jobs are evicted.
	DefaultJanitorInterval = time.Minute

	persistTimeout = 5 * time.Second
)

// Analyzer produces the core verdict for a raw URL.
type Analyzer interface {
	Analyze(ctx context.Context, raw string) (*domain.Result, error)
}

// JobStore persists jobs beyond their time in memory.
type JobStore interface {
	SaveJob(ctx context.Context, job *domain.Job) error
	FindJob(ctx context.Context, id string) (*domain.Job, error)
}

// Config holds orchestrator settings.
type Config struct {
	Workers         int
	QueueSize       int
	JobTimeout      time.Duration
	DrainTimeout    time.Duration
	Retention       time.Duration
	JanitorInterval time.Duration
}

func (c *Config) setDefaults() {
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.JobTimeout == 0 {
		c.JobTimeout = DefaultJobTimeout
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = DefaultDrainTimeout
	}
	if c.Retention == 0 {
		c.Retention = DefaultRetention
	}
	if c.JanitorInterval == 0 {
		c.JanitorInterval = DefaultJanitorInterval
	}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithJobStore persists every transition to store.
func WithJobStore(store JobStore) Option {
	return func(o *Orchestrator) { o.store = store }
}

// WithStages replaces the static and sandbox stages.
func WithStages(static, sandbox Stage) Option {
	return func(o *Orchestrator) {
		o.static = static
		o.sandbox = sandbox
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithMetrics records scan metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator overrides job id generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) { o.newID = newID }
}

// Orchestrator owns the job lifecycle: it queues submissions, runs each
// pipeline on one worker and publishes a snapshot after every transition.
type Orchestrator struct {
	cfg      Config
	analyzer Analyzer
	static   Stage
	sandbox  Stage
	store    JobStore
	registry *Registry
	hub      *Hub
	pool     *Pool
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	newID    func() string

	stopJanitor chan struct{}
	janitorDone sync.WaitGroup
}

// New builds an Orchestrator. Call Start before submitting.
func New(cfg Config, analyzer Analyzer, opts ...Option) (*Orchestrator, error) {
	if analyzer == nil {
		return nil, errors.New("analyzer cannot be nil")
	}
	cfg.setDefaults()

	o := &Orchestrator{
		cfg:      cfg,
		analyzer: analyzer,
		static:   NoopStage{StageName: StageStatic},
		sandbox:  NoopStage{StageName: StageSandbox},
		registry: NewRegistry(),
		log:      logger.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.hub = NewHub(DefaultSubscriberBuffer, o.metrics)

	pool, err := NewPool(PoolConfig{
		Workers:      cfg.Workers,
		QueueSize:    cfg.QueueSize,
		JobTimeout:   cfg.JobTimeout,
		DrainTimeout: cfg.DrainTimeout,
	}, o.run, o.log, o.metrics)
	if err != nil {
		return nil, err
	}
	o.pool = pool

	return o, nil
}

// Start starts the worker pool and the janitor.
func (o *Orchestrator) Start() error {
	if err := o.pool.Start(); err != nil {
		return err
	}

	o.stopJanitor = make(chan struct{})
	o.janitorDone.Add(1)
	go o.janitor(o.stopJanitor)

	return nil
}

// Stop stops the janitor and drains the worker pool.
func (o *Orchestrator) Stop(ctx context.Context) error {
	if o.stopJanitor != nil {
		close(o.stopJanitor)
		o.janitorDone.Wait()
		o.stopJanitor = nil
	}
	return o.pool.Stop(ctx)
}

// Jobs returns the number of jobs held in memory.
func (o *Orchestrator) Jobs() int {
	return o.registry.Len()
}

// Stats returns worker pool statistics.
func (o *Orchestrator) Stats() PoolStats {
	return o.pool.Stats()
}

// Submit creates a QUEUED job for rawURL and schedules it. URL problems
// other than blankness surface later as an ERROR job.
func (o *Orchestrator) Submit(ctx context.Context, rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		o.metrics.ScanRejected("blank")
		return "", ErrBlankURL
	}

	now := o.now().UTC()
	job := domain.Job{
		ID:        o.newID(),
		URL:       rawURL,
		Status:    domain.JobQueued,
		Data:      map[string]any{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.registry.Add(job)

	// Hold the job lock across enqueue and persist so the worker's first
	// write cannot be overwritten by the QUEUED row.
	err := o.registry.Update(job.ID, func(j *domain.Job) error {
		if submitErr := o.pool.Submit(j.ID); submitErr != nil {
			return submitErr
		}
		o.persist(ctx, j)
		return nil
	})
	if err != nil {
		o.registry.Remove(job.ID)
		switch {
		case errors.Is(err, ErrQueueFull):
			o.metrics.ScanRejected("queue_full")
		case errors.Is(err, ErrPoolNotRunning):
			o.metrics.ScanRejected("not_running")
		}
		return "", err
	}

	o.metrics.ScanSubmitted()
	o.log.Debug("scan submitted",
		logger.String("job_id", job.ID),
		logger.String("url", rawURL),
	)

	return job.ID, nil
}

// Snapshot returns the job's current state, falling back to the job store
// for jobs no longer held in memory.
func (o *Orchestrator) Snapshot(ctx context.Context, id string) (domain.Snapshot, error) {
	if snap, ok := o.registry.View(id); ok {
		return snap, nil
	}

	job, err := o.findStored(ctx, id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return job.Snapshot(), nil
}

// Subscribe attaches the caller as the job's only subscriber. The channel
// first carries the current snapshot, then one snapshot per transition, and
// closes at a terminal state, when another subscriber replaces this one, when
// cancel runs, or when ctx is done.
func (o *Orchestrator) Subscribe(ctx context.Context, id string) (<-chan domain.Snapshot, func(), error) {
	var (
		ch     <-chan domain.Snapshot
		detach func()
	)

	err := o.registry.Update(id, func(job *domain.Job) error {
		snap := job.Snapshot()
		if job.Status.IsTerminal() {
			ch, detach = closedWith(snap), func() {}
			return nil
		}

		ch, detach = o.hub.Attach(id)
		o.hub.Publish(id, snap)
		return nil
	})
	if errors.Is(err, ErrJobNotFound) {
		job, findErr := o.findStored(ctx, id)
		if findErr != nil {
			return nil, nil, findErr
		}
		return closedWith(job.Snapshot()), func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	stop := context.AfterFunc(ctx, detach)
	return ch, func() {
		stop()
		detach()
	}, nil
}

func closedWith(snap domain.Snapshot) <-chan domain.Snapshot {
	ch := make(chan domain.Snapshot, 1)
	ch <- snap
	close(ch)
	return ch
}

func (o *Orchestrator) findStored(ctx context.Context, id string) (*domain.Job, error) {
	if o.store == nil {
		return nil, ErrJobNotFound
	}

	job, err := o.store.FindJob(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("find job: %w", err)
	}
	return job, nil
}

// run is the pool handler: one full pipeline for one job.
func (o *Orchestrator) run(ctx context.Context, id string) (err error) {
	snap, err := o.claim(ctx, id)
	if err != nil {
		if errors.Is(err, errAlreadyClaimed) || errors.Is(err, ErrJobNotFound) {
			o.log.Warn("skipping job",
				logger.String("job_id", id),
				logger.Error(err),
			)
			return nil
		}
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
		if err != nil {
			o.fail(ctx, id, err)
		}
	}()

	started := time.Now()
	result, err := o.analyzer.Analyze(ctx, snap.URL)
	o.metrics.ObserveStage(StageCore, time.Since(started))
	if err != nil {
		return err
	}

	if snap, err = o.transition(ctx, id, domain.JobCoreRunning, result.Payload()); err != nil {
		return err
	}

	for _, step := range []struct {
		status domain.JobStatus
		stage  Stage
	}{
		{domain.JobStaticRunning, o.static},
		{domain.JobSandboxRunning, o.sandbox},
	} {
		if snap, err = o.transition(ctx, id, step.status, nil); err != nil {
			return err
		}

		started = time.Now()
		err = step.stage.Run(ctx, snap)
		o.metrics.ObserveStage(step.stage.Name(), time.Since(started))
		if err != nil {
			return fmt.Errorf("%s stage: %w", step.stage.Name(), err)
		}
	}

	if _, err = o.transition(ctx, id, domain.JobDone, nil); err != nil {
		return err
	}
	return nil
}

// claim moves a QUEUED job to CORE_RUNNING. Only the first caller succeeds.
func (o *Orchestrator) claim(ctx context.Context, id string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := o.registry.Update(id, func(job *domain.Job) error {
		if job.Status != domain.JobQueued {
			return errAlreadyClaimed
		}
		var applyErr error
		snap, applyErr = o.apply(ctx, job, domain.JobCoreRunning, nil)
		return applyErr
	})
	return snap, err
}

// transition moves the job to status, replacing its data when data is not nil.
func (o *Orchestrator) transition(
	ctx context.Context, id string, status domain.JobStatus, data map[string]any,
) (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := o.registry.Update(id, func(job *domain.Job) error {
		var applyErr error
		snap, applyErr = o.apply(ctx, job, status, data)
		return applyErr
	})
	return snap, err
}

// apply validates, mutates, persists and publishes. Callers hold the job lock.
func (o *Orchestrator) apply(
	ctx context.Context, job *domain.Job, status domain.JobStatus, data map[string]any,
) (domain.Snapshot, error) {
	if err := ValidateTransition(job.Status, status); err != nil {
		return domain.Snapshot{}, err
	}

	now := o.now().UTC()
	job.Status = status
	if data != nil {
		job.Data = data
	}
	job.UpdatedAt = now
	if status.IsTerminal() {
		job.FinishedAt = &now
	}

	o.persist(ctx, job)

	snap := job.Snapshot()
	o.hub.Publish(job.ID, snap)

	if status.IsTerminal() {
		o.hub.Close(job.ID)
		o.metrics.ScanFinished(string(status))
		o.log.Info("scan finished",
			logger.String("job_id", job.ID),
			logger.String("status", string(status)),
			logger.Duration("elapsed", now.Sub(job.CreatedAt)),
		)
	}

	return snap, nil
}

func (o *Orchestrator) fail(ctx context.Context, id string, cause error) {
	if _, err := o.transition(ctx, id, domain.JobError, domain.ErrorPayload(cause.Error())); err != nil {
		o.log.Error("failed to mark job as errored",
			logger.String("job_id", id),
			logger.String("cause", cause.Error()),
			logger.Error(err),
		)
	}
}

// persist saves job best effort. It outlives a cancelled job context so the
// final state still reaches the store.
func (o *Orchestrator) persist(ctx context.Context, job *domain.Job) {
	if o.store == nil {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := o.store.SaveJob(saveCtx, job); err != nil {
		o.log.Warn("failed to persist job",
			logger.String("job_id", job.ID),
			logger.String("status", string(job.Status)),
			logger.Error(err),
		)
	}
}

func (o *Orchestrator) janitor(stop <-chan struct{}) {
	defer o.janitorDone.Done()

	ticker := time.NewTicker(o.cfg.JanitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			o.evict()
		}
	}
}

func (o *Orchestrator) evict() {
	evicted := o.registry.EvictTerminalBefore(o.now().Add(-o.cfg.Retention))
	if len(evicted) > 0 {
		o.log.Debug("evicted finished jobs", logger.Int("count", len(evicted)))
	}
}
