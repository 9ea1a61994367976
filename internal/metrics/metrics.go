// Package metrics exposes the Prometheus instruments of the scanning service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace prefixes every metric.
	Namespace = "linkshield"
)

// Probe labels for ProbeFailures.
const (
	ProbeDNS   = "dns"
	ProbeTLS   = "tls"
	ProbeWhois = "whois"
)

// Metrics holds all service metrics. A nil *Metrics is valid and records
// nothing, so components can be built without instrumentation in tests.
type Metrics struct {
	// Scan metrics
	ScansSubmitted prometheus.Counter
	ScansRejected  *prometheus.CounterVec
	ScansFinished  *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	Verdicts       *prometheus.CounterVec

	// Pool metrics
	QueueDepth  prometheus.Gauge
	WorkersBusy prometheus.Gauge
	Subscribers prometheus.Gauge

	// Intel metrics
	ProbeFailures *prometheus.CounterVec
	IntelCache    *prometheus.CounterVec

	// Rule engine metrics
	RuleScoreDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New creates and registers all metrics on reg. A nil reg uses a fresh
// registry, which keeps tests from colliding on the global one.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	factory := promauto.With(reg)
	m := &Metrics{gatherer: reg}

	m.initScanMetrics(factory)
	m.initPoolMetrics(factory)
	m.initIntelMetrics(factory)

	return m
}

func (m *Metrics) initScanMetrics(factory promauto.Factory) {
	m.ScansSubmitted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "scans_submitted_total",
		Help:      "Total scan jobs accepted",
	})

	m.ScansRejected = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "scans_rejected_total",
		Help:      "Total scan submissions rejected",
	}, []string{"reason"})

	m.ScansFinished = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "scans_finished_total",
		Help:      "Total scan jobs reaching a terminal state",
	}, []string{"status"})

	m.StageDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "stage_duration_seconds",
		Help:      "Time spent in each pipeline stage",
		Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"stage"})

	m.Verdicts = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "verdicts_total",
		Help:      "Total verdicts produced by status",
	}, []string{"verdict"})

	m.RuleScoreDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "rule_score_duration_seconds",
		Help:      "Time spent scoring one URL",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})
}

func (m *Metrics) initPoolMetrics(factory promauto.Factory) {
	m.QueueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "queue_depth",
		Help:      "Jobs waiting for a worker",
	})

	m.WorkersBusy = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "workers_busy",
		Help:      "Workers currently running a job",
	})

	m.Subscribers = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "stream_subscribers",
		Help:      "Live snapshot subscribers",
	})
}

func (m *Metrics) initIntelMetrics(factory promauto.Factory) {
	m.ProbeFailures = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "intel_probe_failures_total",
		Help:      "Host intel probes that yielded no signal",
	}, []string{"probe"})

	m.IntelCache = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "intel_cache_lookups_total",
		Help:      "Host intel cache lookups by result",
	}, []string{"result"})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ScanSubmitted counts an accepted job.
func (m *Metrics) ScanSubmitted() {
	if m == nil {
		return
	}
	m.ScansSubmitted.Inc()
}

// ScanRejected counts a refused submission.
func (m *Metrics) ScanRejected(reason string) {
	if m == nil {
		return
	}
	m.ScansRejected.WithLabelValues(reason).Inc()
}

// ScanFinished counts a job reaching status.
func (m *Metrics) ScanFinished(status string) {
	if m == nil {
		return
	}
	m.ScansFinished.WithLabelValues(status).Inc()
}

// ObserveStage records how long stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordVerdict counts a produced verdict.
func (m *Metrics) RecordVerdict(verdict string) {
	if m == nil {
		return
	}
	m.Verdicts.WithLabelValues(verdict).Inc()
}

// ObserveScore records rule engine latency.
func (m *Metrics) ObserveScore(d time.Duration) {
	if m == nil {
		return
	}
	m.RuleScoreDuration.Observe(d.Seconds())
}

// SetQueueDepth sets the number of queued jobs.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

// SetWorkersBusy sets the number of running workers.
func (m *Metrics) SetWorkersBusy(n int) {
	if m == nil {
		return
	}
	m.WorkersBusy.Set(float64(n))
}

// SubscriberAttached increments the live subscriber gauge.
func (m *Metrics) SubscriberAttached() {
	if m == nil {
		return
	}
	m.Subscribers.Inc()
}

// SubscriberDetached decrements the live subscriber gauge.
func (m *Metrics) SubscriberDetached() {
	if m == nil {
		return
	}
	m.Subscribers.Dec()
}

// ProbeFailed counts a probe that produced no signal.
func (m *Metrics) ProbeFailed(probe string) {
	if m == nil {
		return
	}
	m.ProbeFailures.WithLabelValues(probe).Inc()
}

// CacheLookup counts an intel cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.IntelCache.WithLabelValues(result).Inc()
}
