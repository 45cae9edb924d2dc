// ============================================================================
// beanval - Bean Validation Engine
// ============================================================================
//
// Package:     metrics
// Description: Prometheus instrumentation for validation calls
// Author:      Mike Stoffels
// Created:     2026-10-15
// License:     MIT
// ============================================================================

// Package metrics exports validation calls as Prometheus metrics. A
// *Metrics is a validator.Observer:
//
//	m, err := metrics.New(metrics.DefaultConfig())
//	v := validator.New(validator.Options{Observer: m})
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/msto63/beanval/pkg/validator"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Outcomes of a validation call.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Config configures the exported metrics.
type Config struct {
	Namespace string
	Subsystem string
	// Registerer receives the collectors. Defaults to
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
	// Buckets are the duration histogram buckets in seconds.
	Buckets []float64
}

// DefaultConfig returns the configuration used by the CLI.
func DefaultConfig() Config {
	return Config{
		Namespace: "beanval",
		Subsystem: "validator",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}
}

// Metrics records validation calls.
type Metrics struct {
	calls       *prometheus.CounterVec
	violations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// New creates and registers the collectors. Collectors already registered
// with the same descriptors are reused.
func New(cfg Config) (*Metrics, error) {
	if cfg.Namespace == "" {
		return nil, bverror.New("metrics namespace is required").
			WithCode(bverror.CodeInvalidConfig).
			WithOperation("metrics.New")
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = DefaultConfig().Buckets
	}

	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "calls_total",
			Help:      "Validation calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "violations_total",
			Help:      "Constraint violations by constraint kind.",
		}, []string{"reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "duration_seconds",
			Help:      "Duration of validation calls.",
			Buckets:   cfg.Buckets,
		}, []string{"operation"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "traversable_cache_hits_total",
			Help:      "Traversable resolver answers served from the per-call cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "traversable_cache_misses_total",
			Help:      "Traversable resolver answers computed by the resolver.",
		}),
	}

	var err error
	if m.calls, err = register(cfg.Registerer, m.calls); err != nil {
		return nil, err
	}
	if m.violations, err = register(cfg.Registerer, m.violations); err != nil {
		return nil, err
	}
	if m.duration, err = register(cfg.Registerer, m.duration); err != nil {
		return nil, err
	}
	if m.cacheHits, err = register(cfg.Registerer, m.cacheHits); err != nil {
		return nil, err
	}
	if m.cacheMisses, err = register(cfg.Registerer, m.cacheMisses); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](r prometheus.Registerer, c C) (C, error) {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, bverror.Wrap(err, "registering collector").
			WithCode(bverror.CodeConfigError).
			WithOperation("metrics.New")
	}
	return c, nil
}

// ObserveValidation implements validator.Observer.
func (m *Metrics) ObserveValidation(r validator.Report) {
	outcome := OutcomeValid
	switch {
	case r.Err != nil:
		outcome = OutcomeError
	case len(r.Violations) > 0:
		outcome = OutcomeInvalid
	}
	m.calls.WithLabelValues(r.Operation, outcome).Inc()
	m.duration.WithLabelValues(r.Operation).Observe(r.Duration.Seconds())

	for _, v := range r.Violations {
		m.violations.WithLabelValues(v.Reason()).Inc()
	}
	m.cacheHits.Add(float64(r.CacheHits))
	m.cacheMisses.Add(float64(r.CacheMisses))
}
