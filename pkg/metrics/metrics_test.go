package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msto63/beanval/pkg/validator"

	bvlog "github.com/msto63/beanval/foundation/core/log"
)

type signup struct {
	User  string `validate:"mandatory"`
	Email string `validate:"email"`
}

func newMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg := DefaultConfig()
	cfg.Registerer = reg
	m, err := New(cfg)
	require.NoError(t, err)
	return m, reg
}

func TestObserveValidationCalls(t *testing.T) {
	m, reg := newMetrics(t)
	v := validator.New(validator.Options{Observer: m, Logger: bvlog.Discard()})

	_, err := v.Validate(&signup{Email: "nope"})
	require.NoError(t, err)
	_, err = v.Validate(&signup{User: "ada", Email: "ada@example.org"})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("Validate", OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("Validate", OutcomeValid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.violations.WithLabelValues("mandatory")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.violations.WithLabelValues("email")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var histogram *dto.Histogram
	for _, mf := range families {
		if mf.GetName() == "beanval_validator_duration_seconds" {
			histogram = mf.GetMetric()[0].GetHistogram()
		}
	}
	require.NotNil(t, histogram)
	assert.Equal(t, uint64(2), histogram.GetSampleCount())
}

func TestObserveErrorsAndCacheStats(t *testing.T) {
	m, _ := newMetrics(t)

	m.ObserveValidation(validator.Report{
		Operation:   "ValidateProperty",
		Duration:    time.Millisecond,
		Err:         errors.New("boom"),
		CacheHits:   3,
		CacheMisses: 2,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.calls.WithLabelValues("ValidateProperty", OutcomeError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := DefaultConfig()
	cfg.Registerer = reg

	first, err := New(cfg)
	require.NoError(t, err)
	second, err := New(cfg)
	require.NoError(t, err)

	second.ObserveValidation(validator.Report{Operation: "Validate"})
	assert.Equal(t, 1.0, testutil.ToFloat64(first.calls.WithLabelValues("Validate", OutcomeValid)))
}

func TestNewRequiresNamespace(t *testing.T) {
	_, err := New(Config{Registerer: prometheus.NewRegistry()})
	assert.Error(t, err)
}
