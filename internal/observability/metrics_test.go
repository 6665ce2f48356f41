package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveProviderFetch("p", nil, time.Second)
		m.ObserveWeatherLookup(LookupDefault)
		m.SetProvidersConfigured(2)
		m.ObserveRefreshRun()
		m.ObserveAssessment(3, false)
		m.ObserveRiskMap(16, 1, time.Second)
	})
}

func TestObserveProviderFetch(t *testing.T) {
	m := NewMetricsForTesting()

	m.ObserveProviderFetch("openmeteo", nil, 100*time.Millisecond)
	m.ObserveProviderFetch("openmeteo", errors.New("boom"), time.Second)
	m.ObserveProviderFetch("openmeteo", nil, 50*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProviderFetches.WithLabelValues("openmeteo", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderFetches.WithLabelValues("openmeteo", "error")))
}

func TestObserveAssessmentAndRiskMap(t *testing.T) {
	m := NewMetricsForTesting()

	m.ObserveAssessment(5, true)
	m.ObserveAssessment(3, false)
	m.ObserveRiskMap(16, 2, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Assessments.WithLabelValues("5")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RiskTableMisses))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RiskMapDuration))
}

func TestGaugesAndCounters(t *testing.T) {
	m := NewMetricsForTesting()

	m.SetProvidersConfigured(3)
	m.ObserveRefreshRun()
	m.ObserveWeatherLookup(LookupCacheHit)
	m.ObserveWeatherLookup(LookupCacheHit)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ProvidersConfigured))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshRuns))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.WeatherLookups.WithLabelValues(LookupCacheHit)))
}
