package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flood_risk"

// Metrics holds the Prometheus collectors for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	// Weather metrics.
	ProviderFetches       *prometheus.CounterVec   // labels: provider, outcome={success,error}
	ProviderFetchDuration *prometheus.HistogramVec // labels: provider
	WeatherLookups        *prometheus.CounterVec   // labels: result={cache_hit,fetched,default}
	ProvidersConfigured   prometheus.Gauge
	RefreshRuns           prometheus.Counter

	// Risk metrics.
	Assessments      *prometheus.CounterVec // labels: risk={1..5}
	RiskTableMisses  prometheus.Counter
	RiskMapDuration  prometheus.Histogram
	RiskMapDistricts prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_fetches_total",
			Help:      "Weather provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_fetch_duration_seconds",
			Help:      "Weather provider request duration including retries.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		WeatherLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_lookups_total",
			Help:      "District weather lookups by how they were served.",
		}, []string{"result"}),
		ProvidersConfigured: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_providers_configured",
			Help:      "Number of weather providers registered at start-up.",
		}),
		RefreshRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_refresh_runs_total",
			Help:      "Completed scheduled weather refresh runs.",
		}),
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Prediction requests by adjusted risk level.",
		}, []string{"risk"}),
		RiskTableMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_table_misses_total",
			Help:      "Lookups for districts missing from the risk table.",
		}),
		RiskMapDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_map_duration_seconds",
			Help:      "Time to compute a district risk map.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RiskMapDistricts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_map_districts",
			Help:      "Number of districts per risk map request.",
			Buckets:   []float64{1, 2, 4, 8, 16},
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderFetches,
		m.ProviderFetchDuration,
		m.WeatherLookups,
		m.ProvidersConfigured,
		m.RefreshRuns,
		m.Assessments,
		m.RiskTableMisses,
		m.RiskMapDuration,
		m.RiskMapDistricts,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// ObserveProviderFetch records one provider call.
func (m *Metrics) ObserveProviderFetch(provider string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.ProviderFetches.WithLabelValues(provider, outcome).Inc()
	m.ProviderFetchDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// Lookup results.
const (
	LookupCacheHit = "cache_hit"
	LookupFetched  = "fetched"
	LookupDefault  = "default"
)

// ObserveWeatherLookup records how a district lookup was served.
func (m *Metrics) ObserveWeatherLookup(result string) {
	if m == nil {
		return
	}
	m.WeatherLookups.WithLabelValues(result).Inc()
}

// SetProvidersConfigured records the number of registered providers.
func (m *Metrics) SetProvidersConfigured(n int) {
	if m == nil {
		return
	}
	m.ProvidersConfigured.Set(float64(n))
}

// ObserveRefreshRun records a finished scheduler run.
func (m *Metrics) ObserveRefreshRun() {
	if m == nil {
		return
	}
	m.RefreshRuns.Inc()
}

// ObserveAssessment records a prediction and whether its district was in the table.
func (m *Metrics) ObserveAssessment(risk int, tableHit bool) {
	if m == nil {
		return
	}
	m.Assessments.WithLabelValues(strconv.Itoa(risk)).Inc()
	if !tableHit {
		m.RiskTableMisses.Inc()
	}
}

// ObserveRiskMap records a risk map computation.
func (m *Metrics) ObserveRiskMap(districts, misses int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RiskMapDuration.Observe(elapsed.Seconds())
	m.RiskMapDistricts.Observe(float64(districts))
	m.RiskTableMisses.Add(float64(misses))
}
