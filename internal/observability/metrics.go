package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// advisory engine.
type Metrics struct {
	// Weather acquisition metrics.
	WeatherCacheHits   prometheus.Counter
	WeatherCacheMisses prometheus.Counter
	WeatherStaleServed prometheus.Counter
	UpstreamRequests   *prometheus.CounterVec // labels: outcome={success,error}
	UpstreamDuration   prometheus.Histogram
	QuotaUsed          prometheus.Gauge

	// Advisory generation metrics.
	AdvisoriesGenerated    *prometheus.CounterVec // labels: severity={Medium,High,Critical}
	FarmerEvaluations      *prometheus.CounterVec // labels: outcome={generated,suppressed,empty,failed}
	CropEvaluationFailures prometheus.Counter
	NotificationFailures   prometheus.Counter
	BatchDuration          prometheus.Histogram
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		WeatherCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farm_advisory",
			Name:      "weather_cache_hits_total",
			Help:      "Weather requests served from a fresh cached snapshot.",
		}),
		WeatherCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farm_advisory",
			Name:      "weather_cache_misses_total",
			Help:      "Weather requests that required an upstream fetch.",
		}),
		WeatherStaleServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farm_advisory",
			Name:      "weather_stale_served_total",
			Help:      "Weather requests answered with an expired snapshot after upstream failure or quota exhaustion.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm_advisory",
			Name:      "upstream_requests_total",
			Help:      "Upstream weather provider calls by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "farm_advisory",
			Name:      "upstream_duration_seconds",
			Help:      "Upstream weather provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		QuotaUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "farm_advisory",
			Name:      "weather_quota_used",
			Help:      "Upstream calls consumed from today's quota.",
		}),
		AdvisoriesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm_advisory",
			Name:      "advisories_generated_total",
			Help:      "Advisories persisted, by severity.",
		}, []string{"severity"}),
		FarmerEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farm_advisory",
			Name:      "farmer_evaluations_total",
			Help:      "Per-farmer evaluation cycles by outcome.",
		}, []string{"outcome"}),
		CropEvaluationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farm_advisory",
			Name:      "crop_evaluation_failures_total",
			Help:      "Crop evaluations skipped because scoring or formatting failed.",
		}),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farm_advisory",
			Name:      "notification_failures_total",
			Help:      "Critical-alert side-channel sends that failed.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "farm_advisory",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a complete all-farmers advisory run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
	}

	prometheus.MustRegister(
		m.WeatherCacheHits,
		m.WeatherCacheMisses,
		m.WeatherStaleServed,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.QuotaUsed,
		m.AdvisoriesGenerated,
		m.FarmerEvaluations,
		m.CropEvaluationFailures,
		m.NotificationFailures,
		m.BatchDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		WeatherCacheHits:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "farm_advisory", Name: "weather_cache_hits_total"}),
		WeatherCacheMisses:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "farm_advisory", Name: "weather_cache_misses_total"}),
		WeatherStaleServed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "farm_advisory", Name: "weather_stale_served_total"}),
		UpstreamRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "farm_advisory", Name: "upstream_requests_total"}, []string{"outcome"}),
		UpstreamDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "farm_advisory", Name: "upstream_duration_seconds"}),
		QuotaUsed:              prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "farm_advisory", Name: "weather_quota_used"}),
		AdvisoriesGenerated:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "farm_advisory", Name: "advisories_generated_total"}, []string{"severity"}),
		FarmerEvaluations:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "farm_advisory", Name: "farmer_evaluations_total"}, []string{"outcome"}),
		CropEvaluationFailures: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "farm_advisory", Name: "crop_evaluation_failures_total"}),
		NotificationFailures:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "farm_advisory", Name: "notification_failures_total"}),
		BatchDuration:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "farm_advisory", Name: "batch_duration_seconds"}),
	}
}
