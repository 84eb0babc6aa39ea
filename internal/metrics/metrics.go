package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for Garrison.
// A nil *MetricsRegistry is valid and records nothing.
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// External services
	ExternalRequestDuration *prometheus.HistogramVec
	ExternalErrorsTotal     *prometheus.CounterVec

	// Business Metrics
	PadSessionsActive    *prometheus.GaugeVec
	PadSessionEvents     *prometheus.CounterVec
	VerificationOutcomes *prometheus.CounterVec
	ReconcileOutcomes    *prometheus.CounterVec
	GuildMembers         *prometheus.GaugeVec
	JobDuration          *prometheus.HistogramVec
}

// NewMetricsRegistry registers every metric with reg.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garrison_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "garrison_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "garrison_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Cache Metrics
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garrison_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garrison_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		ExternalRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "garrison_external_request_duration_seconds",
				Help:    "Latency of calls to Roblox and Discord",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider", "operation"},
		),
		ExternalErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garrison_external_errors_total",
				Help: "Failed calls to external services by error code",
			},
			[]string{"provider", "operation", "code"},
		),

		// Business Metrics
		PadSessionsActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "garrison_pad_sessions_active",
				Help: "Pads currently occupied per guild",
			},
			[]string{"guild_id"},
		),
		PadSessionEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garrison_pad_session_events_total",
				Help: "Pad session starts, ends and rejected starts",
			},
			[]string{"event"},
		),
		VerificationOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garrison_verification_outcomes_total",
				Help: "Verification attempts by outcome",
			},
			[]string{"outcome"},
		),
		ReconcileOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "garrison_reconcile_outcomes_total",
				Help: "Rank reconciliations by result",
			},
			[]string{"result"},
		),
		GuildMembers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "garrison_guild_members",
				Help: "Approximate member count per guild",
			},
			[]string{"guild_id"},
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "garrison_job_duration_seconds",
				Help:    "Scheduled job execution time in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"job_name"},
		),
	}
}

// ObserveExternal records the latency of one external call started at start.
func (m *MetricsRegistry) ObserveExternal(provider, operation string, start time.Time, errCode string) {
	if m == nil {
		return
	}
	m.ExternalRequestDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
	if errCode != "" {
		m.ExternalErrorsTotal.WithLabelValues(provider, operation, errCode).Inc()
	}
}

func (m *MetricsRegistry) CacheHit(pattern string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(pattern).Inc()
}

func (m *MetricsRegistry) CacheMiss(pattern string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(pattern).Inc()
}

func (m *MetricsRegistry) PadEvent(event string) {
	if m == nil {
		return
	}
	m.PadSessionEvents.WithLabelValues(event).Inc()
}

func (m *MetricsRegistry) SetActivePads(guildID string, n int) {
	if m == nil {
		return
	}
	m.PadSessionsActive.WithLabelValues(guildID).Set(float64(n))
}

func (m *MetricsRegistry) VerificationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.VerificationOutcomes.WithLabelValues(outcome).Inc()
}

func (m *MetricsRegistry) ReconcileOutcome(result string) {
	if m == nil {
		return
	}
	m.ReconcileOutcomes.WithLabelValues(result).Inc()
}

func (m *MetricsRegistry) SetGuildMembers(guildID string, n int) {
	if m == nil {
		return
	}
	m.GuildMembers.WithLabelValues(guildID).Set(float64(n))
}

func (m *MetricsRegistry) ObserveJob(name string, start time.Time) {
	if m == nil {
		return
	}
	m.JobDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}
