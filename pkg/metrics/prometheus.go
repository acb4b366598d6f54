package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	assessments  *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	hardFailures *prometheus.CounterVec
	alerts       *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		assessments: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scamdunk_assessments_total",
				Help: "Total number of completed risk assessments",
			},
			[]string{"source", "risk_level"},
		),
		fallbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scamdunk_fallbacks_total",
				Help: "Total number of requests served by the local scorer",
			},
			[]string{"reason"},
		),
		hardFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scamdunk_hard_failures_total",
				Help: "Total number of hard upstream data failures",
			},
			[]string{"api_name"},
		),
		alerts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scamdunk_alerts_total",
				Help: "Total number of outage alerts by sink and result",
			},
			[]string{"sink", "result"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scamdunk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scamdunk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordAssessment records a completed assessment by source and level.
func (r *Recorder) RecordAssessment(source, riskLevel string) {
	r.assessments.WithLabelValues(source, riskLevel).Inc()
}

// RecordFallback records a request that fell through to the local scorer.
func (r *Recorder) RecordFallback(reason string) {
	r.fallbacks.WithLabelValues(reason).Inc()
}

// RecordHardFailure records an escalated upstream data failure.
func (r *Recorder) RecordHardFailure(apiName string) {
	r.hardFailures.WithLabelValues(apiName).Inc()
}

// RecordAlert records an alert delivery attempt outcome.
func (r *Recorder) RecordAlert(sink, result string) {
	r.alerts.WithLabelValues(sink, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
