// Package metrics exposes Prometheus instrumentation for the assessment engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "claimrisk"

var (
	documentsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_extracted_total",
		Help:      "Documents processed by the feature extractor, by outcome",
	}, []string{"media_type", "outcome"})

	assessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assessments_total",
		Help:      "Legitimacy assessments produced, by scoring method",
	}, []string{"method"})

	classifierFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "classifier_fallbacks_total",
		Help:      "Times the rule-based path replaced the classifier",
	}, []string{"reason"})

	interviewTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "interview_turns_total",
		Help:      "Answered interview turns, by response source",
	}, []string{"source"})

	completionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "completion_duration_seconds",
		Help:      "Latency of text-completion collaborator calls",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider", "status"})

	verdictsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verdicts_total",
		Help:      "Fraud verdicts produced, by risk level",
	}, []string{"risk_level"})

	fraudScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fraud_score",
		Help:      "Distribution of final fraud scores",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "Current state of circuit breakers (0=closed, 0.5=half-open, 1=open)",
	}, []string{"breaker"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state_changes_total",
		Help:      "Circuit breaker state transitions",
	}, []string{"breaker", "from", "to"})
)

// RecordExtraction counts one extracted document
func RecordExtraction(mediaType string, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	if mediaType == "" {
		mediaType = "unknown"
	}
	documentsExtracted.WithLabelValues(mediaType, outcome).Inc()
}

// RecordAssessment counts one legitimacy assessment
func RecordAssessment(method string) {
	assessmentsTotal.WithLabelValues(method).Inc()
}

// RecordClassifierFallback counts a rule-based substitution. Reason is "unconfigured" or "unavailable".
func RecordClassifierFallback(reason string) {
	classifierFallbacks.WithLabelValues(reason).Inc()
}

// RecordInterviewTurn counts an answered turn
func RecordInterviewTurn(fallback bool) {
	source := "collaborator"
	if fallback {
		source = "fallback"
	}
	interviewTurns.WithLabelValues(source).Inc()
}

// ObserveCompletion records collaborator latency
func ObserveCompletion(provider string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	completionDuration.WithLabelValues(provider, status).Observe(d.Seconds())
}

// RecordVerdict counts a verdict and records its score
func RecordVerdict(riskLevel string, fraudScore float64) {
	verdictsTotal.WithLabelValues(riskLevel).Inc()
	fraudScores.Observe(fraudScore)
}

// RecordBreakerState sets the gauge for a breaker; value is 0, 0.5 or 1
func RecordBreakerState(name string, value float64) {
	breakerState.WithLabelValues(name).Set(value)
}

// RecordBreakerTransition counts a state change and updates the gauge
func RecordBreakerTransition(name, from, to string, value float64) {
	breakerTransitions.WithLabelValues(name, from, to).Inc()
	RecordBreakerState(name, value)
}
