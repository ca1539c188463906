// Package metrics exposes Prometheus counters for the pipeline's external
// calls and resilience layers. Collectors are registered on the default
// registry once at init; callers use the package-level helpers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentcycle",
		Name:      "ai_calls_total",
		Help:      "External AI calls by service and outcome.",
	}, []string{"service", "outcome"})

	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentcycle",
		Name:      "retry_attempts_total",
		Help:      "Attempts made by the retry layer, by service.",
	}, []string{"service"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentcycle",
		Name:      "circuit_breaker_transitions_total",
		Help:      "Circuit breaker state transitions by service and target state.",
	}, []string{"service", "to"})

	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talentcycle",
		Name:      "pipeline_runs_total",
		Help:      "Pipeline runs by terminal stage and outcome.",
	}, []string{"stage", "outcome"})
)

// ObserveAICall records one external AI call outcome.
func ObserveAICall(service, outcome string) { aiCalls.WithLabelValues(service, outcome).Inc() }

// ObserveRetryAttempt records one attempt made under the retry policy.
func ObserveRetryAttempt(service string) { retryAttempts.WithLabelValues(service).Inc() }

// ObserveBreakerTransition records a breaker state change.
func ObserveBreakerTransition(service, to string) {
	breakerTransitions.WithLabelValues(service, to).Inc()
}

// ObservePipelineRun records a pipeline run ending at the given stage.
func ObservePipelineRun(stage, outcome string) {
	pipelineRuns.WithLabelValues(stage, outcome).Inc()
}
