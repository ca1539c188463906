// Package worker registers the pipeline workflow and activities with a
// Temporal worker.
package worker

import (
	sdkworker "go.temporal.io/sdk/worker"

	"talentcycle/internal/pipeline"
	"talentcycle/internal/workflow"
)

// RegisterAll registers the pipeline workflow and its activities. Call once
// during worker startup before the worker runs; registration is not
// thread-safe.
func RegisterAll(w sdkworker.Worker, orch *pipeline.Orchestrator) {
	activities := workflow.NewActivities(orch)

	w.RegisterWorkflow(workflow.PipelineWorkflow)

	w.RegisterActivity(activities.ResolveCycle)
	w.RegisterActivity(activities.AggregateScores)
	w.RegisterActivity(activities.AssessSkills)
	w.RegisterActivity(activities.GenerateCareerPaths)
}
