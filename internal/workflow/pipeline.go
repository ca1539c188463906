// Package workflow runs the evaluation pipeline as a Temporal workflow:
// ResolveCycle → AggregateScores → AssessSkills → GenerateCareerPaths.
// The workflow is a thin, deterministic sequencer; all I/O lives in the
// activities, which delegate to the pipeline orchestrator's stages.
package workflow

import (
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"talentcycle/internal/pipeline"
)

// TaskQueueDefault is the queue the pipeline worker polls when none is
// configured.
const TaskQueueDefault = "talentcycle-pipeline"

// PipelineInput starts one pipeline run.
type PipelineInput struct {
	EvaluationID uuid.UUID `json:"evaluation_id"`
}

// CareerInput carries the career stage's dependencies.
type CareerInput struct {
	Ref          pipeline.CycleRef `json:"ref"`
	AssessmentID uuid.UUID         `json:"assessment_id"`
}

// PipelineWorkflow sequences the pipeline stages. Stage failures fail the
// workflow without retrying at the Temporal level: the in-process retry
// policy inside the AI clients owns the retry budget, and domain failures
// (incomplete cycle, validation) are never retryable.
func PipelineWorkflow(ctx workflow.Context, in PipelineInput) (*pipeline.Result, error) {
	if in.EvaluationID == uuid.Nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"evaluation id is required", "Validation", nil)
	}

	// Database-only stages tolerate a couple of transient retries.
	dbOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	}

	// AI stages already carry their own retry budget and breaker; a second
	// retry layer here would multiply attempts against a failing service.
	aiOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}

	var a *Activities

	dbCtx := workflow.WithActivityOptions(ctx, dbOptions)

	var ref pipeline.CycleRef
	if err := workflow.ExecuteActivity(dbCtx, a.ResolveCycle, in).Get(ctx, &ref); err != nil {
		return nil, err
	}

	var skillCount int
	if err := workflow.ExecuteActivity(dbCtx, a.AggregateScores, ref).Get(ctx, &skillCount); err != nil {
		return nil, err
	}

	aiCtx := workflow.WithActivityOptions(ctx, aiOptions)

	var assessmentID uuid.UUID
	if err := workflow.ExecuteActivity(aiCtx, a.AssessSkills, ref).Get(ctx, &assessmentID); err != nil {
		return nil, err
	}

	var pathIDs []uuid.UUID
	career := CareerInput{Ref: ref, AssessmentID: assessmentID}
	if err := workflow.ExecuteActivity(aiCtx, a.GenerateCareerPaths, career).Get(ctx, &pathIDs); err != nil {
		return nil, err
	}

	return &pipeline.Result{
		UserID:        ref.UserID,
		CycleID:       ref.CycleID,
		SkillCount:    skillCount,
		AssessmentID:  assessmentID,
		CareerPathIDs: pathIDs,
	}, nil
}
