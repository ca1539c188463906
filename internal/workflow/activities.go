package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"

	"talentcycle/internal/domain"
	"talentcycle/internal/pipeline"
)

// Activities bridges the Temporal worker to the pipeline orchestrator.
// Each activity is one pipeline stage; outcomes that retrying cannot fix
// are converted to non-retryable application errors so Temporal's retry
// policy never re-runs a domain failure.
type Activities struct {
	orch *pipeline.Orchestrator
}

// NewActivities wraps the orchestrator for registration with a worker.
func NewActivities(orch *pipeline.Orchestrator) *Activities {
	return &Activities{orch: orch}
}

// ResolveCycle resolves the evaluation id to its (user, cycle).
func (a *Activities) ResolveCycle(ctx context.Context, in PipelineInput) (pipeline.CycleRef, error) {
	ref, err := a.orch.ResolveCycle(ctx, in.EvaluationID)
	if err != nil {
		return pipeline.CycleRef{}, classify(err)
	}
	return ref, nil
}

// AggregateScores runs the completion check and aggregation stage.
func (a *Activities) AggregateScores(ctx context.Context, ref pipeline.CycleRef) (int, error) {
	n, err := a.orch.AggregateStage(ctx, ref)
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

// AssessSkills runs the skills assessment stage.
func (a *Activities) AssessSkills(ctx context.Context, ref pipeline.CycleRef) (uuid.UUID, error) {
	id, err := a.orch.AssessmentStage(ctx, ref)
	if err != nil {
		return uuid.Nil, classify(err)
	}
	return id, nil
}

// GenerateCareerPaths runs the career path stage.
func (a *Activities) GenerateCareerPaths(ctx context.Context, in CareerInput) ([]uuid.UUID, error) {
	ids, err := a.orch.CareerStage(ctx, in.Ref, in.AssessmentID)
	if err != nil {
		return nil, classify(err)
	}
	return ids, nil
}

// classify marks domain-rule failures as non-retryable. Everything else
// passes through and is governed by the activity retry policy.
func classify(err error) error {
	var (
		incomplete *domain.IncompleteCycleError
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
	)
	switch {
	case errors.As(err, &incomplete):
		return temporal.NewNonRetryableApplicationError(err.Error(), "IncompleteCycle", err)
	case errors.As(err, &validation):
		return temporal.NewNonRetryableApplicationError(err.Error(), "Validation", err)
	case errors.As(err, &notFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), "NotFound", err)
	default:
		return err
	}
}
