package workflow

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"talentcycle/internal/pipeline"
)

func TestPipelineWorkflow(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}

	evaluationID := uuid.New()
	ref := pipeline.CycleRef{UserID: uuid.New(), CycleID: uuid.New()}
	assessmentID := uuid.New()
	pathIDs := []uuid.UUID{uuid.New(), uuid.New()}

	var a *Activities

	t.Run("runs all stages in order and assembles the result", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		defer env.AssertExpectations(t)

		env.OnActivity(a.ResolveCycle, mock.Anything, PipelineInput{EvaluationID: evaluationID}).
			Return(ref, nil).Once()
		env.OnActivity(a.AggregateScores, mock.Anything, ref).
			Return(3, nil).Once()
		env.OnActivity(a.AssessSkills, mock.Anything, ref).
			Return(assessmentID, nil).Once()
		env.OnActivity(a.GenerateCareerPaths, mock.Anything, CareerInput{Ref: ref, AssessmentID: assessmentID}).
			Return(pathIDs, nil).Once()

		env.ExecuteWorkflow(PipelineWorkflow, PipelineInput{EvaluationID: evaluationID})

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var result pipeline.Result
		require.NoError(t, env.GetWorkflowResult(&result))
		assert.Equal(t, ref.UserID, result.UserID)
		assert.Equal(t, ref.CycleID, result.CycleID)
		assert.Equal(t, 3, result.SkillCount)
		assert.Equal(t, assessmentID, result.AssessmentID)
		assert.Equal(t, pathIDs, result.CareerPathIDs)
	})

	t.Run("nil evaluation id fails validation without running activities", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		defer env.AssertExpectations(t)

		env.ExecuteWorkflow(PipelineWorkflow, PipelineInput{})

		require.True(t, env.IsWorkflowCompleted())
		err := env.GetWorkflowError()
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "Validation", appErr.Type())
		assert.True(t, appErr.NonRetryable())
	})

	t.Run("incomplete cycle stops the run before the AI stages", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		defer env.AssertExpectations(t)

		env.OnActivity(a.ResolveCycle, mock.Anything, mock.Anything).
			Return(ref, nil).Once()
		env.OnActivity(a.AggregateScores, mock.Anything, ref).
			Return(0, temporal.NewNonRetryableApplicationError(
				"cycle incomplete", "IncompleteCycle", nil)).Once()

		env.ExecuteWorkflow(PipelineWorkflow, PipelineInput{EvaluationID: evaluationID})

		require.True(t, env.IsWorkflowCompleted())
		err := env.GetWorkflowError()
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "IncompleteCycle", appErr.Type())
	})

	t.Run("career stage failure keeps the assessment stage result out of retries", func(t *testing.T) {
		env := testSuite.NewTestWorkflowEnvironment()
		defer env.AssertExpectations(t)

		env.OnActivity(a.ResolveCycle, mock.Anything, mock.Anything).
			Return(ref, nil).Once()
		env.OnActivity(a.AggregateScores, mock.Anything, ref).
			Return(2, nil).Once()
		env.OnActivity(a.AssessSkills, mock.Anything, ref).
			Return(assessmentID, nil).Once()
		// MaximumAttempts is 1 for AI stages: the activity runs exactly once.
		env.OnActivity(a.GenerateCareerPaths, mock.Anything, mock.Anything).
			Return(nil, errors.New("career service unavailable after 4 attempts")).Once()

		env.ExecuteWorkflow(PipelineWorkflow, PipelineInput{EvaluationID: evaluationID})

		require.True(t, env.IsWorkflowCompleted())
		err := env.GetWorkflowError()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "career service unavailable")
	})
}
