package aggregation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentcycle/internal/domain"
)

func evalWithScore(rel domain.Relationship, skillID uuid.UUID, skillName string, score float64) domain.Evaluation {
	now := time.Now()
	evalID := uuid.New()
	return domain.Evaluation{
		ID:           evalID,
		UserID:       uuid.New(),
		CycleID:      uuid.New(),
		EvaluatorID:  uuid.New(),
		Relationship: rel,
		Status:       domain.EvaluationSubmitted,
		SubmittedAt:  &now,
		Scores: []domain.CompetencyScore{{
			ID:           uuid.New(),
			EvaluationID: evalID,
			SkillID:      skillID,
			SkillName:    skillName,
			Score:        score,
		}},
	}
}

func TestConfidencePolicy_Thresholds(t *testing.T) {
	policy := DefaultConfidencePolicy()

	tests := []struct {
		n    int
		want float64
	}{
		{1, 0.5},
		{2, 0.5},
		{4, 0.7},
		{5, 0.9},
		{8, 0.9},
		{0, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, policy.Confidence(tt.n), 1e-9, "n=%d", tt.n)
	}
}

func TestAggregate_LeadershipScenario(t *testing.T) {
	// 1 self (8) + 1 manager (7) + 2 peers (9, 8) -> mean 8.0, confidence 0.7.
	userID, cycleID := uuid.New(), uuid.New()
	skillID := uuid.New()

	evals := []domain.Evaluation{
		evalWithScore(domain.RelationshipSelf, skillID, "Leadership", 8),
		evalWithScore(domain.RelationshipManager, skillID, "Leadership", 7),
		evalWithScore(domain.RelationshipPeer, skillID, "Leadership", 9),
		evalWithScore(domain.RelationshipPeer, skillID, "Leadership", 8),
	}

	out, err := New(DefaultConfidencePolicy()).Aggregate(userID, cycleID, evals)
	require.NoError(t, err)
	require.Len(t, out, 1)

	got := out[0]
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, cycleID, got.CycleID)
	assert.Equal(t, skillID, got.SkillID)
	assert.Equal(t, "Leadership", got.SkillName)
	assert.Equal(t, domain.SourceAggregated, got.Source)
	assert.InDelta(t, 8.0, got.Score, 1e-9)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)

	assert.Equal(t, 4, got.Stats.TotalCount)
	peerStat := got.Stats.Stat(domain.RelationshipPeer)
	assert.Equal(t, 2, peerStat.Count)
	assert.ElementsMatch(t, []float64{9, 8}, peerStat.Scores)
	require.NotNil(t, peerStat.Mean)
	assert.InDelta(t, 8.5, *peerStat.Mean, 1e-9)

	selfStat := got.Stats.Stat(domain.RelationshipSelf)
	require.NotNil(t, selfStat.Mean)
	assert.InDelta(t, 8.0, *selfStat.Mean, 1e-9)

	drStat := got.Stats.Stat(domain.RelationshipDirectReport)
	assert.Equal(t, 0, drStat.Count)
	assert.Nil(t, drStat.Mean)
}

func TestAggregate_SortedBySkillName(t *testing.T) {
	userID, cycleID := uuid.New(), uuid.New()

	evals := []domain.Evaluation{
		evalWithScore(domain.RelationshipSelf, uuid.New(), "Teamwork", 6),
		evalWithScore(domain.RelationshipSelf, uuid.New(), "Communication", 7),
		evalWithScore(domain.RelationshipSelf, uuid.New(), "Leadership", 8),
	}

	out, err := New(DefaultConfidencePolicy()).Aggregate(userID, cycleID, evals)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "Communication", out[0].SkillName)
	assert.Equal(t, "Leadership", out[1].SkillName)
	assert.Equal(t, "Teamwork", out[2].SkillName)
}

func TestAggregate_IgnoresUnsubmitted(t *testing.T) {
	userID, cycleID := uuid.New(), uuid.New()
	skillID := uuid.New()

	pending := evalWithScore(domain.RelationshipPeer, skillID, "Leadership", 10)
	pending.Status = domain.EvaluationPending

	evals := []domain.Evaluation{
		evalWithScore(domain.RelationshipSelf, skillID, "Leadership", 8),
		pending,
	}

	out, err := New(DefaultConfidencePolicy()).Aggregate(userID, cycleID, evals)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 8.0, out[0].Score, 1e-9)
	assert.Equal(t, 1, out[0].Stats.TotalCount)
}

func TestAggregate_ValidationFailures(t *testing.T) {
	userID, cycleID := uuid.New(), uuid.New()

	t.Run("missing skill reference", func(t *testing.T) {
		eval := evalWithScore(domain.RelationshipSelf, uuid.Nil, "Leadership", 8)

		_, err := New(DefaultConfidencePolicy()).Aggregate(userID, cycleID, []domain.Evaluation{eval})

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "skill_id", validation.Field)
	})

	t.Run("score out of range", func(t *testing.T) {
		eval := evalWithScore(domain.RelationshipSelf, uuid.New(), "Leadership", 10.5)

		_, err := New(DefaultConfidencePolicy()).Aggregate(userID, cycleID, []domain.Evaluation{eval})

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, "score", validation.Field)
	})

	t.Run("unknown relationship", func(t *testing.T) {
		eval := evalWithScore(domain.Relationship("sibling"), uuid.New(), "Leadership", 8)

		_, err := New(DefaultConfidencePolicy()).Aggregate(userID, cycleID, []domain.Evaluation{eval})

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
	})
}

func TestAggregate_EmptyInputYieldsNoRows(t *testing.T) {
	out, err := New(DefaultConfidencePolicy()).Aggregate(uuid.New(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestAggregate_OverallMeanAcrossAllRaters(t *testing.T) {
	userID, cycleID := uuid.New(), uuid.New()
	skillID := uuid.New()

	// 5 scores: 10, 8, 6, 4, 2 -> mean 6.0, confidence 0.9.
	evals := []domain.Evaluation{
		evalWithScore(domain.RelationshipSelf, skillID, "Strategy", 10),
		evalWithScore(domain.RelationshipManager, skillID, "Strategy", 8),
		evalWithScore(domain.RelationshipPeer, skillID, "Strategy", 6),
		evalWithScore(domain.RelationshipPeer, skillID, "Strategy", 4),
		evalWithScore(domain.RelationshipDirectReport, skillID, "Strategy", 2),
	}

	out, err := New(DefaultConfidencePolicy()).Aggregate(userID, cycleID, evals)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 6.0, out[0].Score, 1e-9)
	assert.InDelta(t, 0.9, out[0].Confidence, 1e-9)
}
