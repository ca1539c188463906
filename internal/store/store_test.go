package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"talentcycle/internal/domain"
	"talentcycle/internal/store"
	"talentcycle/pkg/logger"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	st := store.New(db, logger.NewNop())
	require.NoError(t, st.Migrate())
	return st
}

func aggregated(userID, cycleID, skillID uuid.UUID, name string, score float64) domain.AggregatedSkillScore {
	mean := score
	return domain.AggregatedSkillScore{
		ID:         uuid.New(),
		UserID:     userID,
		CycleID:    cycleID,
		SkillID:    skillID,
		SkillName:  name,
		Source:     domain.SourceAggregated,
		Score:      score,
		Confidence: 0.7,
		Stats: domain.RelationshipStats{
			ByRelationship: map[domain.Relationship]domain.RelationshipStat{
				domain.RelationshipSelf: {Scores: []float64{score}, Mean: &mean, Count: 1},
			},
			TotalCount: 1,
		},
	}
}

func TestEvaluations_RoundTripAndFiltering(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	userID, cycleID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	submitted := domain.Evaluation{
		ID:           uuid.New(),
		UserID:       userID,
		CycleID:      cycleID,
		EvaluatorID:  uuid.New(),
		Relationship: domain.RelationshipPeer,
		Status:       domain.EvaluationSubmitted,
		SubmittedAt:  &now,
		Scores: []domain.CompetencyScore{{
			ID:        uuid.New(),
			SkillID:   uuid.New(),
			SkillName: "Leadership",
			Score:     8,
			Comment:   "leads well",
		}},
	}
	pending := domain.Evaluation{
		ID:           uuid.New(),
		UserID:       userID,
		CycleID:      cycleID,
		EvaluatorID:  uuid.New(),
		Relationship: domain.RelationshipManager,
		Status:       domain.EvaluationPending,
	}

	repo := st.UnitOfWork().Evaluations()
	require.NoError(t, repo.Create(ctx, submitted))
	require.NoError(t, repo.Create(ctx, pending))

	got, err := repo.GetByID(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RelationshipPeer, got.Relationship)
	require.Len(t, got.Scores, 1)
	assert.Equal(t, "Leadership", got.Scores[0].SkillName)
	assert.InDelta(t, 8.0, got.Scores[0].Score, 1e-9)

	onlySubmitted, err := repo.SubmittedForUserCycle(ctx, userID, cycleID)
	require.NoError(t, err)
	require.Len(t, onlySubmitted, 1)
	assert.Equal(t, submitted.ID, onlySubmitted[0].ID)

	_, err = repo.GetByID(ctx, uuid.New())
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestSkillScores_ReplaceLaw(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	userID, cycleID := uuid.New(), uuid.New()
	skillA, skillB, skillC := uuid.New(), uuid.New(), uuid.New()

	first := []domain.AggregatedSkillScore{
		aggregated(userID, cycleID, skillA, "Communication", 6),
		aggregated(userID, cycleID, skillB, "Leadership", 7),
	}
	err := st.WithinTx(ctx, func(uow *store.UnitOfWork) error {
		return uow.SkillScores().ReplaceForUserCycle(ctx, userID, cycleID, first)
	})
	require.NoError(t, err)

	// Rerun with a different skill set and values: the second run's rows
	// fully replace the first, never a mix.
	second := []domain.AggregatedSkillScore{
		aggregated(userID, cycleID, skillB, "Leadership", 9),
		aggregated(userID, cycleID, skillC, "Strategy", 5),
	}
	err = st.WithinTx(ctx, func(uow *store.UnitOfWork) error {
		return uow.SkillScores().ReplaceForUserCycle(ctx, userID, cycleID, second)
	})
	require.NoError(t, err)

	rows, err := st.UnitOfWork().SkillScores().ListForUserCycle(ctx, userID, cycleID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Leadership", rows[0].SkillName)
	assert.InDelta(t, 9.0, rows[0].Score, 1e-9)
	assert.Equal(t, "Strategy", rows[1].SkillName)

	// Stats blob round-trips through the JSON column.
	stat := rows[0].Stats.Stat(domain.RelationshipSelf)
	assert.Equal(t, 1, stat.Count)
	require.NotNil(t, stat.Mean)
	assert.InDelta(t, 9.0, *stat.Mean, 1e-9)
}

func TestSkillScores_DuplicateInsertIsConflict(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	userID, cycleID, skillID := uuid.New(), uuid.New(), uuid.New()

	row := aggregated(userID, cycleID, skillID, "Leadership", 7)
	err := st.WithinTx(ctx, func(uow *store.UnitOfWork) error {
		return uow.SkillScores().ReplaceForUserCycle(ctx, userID, cycleID, []domain.AggregatedSkillScore{row})
	})
	require.NoError(t, err)

	// Same identity inserted twice in one batch violates the unique key.
	dupA := aggregated(userID, cycleID, skillID, "Leadership", 7)
	dupB := aggregated(userID, cycleID, skillID, "Leadership", 8)
	err = st.WithinTx(ctx, func(uow *store.UnitOfWork) error {
		return uow.SkillScores().ReplaceForUserCycle(ctx, userID, cycleID, []domain.AggregatedSkillScore{dupA, dupB})
	})
	assert.ErrorIs(t, err, domain.ErrPersistenceConflict)

	// The failed transaction rolled back wholesale: the original row stays.
	rows, err := st.UnitOfWork().SkillScores().ListForUserCycle(ctx, userID, cycleID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, row.ID, rows[0].ID)
}

func TestAICalls_PendingThenFinalized(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	userID, cycleID := uuid.New(), uuid.New()

	rec := domain.AICallRecord{
		ID:             uuid.New(),
		ServiceName:    "ai_skills_assessment",
		UserID:         userID,
		CycleID:        cycleID,
		RequestPayload: []byte(`{"user_id":"u1"}`),
		Outcome:        domain.CallPending,
		CreatedAt:      time.Now().UTC(),
	}

	auditor := store.NewAuditor(st)
	require.NoError(t, auditor.Begin(ctx, &rec))

	trail, err := st.UnitOfWork().AICalls().ListForUserCycle(ctx, userID, cycleID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.CallPending, trail[0].Outcome)

	rec.Outcome = domain.CallError
	rec.ErrorMessage = "service unavailable after 3 attempts"
	rec.LatencyMS = 120
	require.NoError(t, auditor.Finish(ctx, &rec))

	trail, err = st.UnitOfWork().AICalls().ListForUserCycle(ctx, userID, cycleID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.CallError, trail[0].Outcome)
	assert.Equal(t, "service unavailable after 3 attempts", trail[0].ErrorMessage)
	assert.Equal(t, int64(120), trail[0].LatencyMS)

	err = auditor.Finish(ctx, &domain.AICallRecord{ID: uuid.New()})
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestAssessments_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	userID, cycleID := uuid.New(), uuid.New()

	score := 8.5
	readiness := 0.75
	a := domain.SkillsAssessment{
		ID:         uuid.New(),
		ExternalID: "ext-1",
		UserID:     userID,
		CycleID:    cycleID,
		Status:     "completed",
		Items: []domain.AssessmentItem{
			{
				ID:       uuid.New(),
				Type:     domain.ItemStrength,
				Label:    "Leadership",
				Score:    &score,
				Evidence: "high ratings across raters",
			},
			{
				ID:                  uuid.New(),
				Type:                domain.ItemRoleReadiness,
				Label:               "Engineering Manager",
				Readiness:           &readiness,
				MissingCompetencies: []string{"Delegation", "Hiring"},
			},
		},
		RawRequest:  []byte(`{"user_id":"u1"}`),
		RawResponse: []byte(`{"assessment_id":"ext-1"}`),
		ProcessedAt: time.Now().UTC(),
	}

	err := st.WithinTx(ctx, func(uow *store.UnitOfWork) error {
		return uow.Assessments().Create(ctx, a)
	})
	require.NoError(t, err)

	got, err := st.UnitOfWork().Assessments().GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "ext-1", got.ExternalID)
	require.Len(t, got.Items, 2)

	byType := map[domain.AssessmentItemType]domain.AssessmentItem{}
	for _, it := range got.Items {
		byType[it.Type] = it
	}
	require.NotNil(t, byType[domain.ItemStrength].Score)
	assert.InDelta(t, 8.5, *byType[domain.ItemStrength].Score, 1e-9)
	require.NotNil(t, byType[domain.ItemRoleReadiness].Readiness)
	assert.InDelta(t, 0.75, *byType[domain.ItemRoleReadiness].Readiness, 1e-9)
	assert.Equal(t, []string{"Delegation", "Hiring"}, byType[domain.ItemRoleReadiness].MissingCompetencies)
}

func TestCareerPaths_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	userID, assessmentID := uuid.New(), uuid.New()

	pathID := uuid.New()
	stepID := uuid.New()
	p := domain.CareerPath{
		ID:               pathID,
		ExternalID:       "path-1",
		UserID:           userID,
		AssessmentID:     assessmentID,
		Name:             "Leadership Track",
		Recommended:      true,
		FeasibilityScore: 0.8,
		DurationMonths:   24,
		Status:           domain.PathProposed,
		Steps: []domain.CareerPathStep{{
			ID:             stepID,
			PathID:         pathID,
			StepNumber:     1,
			TargetRole:     "Team Lead",
			Description:    "Progress to Team Lead",
			DurationMonths: 12,
			Actions: []domain.DevelopmentAction{{
				ID:        uuid.New(),
				StepID:    stepID,
				SkillName: "Delegation",
				Type:      domain.ActionCourse,
				Title:     "Advanced Delegation Course",
			}},
		}},
	}

	err := st.WithinTx(ctx, func(uow *store.UnitOfWork) error {
		return uow.CareerPaths().CreateAll(ctx, []domain.CareerPath{p})
	})
	require.NoError(t, err)

	paths, err := st.UnitOfWork().CareerPaths().ListForAssessment(ctx, assessmentID)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "Leadership Track", paths[0].Name)
	assert.Equal(t, domain.PathProposed, paths[0].Status)
	require.Len(t, paths[0].Steps, 1)
	require.Len(t, paths[0].Steps[0].Actions, 1)
	assert.Equal(t, domain.ActionCourse, paths[0].Steps[0].Actions[0].Type)
}
