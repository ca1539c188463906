package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"talentcycle/internal/domain"
)

// EvaluationRepo reads rater submissions. The pipeline consumes evaluations
// read-only; Create exists for the management surface and test seeding.
type EvaluationRepo struct {
	db *gorm.DB
}

// Create persists an evaluation with its scores.
func (r *EvaluationRepo) Create(ctx context.Context, e domain.Evaluation) error {
	m := evaluationFromDomain(e)
	return r.db.WithContext(ctx).Create(&m).Error
}

// GetByID loads one evaluation with its scores.
func (r *EvaluationRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Evaluation, error) {
	var m Evaluation
	err := r.db.WithContext(ctx).
		Preload("Scores").
		First(&m, "id = ?", id).Error
	if err != nil {
		return domain.Evaluation{}, translateError(err, "evaluation", id.String())
	}
	return evaluationToDomain(m), nil
}

// SubmittedForUserCycle lists the submitted evaluations for one
// (user, cycle), scores included.
func (r *EvaluationRepo) SubmittedForUserCycle(ctx context.Context, userID, cycleID uuid.UUID) ([]domain.Evaluation, error) {
	var models []Evaluation
	err := r.db.WithContext(ctx).
		Preload("Scores").
		Where("user_id = ? AND cycle_id = ? AND status = ?", userID, cycleID, string(domain.EvaluationSubmitted)).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Evaluation, 0, len(models))
	for _, m := range models {
		out = append(out, evaluationToDomain(m))
	}
	return out, nil
}

// SkillScoreRepo manages aggregated skill scores.
type SkillScoreRepo struct {
	db *gorm.DB
}

// ReplaceForUserCycle atomically swaps all aggregated rows for one
// (user, cycle, source): delete then insert, so reruns never leave a mix of
// old and new skills. A unique-constraint race with a concurrent run
// surfaces as domain.ErrPersistenceConflict for the caller to retry.
func (r *SkillScoreRepo) ReplaceForUserCycle(ctx context.Context, userID, cycleID uuid.UUID, scores []domain.AggregatedSkillScore) error {
	tx := r.db.WithContext(ctx)

	err := tx.Where("user_id = ? AND cycle_id = ? AND source = ?", userID, cycleID, domain.SourceAggregated).
		Delete(&AggregatedSkillScore{}).Error
	if err != nil {
		return err
	}
	if len(scores) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]AggregatedSkillScore, 0, len(scores))
	for _, s := range scores {
		m, err := skillScoreFromDomain(s, now)
		if err != nil {
			return err
		}
		models = append(models, m)
	}
	return translateError(tx.Create(&models).Error, "aggregated_skill_score", userID.String())
}

// ListForUserCycle returns the aggregated rows for one (user, cycle),
// ordered by skill name for deterministic request building.
func (r *SkillScoreRepo) ListForUserCycle(ctx context.Context, userID, cycleID uuid.UUID) ([]domain.AggregatedSkillScore, error) {
	var models []AggregatedSkillScore
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND cycle_id = ? AND source = ?", userID, cycleID, domain.SourceAggregated).
		Order("skill_name asc").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.AggregatedSkillScore, 0, len(models))
	for _, m := range models {
		s, err := skillScoreToDomain(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// AssessmentRepo manages persisted skills assessments.
type AssessmentRepo struct {
	db *gorm.DB
}

// Create persists an assessment with its items.
func (r *AssessmentRepo) Create(ctx context.Context, a domain.SkillsAssessment) error {
	m, err := assessmentFromDomain(a, time.Now().UTC())
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&m).Error
}

// GetByID loads one assessment with its items.
func (r *AssessmentRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.SkillsAssessment, error) {
	var m SkillsAssessment
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&m, "id = ?", id).Error
	if err != nil {
		return domain.SkillsAssessment{}, translateError(err, "skills_assessment", id.String())
	}
	return assessmentToDomain(m)
}

// ListForUserCycle returns the assessments for one (user, cycle), newest
// first.
func (r *AssessmentRepo) ListForUserCycle(ctx context.Context, userID, cycleID uuid.UUID) ([]domain.SkillsAssessment, error) {
	var models []SkillsAssessment
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND cycle_id = ?", userID, cycleID).
		Order("created_at desc").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.SkillsAssessment, 0, len(models))
	for _, m := range models {
		a, err := assessmentToDomain(m)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// CareerPathRepo manages persisted career paths.
type CareerPathRepo struct {
	db *gorm.DB
}

// CreateAll persists a batch of paths with steps and actions.
func (r *CareerPathRepo) CreateAll(ctx context.Context, paths []domain.CareerPath) error {
	if len(paths) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]CareerPath, 0, len(paths))
	for _, p := range paths {
		models = append(models, careerPathFromDomain(p, now))
	}
	return r.db.WithContext(ctx).Create(&models).Error
}

// ListForAssessment returns the paths generated from one assessment,
// steps and actions included.
func (r *CareerPathRepo) ListForAssessment(ctx context.Context, assessmentID uuid.UUID) ([]domain.CareerPath, error) {
	var models []CareerPath
	err := r.db.WithContext(ctx).
		Preload("Steps.Actions").
		Preload("Steps").
		Where("assessment_id = ?", assessmentID).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.CareerPath, 0, len(models))
	for _, m := range models {
		out = append(out, careerPathToDomain(m))
	}
	return out, nil
}

// AICallRepo manages the external-call audit trail.
type AICallRepo struct {
	db *gorm.DB
}

// Create inserts a new (normally pending) record.
func (r *AICallRepo) Create(ctx context.Context, rec domain.AICallRecord) error {
	m := callRecordFromDomain(rec)
	return r.db.WithContext(ctx).Create(&m).Error
}

// Finalize writes the terminal outcome fields of an existing record.
func (r *AICallRepo) Finalize(ctx context.Context, rec domain.AICallRecord) error {
	updates := map[string]any{
		"outcome":          string(rec.Outcome),
		"response_payload": []byte(rec.ResponsePayload),
		"error_message":    rec.ErrorMessage,
		"latency_ms":       rec.LatencyMS,
		"assessment_id":    rec.AssessmentID,
		"career_path_id":   rec.CareerPathID,
	}
	res := r.db.WithContext(ctx).
		Model(&AICallRecord{}).
		Where("id = ?", rec.ID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: "ai_call_record", ID: rec.ID.String()}
	}
	return nil
}

// ListForUserCycle returns the audit trail for one (user, cycle), oldest
// first.
func (r *AICallRepo) ListForUserCycle(ctx context.Context, userID, cycleID uuid.UUID) ([]domain.AICallRecord, error) {
	var models []AICallRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND cycle_id = ?", userID, cycleID).
		Order("created_at asc").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.AICallRecord, 0, len(models))
	for _, m := range models {
		out = append(out, callRecordToDomain(m))
	}
	return out, nil
}
