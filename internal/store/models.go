package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"talentcycle/internal/domain"
)

// Evaluation rows are written by the evaluation-management surface and read
// by the pipeline. Scores load with the evaluation.
type Evaluation struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID         `gorm:"type:uuid;not null;index:idx_evaluations_user_cycle"`
	CycleID      uuid.UUID         `gorm:"type:uuid;not null;index:idx_evaluations_user_cycle"`
	EvaluatorID  uuid.UUID         `gorm:"type:uuid;not null"`
	Relationship string            `gorm:"not null"`
	Status       string            `gorm:"not null;default:pending"`
	SubmittedAt  *time.Time        ``
	Scores       []CompetencyScore `gorm:"constraint:OnDelete:CASCADE;foreignKey:EvaluationID;references:ID"`
	CreatedAt    time.Time         `gorm:"not null"`
	UpdatedAt    time.Time         `gorm:"not null"`
}

func (Evaluation) TableName() string { return "evaluations" }

// CompetencyScore is one skill score inside an evaluation.
type CompetencyScore struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	EvaluationID uuid.UUID `gorm:"type:uuid;not null;index"`
	SkillID      uuid.UUID `gorm:"type:uuid;not null"`
	SkillName    string    `gorm:"not null"`
	Score        float64   `gorm:"not null"`
	Comment      string    ``
}

func (CompetencyScore) TableName() string { return "competency_scores" }

// AggregatedSkillScore holds one consolidated per-skill result. The unique
// index enforces the replace law: at most one row per
// (user, cycle, skill, source).
type AggregatedSkillScore struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_skill_scores_identity"`
	CycleID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_skill_scores_identity"`
	SkillID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_skill_scores_identity"`
	Source     string         `gorm:"not null;uniqueIndex:idx_skill_scores_identity"`
	SkillName  string         `gorm:"not null"`
	Score      float64        `gorm:"not null"`
	Confidence float64        `gorm:"not null"`
	RawStats   datatypes.JSON ``
	CreatedAt  time.Time      `gorm:"not null"`
}

func (AggregatedSkillScore) TableName() string { return "aggregated_skill_scores" }

// AICallRecord is the audit row for one external AI call. Append-mostly:
// created pending, updated once to a terminal outcome, never deleted.
type AICallRecord struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ServiceName     string         `gorm:"not null;index"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index:idx_ai_calls_user_cycle"`
	CycleID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_ai_calls_user_cycle"`
	AssessmentID    *uuid.UUID     `gorm:"type:uuid"`
	CareerPathID    *uuid.UUID     `gorm:"type:uuid"`
	RequestPayload  datatypes.JSON ``
	ResponsePayload datatypes.JSON ``
	Outcome         string         `gorm:"not null;default:pending"`
	ErrorMessage    string         ``
	LatencyMS       int64          ``
	CreatedAt       time.Time      `gorm:"not null"`
	UpdatedAt       time.Time      `gorm:"not null"`
}

func (AICallRecord) TableName() string { return "ai_call_records" }

// SkillsAssessment is the persisted artifact of a successful skills AI call.
type SkillsAssessment struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ExternalID  string           `gorm:"not null"`
	UserID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_assessments_user_cycle"`
	CycleID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_assessments_user_cycle"`
	Status      string           `gorm:"not null"`
	Items       []AssessmentItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssessmentID;references:ID"`
	RawRequest  datatypes.JSON   ``
	RawResponse datatypes.JSON   ``
	ProcessedAt time.Time        `gorm:"not null"`
	CreatedAt   time.Time        `gorm:"not null"`
}

func (SkillsAssessment) TableName() string { return "skills_assessments" }

// AssessmentItem is one normalized insight row.
type AssessmentItem struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey"`
	AssessmentID        uuid.UUID      `gorm:"type:uuid;not null;index"`
	Type                string         `gorm:"not null"`
	Label               string         `gorm:"not null"`
	Score               *float64       ``
	GapScore            *float64       ``
	Priority            string         ``
	Readiness           *float64       ``
	Evidence            string         ``
	MissingCompetencies datatypes.JSON ``
}

func (AssessmentItem) TableName() string { return "assessment_items" }

// CareerPath is one AI-proposed trajectory with its steps and actions.
type CareerPath struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ExternalID       string           `gorm:"not null"`
	UserID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	AssessmentID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name             string           `gorm:"not null"`
	Recommended      bool             `gorm:"not null"`
	FeasibilityScore float64          `gorm:"not null"`
	DurationMonths   int              `gorm:"not null"`
	Status           string           `gorm:"not null;default:proposed"`
	Steps            []CareerPathStep `gorm:"constraint:OnDelete:CASCADE;foreignKey:PathID;references:ID"`
	CreatedAt        time.Time        `gorm:"not null"`
}

func (CareerPath) TableName() string { return "career_paths" }

// CareerPathStep is one role transition within a path.
type CareerPathStep struct {
	ID             uuid.UUID           `gorm:"type:uuid;primaryKey"`
	PathID         uuid.UUID           `gorm:"type:uuid;not null;index"`
	StepNumber     int                 `gorm:"not null"`
	TargetRole     string              `gorm:"not null"`
	Description    string              ``
	DurationMonths int                 `gorm:"not null"`
	Actions        []DevelopmentAction `gorm:"constraint:OnDelete:CASCADE;foreignKey:StepID;references:ID"`
}

func (CareerPathStep) TableName() string { return "career_path_steps" }

// DevelopmentAction is one activity attached to a step.
type DevelopmentAction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	StepID    uuid.UUID `gorm:"type:uuid;not null;index"`
	SkillName string    `gorm:"not null"`
	Type      string    `gorm:"not null"`
	Title     string    `gorm:"not null"`
}

func (DevelopmentAction) TableName() string { return "development_actions" }

// allModels drives automatic migration.
func allModels() []any {
	return []any{
		&Evaluation{},
		&CompetencyScore{},
		&AggregatedSkillScore{},
		&AICallRecord{},
		&SkillsAssessment{},
		&AssessmentItem{},
		&CareerPath{},
		&CareerPathStep{},
		&DevelopmentAction{},
	}
}

func evaluationToDomain(m Evaluation) domain.Evaluation {
	scores := make([]domain.CompetencyScore, 0, len(m.Scores))
	for _, s := range m.Scores {
		scores = append(scores, domain.CompetencyScore{
			ID:           s.ID,
			EvaluationID: s.EvaluationID,
			SkillID:      s.SkillID,
			SkillName:    s.SkillName,
			Score:        s.Score,
			Comment:      s.Comment,
		})
	}
	return domain.Evaluation{
		ID:           m.ID,
		UserID:       m.UserID,
		CycleID:      m.CycleID,
		EvaluatorID:  m.EvaluatorID,
		Relationship: domain.Relationship(m.Relationship),
		Status:       domain.EvaluationStatus(m.Status),
		SubmittedAt:  m.SubmittedAt,
		Scores:       scores,
	}
}

func evaluationFromDomain(e domain.Evaluation) Evaluation {
	scores := make([]CompetencyScore, 0, len(e.Scores))
	for _, s := range e.Scores {
		scores = append(scores, CompetencyScore{
			ID:           s.ID,
			EvaluationID: e.ID,
			SkillID:      s.SkillID,
			SkillName:    s.SkillName,
			Score:        s.Score,
			Comment:      s.Comment,
		})
	}
	return Evaluation{
		ID:           e.ID,
		UserID:       e.UserID,
		CycleID:      e.CycleID,
		EvaluatorID:  e.EvaluatorID,
		Relationship: string(e.Relationship),
		Status:       string(e.Status),
		SubmittedAt:  e.SubmittedAt,
		Scores:       scores,
	}
}

func skillScoreFromDomain(s domain.AggregatedSkillScore, now time.Time) (AggregatedSkillScore, error) {
	stats, err := json.Marshal(s.Stats)
	if err != nil {
		return AggregatedSkillScore{}, fmt.Errorf("encode raw stats: %w", err)
	}
	return AggregatedSkillScore{
		ID:         s.ID,
		UserID:     s.UserID,
		CycleID:    s.CycleID,
		SkillID:    s.SkillID,
		Source:     s.Source,
		SkillName:  s.SkillName,
		Score:      s.Score,
		Confidence: s.Confidence,
		RawStats:   datatypes.JSON(stats),
		CreatedAt:  now,
	}, nil
}

func skillScoreToDomain(m AggregatedSkillScore) (domain.AggregatedSkillScore, error) {
	var stats domain.RelationshipStats
	if len(m.RawStats) > 0 {
		if err := json.Unmarshal(m.RawStats, &stats); err != nil {
			return domain.AggregatedSkillScore{}, fmt.Errorf("decode raw stats: %w", err)
		}
	}
	return domain.AggregatedSkillScore{
		ID:         m.ID,
		UserID:     m.UserID,
		CycleID:    m.CycleID,
		SkillID:    m.SkillID,
		SkillName:  m.SkillName,
		Source:     m.Source,
		Score:      m.Score,
		Confidence: m.Confidence,
		Stats:      stats,
	}, nil
}

func callRecordFromDomain(r domain.AICallRecord) AICallRecord {
	return AICallRecord{
		ID:              r.ID,
		ServiceName:     r.ServiceName,
		UserID:          r.UserID,
		CycleID:         r.CycleID,
		AssessmentID:    r.AssessmentID,
		CareerPathID:    r.CareerPathID,
		RequestPayload:  datatypes.JSON(r.RequestPayload),
		ResponsePayload: datatypes.JSON(r.ResponsePayload),
		Outcome:         string(r.Outcome),
		ErrorMessage:    r.ErrorMessage,
		LatencyMS:       r.LatencyMS,
		CreatedAt:       r.CreatedAt,
	}
}

func callRecordToDomain(m AICallRecord) domain.AICallRecord {
	return domain.AICallRecord{
		ID:              m.ID,
		ServiceName:     m.ServiceName,
		UserID:          m.UserID,
		CycleID:         m.CycleID,
		AssessmentID:    m.AssessmentID,
		CareerPathID:    m.CareerPathID,
		RequestPayload:  []byte(m.RequestPayload),
		ResponsePayload: []byte(m.ResponsePayload),
		Outcome:         domain.CallOutcome(m.Outcome),
		ErrorMessage:    m.ErrorMessage,
		LatencyMS:       m.LatencyMS,
		CreatedAt:       m.CreatedAt,
	}
}

func assessmentFromDomain(a domain.SkillsAssessment, now time.Time) (SkillsAssessment, error) {
	items := make([]AssessmentItem, 0, len(a.Items))
	for _, it := range a.Items {
		var missing datatypes.JSON
		if len(it.MissingCompetencies) > 0 {
			b, err := json.Marshal(it.MissingCompetencies)
			if err != nil {
				return SkillsAssessment{}, fmt.Errorf("encode missing competencies: %w", err)
			}
			missing = datatypes.JSON(b)
		}
		items = append(items, AssessmentItem{
			ID:                  it.ID,
			AssessmentID:        a.ID,
			Type:                string(it.Type),
			Label:               it.Label,
			Score:               it.Score,
			GapScore:            it.GapScore,
			Priority:            it.Priority,
			Readiness:           it.Readiness,
			Evidence:            it.Evidence,
			MissingCompetencies: missing,
		})
	}
	return SkillsAssessment{
		ID:          a.ID,
		ExternalID:  a.ExternalID,
		UserID:      a.UserID,
		CycleID:     a.CycleID,
		Status:      a.Status,
		Items:       items,
		RawRequest:  datatypes.JSON(a.RawRequest),
		RawResponse: datatypes.JSON(a.RawResponse),
		ProcessedAt: a.ProcessedAt,
		CreatedAt:   now,
	}, nil
}

func assessmentToDomain(m SkillsAssessment) (domain.SkillsAssessment, error) {
	items := make([]domain.AssessmentItem, 0, len(m.Items))
	for _, it := range m.Items {
		var missing []string
		if len(it.MissingCompetencies) > 0 {
			if err := json.Unmarshal(it.MissingCompetencies, &missing); err != nil {
				return domain.SkillsAssessment{}, fmt.Errorf("decode missing competencies: %w", err)
			}
		}
		items = append(items, domain.AssessmentItem{
			ID:                  it.ID,
			AssessmentID:        it.AssessmentID,
			Type:                domain.AssessmentItemType(it.Type),
			Label:               it.Label,
			Score:               it.Score,
			GapScore:            it.GapScore,
			Priority:            it.Priority,
			Readiness:           it.Readiness,
			Evidence:            it.Evidence,
			MissingCompetencies: missing,
		})
	}
	return domain.SkillsAssessment{
		ID:          m.ID,
		ExternalID:  m.ExternalID,
		UserID:      m.UserID,
		CycleID:     m.CycleID,
		Status:      m.Status,
		Items:       items,
		RawRequest:  []byte(m.RawRequest),
		RawResponse: []byte(m.RawResponse),
		ProcessedAt: m.ProcessedAt,
	}, nil
}

func careerPathFromDomain(p domain.CareerPath, now time.Time) CareerPath {
	steps := make([]CareerPathStep, 0, len(p.Steps))
	for _, st := range p.Steps {
		actions := make([]DevelopmentAction, 0, len(st.Actions))
		for _, a := range st.Actions {
			actions = append(actions, DevelopmentAction{
				ID:        a.ID,
				StepID:    st.ID,
				SkillName: a.SkillName,
				Type:      string(a.Type),
				Title:     a.Title,
			})
		}
		steps = append(steps, CareerPathStep{
			ID:             st.ID,
			PathID:         p.ID,
			StepNumber:     st.StepNumber,
			TargetRole:     st.TargetRole,
			Description:    st.Description,
			DurationMonths: st.DurationMonths,
			Actions:        actions,
		})
	}
	return CareerPath{
		ID:               p.ID,
		ExternalID:       p.ExternalID,
		UserID:           p.UserID,
		AssessmentID:     p.AssessmentID,
		Name:             p.Name,
		Recommended:      p.Recommended,
		FeasibilityScore: p.FeasibilityScore,
		DurationMonths:   p.DurationMonths,
		Status:           string(p.Status),
		Steps:            steps,
		CreatedAt:        now,
	}
}

func careerPathToDomain(m CareerPath) domain.CareerPath {
	steps := make([]domain.CareerPathStep, 0, len(m.Steps))
	for _, st := range m.Steps {
		actions := make([]domain.DevelopmentAction, 0, len(st.Actions))
		for _, a := range st.Actions {
			actions = append(actions, domain.DevelopmentAction{
				ID:        a.ID,
				StepID:    a.StepID,
				SkillName: a.SkillName,
				Type:      domain.ActionType(a.Type),
				Title:     a.Title,
			})
		}
		steps = append(steps, domain.CareerPathStep{
			ID:             st.ID,
			PathID:         st.PathID,
			StepNumber:     st.StepNumber,
			TargetRole:     st.TargetRole,
			Description:    st.Description,
			DurationMonths: st.DurationMonths,
			Actions:        actions,
		})
	}
	return domain.CareerPath{
		ID:               m.ID,
		ExternalID:       m.ExternalID,
		UserID:           m.UserID,
		AssessmentID:     m.AssessmentID,
		Name:             m.Name,
		Recommended:      m.Recommended,
		FeasibilityScore: m.FeasibilityScore,
		DurationMonths:   m.DurationMonths,
		Status:           domain.CareerPathStatus(m.Status),
		Steps:            steps,
	}
}
