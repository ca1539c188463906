package domain

import (
	"strings"

	"github.com/google/uuid"
)

// CareerPathStatus tracks a proposed path's lifecycle. Paths start as
// proposed; acceptance flows live outside the pipeline.
type CareerPathStatus string

const (
	PathProposed   CareerPathStatus = "proposed"
	PathAccepted   CareerPathStatus = "accepted"
	PathInProgress CareerPathStatus = "in_progress"
	PathCompleted  CareerPathStatus = "completed"
	PathDiscarded  CareerPathStatus = "discarded"
)

// ActionType categorizes a development action.
type ActionType string

const (
	ActionCourse        ActionType = "course"
	ActionProject       ActionType = "project"
	ActionMentoring     ActionType = "mentoring"
	ActionShadowing     ActionType = "shadowing"
	ActionCertification ActionType = "certification"
	ActionOther         ActionType = "other"
)

// DevelopmentAction is one concrete activity attached to a path step,
// developing one competency the step requires.
type DevelopmentAction struct {
	ID        uuid.UUID  `json:"id"`
	StepID    uuid.UUID  `json:"step_id"`
	SkillName string     `json:"skill_name"`
	Type      ActionType `json:"type"`
	Title     string     `json:"title"`
}

// CareerPathStep is one stage of a proposed path, ordered by StepNumber.
type CareerPathStep struct {
	ID             uuid.UUID           `json:"id"`
	PathID         uuid.UUID           `json:"path_id"`
	StepNumber     int                 `json:"step_number"`
	TargetRole     string              `json:"target_role"`
	Description    string              `json:"description"`
	DurationMonths int                 `json:"duration_months"`
	Actions        []DevelopmentAction `json:"actions,omitempty"`
}

// CareerPath is one AI-proposed career trajectory, persisted only after a
// successful career AI call. FeasibilityScore is a probability in [0, 1].
type CareerPath struct {
	ID               uuid.UUID        `json:"id"`
	ExternalID       string           `json:"external_id"`
	UserID           uuid.UUID        `json:"user_id"`
	AssessmentID     uuid.UUID        `json:"assessment_id"`
	Name             string           `json:"name"`
	Recommended      bool             `json:"recommended"`
	FeasibilityScore float64          `json:"feasibility_score"`
	DurationMonths   int              `json:"duration_months"`
	Status           CareerPathStatus `json:"status"`
	Steps            []CareerPathStep `json:"steps,omitempty"`
}

// InferActionType derives the action category from a free-text action title.
// The AI responses carry unstructured titles; this keyword heuristic mirrors
// how actions are categorized upstream.
func InferActionType(title string) ActionType {
	switch {
	case containsFold(title, "course"), containsFold(title, "curso"):
		return ActionCourse
	case containsFold(title, "project"), containsFold(title, "proyecto"):
		return ActionProject
	case containsFold(title, "mentoring"), containsFold(title, "mentor"):
		return ActionMentoring
	case containsFold(title, "shadowing"):
		return ActionShadowing
	case containsFold(title, "certification"), containsFold(title, "certificaci"):
		return ActionCertification
	default:
		return ActionOther
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
