package domain

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentItemType classifies the insights the skills AI returns.
// The response's strengths, growth areas, hidden talents, and role-readiness
// entries are normalized into items of these types for uniform querying.
type AssessmentItemType string

const (
	ItemStrength      AssessmentItemType = "strength"
	ItemGrowthArea    AssessmentItemType = "growth_area"
	ItemHiddenTalent  AssessmentItemType = "hidden_talent"
	ItemRoleReadiness AssessmentItemType = "role_readiness"
)

// AssessmentItem is one normalized insight from a skills assessment.
// Which fields are populated depends on the item type: strengths and hidden
// talents carry Score, growth areas carry GapScore and Priority, role
// readiness carries Readiness (normalized to 0-1) and MissingCompetencies.
type AssessmentItem struct {
	ID                  uuid.UUID          `json:"id"`
	AssessmentID        uuid.UUID          `json:"assessment_id"`
	Type                AssessmentItemType `json:"type"`
	Label               string             `json:"label"`
	Score               *float64           `json:"score,omitempty"`
	GapScore            *float64           `json:"gap_score,omitempty"`
	Priority            string             `json:"priority,omitempty"`
	Readiness           *float64           `json:"readiness,omitempty"`
	Evidence            string             `json:"evidence,omitempty"`
	MissingCompetencies []string           `json:"missing_competencies,omitempty"`
}

// SkillsAssessment is the persisted artifact of one successful skills AI
// call. It exists only after the call succeeded; its absence for a
// (user, cycle) signals that the pipeline failed at or before that stage.
type SkillsAssessment struct {
	ID          uuid.UUID        `json:"id"`
	ExternalID  string           `json:"external_id"`
	UserID      uuid.UUID        `json:"user_id"`
	CycleID     uuid.UUID        `json:"cycle_id"`
	Status      string           `json:"status"`
	Items       []AssessmentItem `json:"items,omitempty"`
	RawRequest  []byte           `json:"raw_request,omitempty"`
	RawResponse []byte           `json:"raw_response,omitempty"`
	ProcessedAt time.Time        `json:"processed_at"`
}
