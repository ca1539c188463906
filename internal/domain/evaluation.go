// Package domain provides core types and business rules for the 360°
// evaluation pipeline. It defines evaluations, aggregated skill profiles,
// AI-generated artifacts, and the error taxonomy shared by every layer.
// Types are pure data plus validation; no I/O happens here.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Score bounds used system-wide. Competency and level fields are 0.0-10.0,
// probability-like fields (confidence, feasibility, readiness) are 0.0-1.0.
const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Relationship identifies the rater's relationship to the evaluated user.
// Typed constants instead of raw strings keep relationship handling
// exhaustive and prevent typos from bypassing the completion policy.
type Relationship string

const (
	RelationshipSelf         Relationship = "self"
	RelationshipPeer         Relationship = "peer"
	RelationshipManager      Relationship = "manager"
	RelationshipDirectReport Relationship = "direct_report"
)

// Relationships lists all relationship tags in canonical order.
// Completion results and aggregation stats iterate in this order so
// output is deterministic.
func Relationships() []Relationship {
	return []Relationship{
		RelationshipSelf,
		RelationshipManager,
		RelationshipPeer,
		RelationshipDirectReport,
	}
}

// Valid reports whether the relationship is one of the known tags.
func (r Relationship) Valid() bool {
	switch r {
	case RelationshipSelf, RelationshipPeer, RelationshipManager, RelationshipDirectReport:
		return true
	default:
		return false
	}
}

// EvaluationStatus represents the lifecycle state of a rater's submission.
type EvaluationStatus string

const (
	EvaluationPending   EvaluationStatus = "pending"
	EvaluationSubmitted EvaluationStatus = "submitted"
	EvaluationCancelled EvaluationStatus = "cancelled"
)

// CompetencyScore is one skill score within one evaluation.
// It is owned exclusively by its parent evaluation.
type CompetencyScore struct {
	ID           uuid.UUID `json:"id"`
	EvaluationID uuid.UUID `json:"evaluation_id"`
	SkillID      uuid.UUID `json:"skill_id"`
	SkillName    string    `json:"skill_name"`
	Score        float64   `json:"score"`
	Comment      string    `json:"comment,omitempty"`
}

// Validate checks the score's skill reference and numeric range.
func (c CompetencyScore) Validate() error {
	if c.SkillID == uuid.Nil {
		return &ValidationError{Field: "skill_id", Message: "missing skill reference"}
	}
	if c.Score < MinScore || c.Score > MaxScore {
		return &ValidationError{
			Field:   "score",
			Message: fmt.Sprintf("score %.2f outside [%g, %g]", c.Score, MinScore, MaxScore),
		}
	}
	return nil
}

// Evaluation is one rater's 360° submission for a user in a cycle.
// The pipeline consumes evaluations read-only; creation belongs to the
// management layer.
type Evaluation struct {
	ID           uuid.UUID         `json:"id"`
	UserID       uuid.UUID         `json:"user_id"`
	CycleID      uuid.UUID         `json:"cycle_id"`
	EvaluatorID  uuid.UUID         `json:"evaluator_id"`
	Relationship Relationship      `json:"relationship"`
	Status       EvaluationStatus  `json:"status"`
	SubmittedAt  *time.Time        `json:"submitted_at,omitempty"`
	Scores       []CompetencyScore `json:"scores,omitempty"`
}

// IsSubmitted reports whether the evaluation counts toward completion
// and aggregation. Pending and cancelled submissions never do.
func (e Evaluation) IsSubmitted() bool {
	return e.Status == EvaluationSubmitted
}
