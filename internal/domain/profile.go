package domain

import "github.com/google/uuid"

// SourceAggregated tags skill scores produced by the aggregation stage.
// The unique key (user, cycle, skill, source) keeps aggregated rows apart
// from scores imported through other channels.
const SourceAggregated = "360_aggregated"

// RelationshipStat holds the raw scores and the derived statistics for one
// relationship tag within one skill group.
type RelationshipStat struct {
	Scores []float64 `json:"scores"`
	Mean   *float64  `json:"mean"`
	Count  int       `json:"count"`
}

// RelationshipStats is the raw statistics blob persisted alongside each
// aggregated score. Keys are relationship tags; TotalCount is the sample
// size n the confidence policy is applied to.
type RelationshipStats struct {
	ByRelationship map[Relationship]RelationshipStat `json:"by_relationship"`
	TotalCount     int                               `json:"total_count"`
}

// Stat returns the statistics for one relationship, zero-valued when no
// rater of that kind scored the skill.
func (s RelationshipStats) Stat(r Relationship) RelationshipStat {
	if s.ByRelationship == nil {
		return RelationshipStat{}
	}
	return s.ByRelationship[r]
}

// AggregatedSkillScore is the consolidated per-skill result for one user in
// one cycle. Rows are unique per (user, cycle, skill, source); re-running
// aggregation replaces them wholesale, never mixing old and new skills.
type AggregatedSkillScore struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"user_id"`
	CycleID    uuid.UUID         `json:"cycle_id"`
	SkillID    uuid.UUID         `json:"skill_id"`
	SkillName  string            `json:"skill_name"`
	Source     string            `json:"source"`
	Score      float64           `json:"score"`
	Confidence float64           `json:"confidence"`
	Stats      RelationshipStats `json:"stats"`
}
