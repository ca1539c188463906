// Package aggregation turns raw per-rater competency scores into
// consolidated per-skill profiles with a confidence measure. Aggregation is
// pure: it reads in-memory evaluations and returns new aggregated scores;
// persistence (including the replace law for reruns) belongs to the store.
package aggregation

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"talentcycle/internal/domain"
)

// ConfidencePolicy maps the per-skill sample size n to a confidence value.
// The thresholds are fixed product constants with no statistical derivation;
// they are configurable but never inferred from the data.
type ConfidencePolicy struct {
	HighN   int     `koanf:"high_n" json:"high_n"`
	MediumN int     `koanf:"medium_n" json:"medium_n"`
	High    float64 `koanf:"high" json:"high"`
	Medium  float64 `koanf:"medium" json:"medium"`
	Low     float64 `koanf:"low" json:"low"`
}

// DefaultConfidencePolicy returns the standard thresholds:
// n>=5 -> 0.9, n>=3 -> 0.7, n>=1 -> 0.5. Skills with n=0 are excluded
// from the output entirely.
func DefaultConfidencePolicy() ConfidencePolicy {
	return ConfidencePolicy{HighN: 5, MediumN: 3, High: 0.9, Medium: 0.7, Low: 0.5}
}

// Confidence returns the confidence for a sample of n scores.
func (p ConfidencePolicy) Confidence(n int) float64 {
	switch {
	case n >= p.HighN:
		return p.High
	case n >= p.MediumN:
		return p.Medium
	case n >= 1:
		return p.Low
	default:
		return 0
	}
}

// Aggregator consolidates competency scores using unweighted arithmetic
// means. Rater-reliability weighting is deliberately not implemented; the
// raw per-relationship scores are kept in the stats blob so a weighting
// pass has its inputs if one is ever added.
type Aggregator struct {
	confidence ConfidencePolicy
}

// New returns an aggregator with the given confidence policy.
func New(confidence ConfidencePolicy) *Aggregator {
	return &Aggregator{confidence: confidence}
}

type skillGroup struct {
	skillID   uuid.UUID
	skillName string
	scores    map[domain.Relationship][]float64
}

// Aggregate groups the submitted evaluations' scores by skill and computes,
// per skill: the overall mean across all raters, the mean and count per
// relationship, and the confidence for the total sample size. The result
// is sorted by skill name so replace writes are stable across runs.
//
// A score with a missing skill reference or a value outside [0, 10] is a
// validation failure; nothing is aggregated in that case.
func (a *Aggregator) Aggregate(userID, cycleID uuid.UUID, evals []domain.Evaluation) ([]domain.AggregatedSkillScore, error) {
	groups := make(map[uuid.UUID]*skillGroup)

	for _, eval := range evals {
		if !eval.IsSubmitted() {
			continue
		}
		if !eval.Relationship.Valid() {
			return nil, &domain.ValidationError{
				Field:   "relationship",
				Message: fmt.Sprintf("unknown relationship %q on evaluation %s", eval.Relationship, eval.ID),
			}
		}
		for _, score := range eval.Scores {
			if err := score.Validate(); err != nil {
				return nil, err
			}
			g, ok := groups[score.SkillID]
			if !ok {
				g = &skillGroup{
					skillID:   score.SkillID,
					skillName: score.SkillName,
					scores:    make(map[domain.Relationship][]float64, 4),
				}
				groups[score.SkillID] = g
			}
			g.scores[eval.Relationship] = append(g.scores[eval.Relationship], score.Score)
		}
	}

	out := make([]domain.AggregatedSkillScore, 0, len(groups))
	for _, g := range groups {
		stats := domain.RelationshipStats{
			ByRelationship: make(map[domain.Relationship]domain.RelationshipStat, 4),
		}

		var sum float64
		var n int
		for _, rel := range domain.Relationships() {
			scores := g.scores[rel]
			stat := domain.RelationshipStat{Scores: scores, Count: len(scores)}
			if len(scores) > 0 {
				m := mean(scores)
				stat.Mean = &m
				sum += m * float64(len(scores))
				n += len(scores)
			}
			stats.ByRelationship[rel] = stat
		}
		stats.TotalCount = n

		if n == 0 {
			continue
		}

		out = append(out, domain.AggregatedSkillScore{
			ID:         uuid.New(),
			UserID:     userID,
			CycleID:    cycleID,
			SkillID:    g.skillID,
			SkillName:  g.skillName,
			Source:     domain.SourceAggregated,
			Score:      sum / float64(n),
			Confidence: a.confidence.Confidence(n),
			Stats:      stats,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SkillName != out[j].SkillName {
			return out[i].SkillName < out[j].SkillName
		}
		return out[i].SkillID.String() < out[j].SkillID.String()
	})

	return out, nil
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
