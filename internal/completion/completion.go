// Package completion decides whether an evaluation cycle has collected
// enough submitted evaluations for a user to proceed to aggregation.
// The evaluator is a pure function over in-memory evaluations: no I/O,
// deterministic output.
package completion

import "talentcycle/internal/domain"

// Policy holds the minimum submitted-evaluation counts per relationship.
// Counts are configurable; defaults mirror the product rules (one self,
// one manager, two peers, direct reports optional).
type Policy struct {
	MinSelf          int `koanf:"min_self" json:"min_self"`
	MinManager       int `koanf:"min_manager" json:"min_manager"`
	MinPeers         int `koanf:"min_peers" json:"min_peers"`
	MinDirectReports int `koanf:"min_direct_reports" json:"min_direct_reports"`
}

// DefaultPolicy returns the standard completion requirements.
func DefaultPolicy() Policy {
	return Policy{MinSelf: 1, MinManager: 1, MinPeers: 2, MinDirectReports: 0}
}

// Result is the completeness verdict. When incomplete, Missing names each
// unmet relationship-count requirement so callers can surface a precise
// conflict instead of a generic failure.
type Result struct {
	Complete bool                        `json:"complete"`
	Missing  []domain.MissingRequirement `json:"missing,omitempty"`
}

// Err converts an incomplete result into the pipeline's conflict error.
// Returns nil for complete results.
func (r Result) Err() error {
	if r.Complete {
		return nil
	}
	return &domain.IncompleteCycleError{Missing: r.Missing}
}

// Evaluate counts submitted evaluations by relationship and checks them
// against the policy. Pending and cancelled evaluations never count.
// Missing requirements are reported in canonical relationship order
// (self, manager, peer, direct_report).
func Evaluate(policy Policy, evals []domain.Evaluation) Result {
	counts := make(map[domain.Relationship]int, 4)
	for _, e := range evals {
		if e.IsSubmitted() && e.Relationship.Valid() {
			counts[e.Relationship]++
		}
	}

	required := map[domain.Relationship]int{
		domain.RelationshipSelf:         policy.MinSelf,
		domain.RelationshipManager:      policy.MinManager,
		domain.RelationshipPeer:         policy.MinPeers,
		domain.RelationshipDirectReport: policy.MinDirectReports,
	}

	var missing []domain.MissingRequirement
	for _, rel := range domain.Relationships() {
		if counts[rel] < required[rel] {
			missing = append(missing, domain.MissingRequirement{
				Relationship: rel,
				Required:     required[rel],
				Have:         counts[rel],
			})
		}
	}

	return Result{Complete: len(missing) == 0, Missing: missing}
}
