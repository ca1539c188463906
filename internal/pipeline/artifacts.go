package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"talentcycle/internal/aiclient"
	"talentcycle/internal/domain"
)

// buildAssessment normalizes the skills service response into the persisted
// artifact. Strengths, growth areas, hidden talents, and role-readiness
// entries become uniform assessment items; readiness percentages arrive on
// a 0-100 scale and are stored as probabilities in [0, 1].
func buildAssessment(id uuid.UUID, userID, cycleID uuid.UUID, req *aiclient.SkillsAssessmentRequest, resp *aiclient.SkillsAssessmentResponse) (*domain.SkillsAssessment, error) {
	rawReq, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode assessment request: %w", err)
	}
	rawResp, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode assessment response: %w", err)
	}

	var items []domain.AssessmentItem

	for _, s := range resp.SkillsProfile.Strengths {
		score := s.Score
		items = append(items, domain.AssessmentItem{
			ID:           uuid.New(),
			AssessmentID: id,
			Type:         domain.ItemStrength,
			Label:        s.Skill,
			Score:        &score,
			Priority:     s.ProficiencyLevel,
			Evidence:     s.Evidence,
		})
	}

	for _, g := range resp.SkillsProfile.GrowthAreas {
		gap := g.GapScore
		items = append(items, domain.AssessmentItem{
			ID:           uuid.New(),
			AssessmentID: id,
			Type:         domain.ItemGrowthArea,
			Label:        g.Skill,
			GapScore:     &gap,
			Priority:     g.Priority,
			Evidence:     fmt.Sprintf("Current: %g, Target: %g", g.CurrentLevel, g.TargetLevel),
		})
	}

	for _, t := range resp.SkillsProfile.HiddenTalents {
		potential := t.PotentialScore
		items = append(items, domain.AssessmentItem{
			ID:           uuid.New(),
			AssessmentID: id,
			Type:         domain.ItemHiddenTalent,
			Label:        t.Skill,
			Score:        &potential,
			Evidence:     t.Evidence,
		})
	}

	for _, r := range resp.ReadinessForRoles {
		readiness := r.ReadinessPercentage / 100.0
		items = append(items, domain.AssessmentItem{
			ID:                  uuid.New(),
			AssessmentID:        id,
			Type:                domain.ItemRoleReadiness,
			Label:               r.Role,
			Readiness:           &readiness,
			MissingCompetencies: r.MissingCompetencies,
		})
	}

	return &domain.SkillsAssessment{
		ID:          id,
		ExternalID:  resp.AssessmentID,
		UserID:      userID,
		CycleID:     cycleID,
		Status:      "completed",
		Items:       items,
		RawRequest:  rawReq,
		RawResponse: rawResp,
		ProcessedAt: time.Now().UTC(),
	}, nil
}

// buildCareerPaths maps the career service response to persistable paths.
// The first path takes the pre-generated id referenced by the audit record;
// action types are inferred from the free-text action titles.
func buildCareerPaths(firstPathID uuid.UUID, userID, assessmentID uuid.UUID, resp *aiclient.CareerPathResponse) []domain.CareerPath {
	paths := make([]domain.CareerPath, 0, len(resp.GeneratedPaths))

	for i, gp := range resp.GeneratedPaths {
		pathID := uuid.New()
		if i == 0 {
			pathID = firstPathID
		}

		steps := make([]domain.CareerPathStep, 0, len(gp.Steps))
		for _, st := range gp.Steps {
			stepID := uuid.New()

			var actions []domain.DevelopmentAction
			for _, comp := range st.RequiredCompetencies {
				for _, title := range comp.DevelopmentActions {
					actions = append(actions, domain.DevelopmentAction{
						ID:        uuid.New(),
						StepID:    stepID,
						SkillName: comp.Name,
						Type:      domain.InferActionType(title),
						Title:     title,
					})
				}
			}

			steps = append(steps, domain.CareerPathStep{
				ID:             stepID,
				PathID:         pathID,
				StepNumber:     st.StepNumber,
				TargetRole:     st.TargetRole,
				Description:    "Progress to " + st.TargetRole,
				DurationMonths: st.DurationMonths,
				Actions:        actions,
			})
		}

		paths = append(paths, domain.CareerPath{
			ID:               pathID,
			ExternalID:       gp.PathID,
			UserID:           userID,
			AssessmentID:     assessmentID,
			Name:             gp.PathName,
			Recommended:      gp.Recommended,
			FeasibilityScore: gp.FeasibilityScore,
			DurationMonths:   gp.TotalDurationMonths,
			Status:           domain.PathProposed,
			Steps:            steps,
		})
	}

	return paths
}
