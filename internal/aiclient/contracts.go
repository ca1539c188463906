// Package aiclient provides typed clients for the external skills-assessment
// and career-path AI services, composed with circuit breaking and retries.
package aiclient

// Competency is one skill's consolidated rater view sent to the skills
// service. Self and manager scores are means; peer and direct-report scores
// stay as individual values so the service can detect rater discrepancies.
type Competency struct {
	Name               string    `json:"name"`
	SelfScore          *float64  `json:"self_score"`
	PeerScores         []float64 `json:"peer_scores"`
	ManagerScore       *float64  `json:"manager_score"`
	DirectReportScores []float64 `json:"direct_report_scores"`
}

// EvaluationData carries the consolidated competency profile.
type EvaluationData struct {
	Competencies []Competency `json:"competencies"`
}

// SkillsAssessmentRequest is the wire request for the skills service.
type SkillsAssessmentRequest struct {
	UserID          string         `json:"user_id"`
	EvaluationData  EvaluationData `json:"evaluation_data"`
	CurrentPosition string         `json:"current_position"`
	YearsExperience int            `json:"years_experience"`
}

// Strength is one skill the assessment flags as above-bar.
type Strength struct {
	Skill            string  `json:"skill"`
	ProficiencyLevel string  `json:"proficiency_level"`
	Score            float64 `json:"score"`
	Evidence         string  `json:"evidence"`
}

// GrowthArea is one skill with a gap between current and target level.
type GrowthArea struct {
	Skill        string  `json:"skill"`
	CurrentLevel float64 `json:"current_level"`
	TargetLevel  float64 `json:"target_level"`
	GapScore     float64 `json:"gap_score"`
	Priority     string  `json:"priority"`
}

// HiddenTalent is a skill peers rate notably higher than the self view.
type HiddenTalent struct {
	Skill          string  `json:"skill"`
	Evidence       string  `json:"evidence"`
	PotentialScore float64 `json:"potential_score"`
}

// SkillsProfile groups the assessment findings.
type SkillsProfile struct {
	Strengths     []Strength     `json:"strengths"`
	GrowthAreas   []GrowthArea   `json:"growth_areas"`
	HiddenTalents []HiddenTalent `json:"hidden_talents"`
}

// RoleReadiness reports how close the user is to one target role.
// ReadinessPercentage arrives on a 0-100 scale.
type RoleReadiness struct {
	Role                string   `json:"role"`
	ReadinessPercentage float64  `json:"readiness_percentage"`
	MissingCompetencies []string `json:"missing_competencies"`
}

// SkillsAssessmentResponse is the wire response from the skills service.
type SkillsAssessmentResponse struct {
	AssessmentID      string          `json:"assessment_id"`
	UserID            string          `json:"user_id"`
	SkillsProfile     SkillsProfile   `json:"skills_profile"`
	ReadinessForRoles []RoleReadiness `json:"readiness_for_roles"`
}

// CareerPathRequest is the wire request for the career-path service.
type CareerPathRequest struct {
	UserID                string   `json:"user_id"`
	SkillsAssessmentID    string   `json:"skills_assessment_id"`
	CurrentPosition       string   `json:"current_position"`
	CareerInterests       []string `json:"career_interests"`
	TimeHorizonYears      int      `json:"time_horizon_years"`
	OrganizationStructure []string `json:"organization_structure"`
}

// RequiredCompetency is a competency a path step needs, with the actions
// that close the gap.
type RequiredCompetency struct {
	Name               string   `json:"name"`
	CurrentLevel       float64  `json:"current_level"`
	RequiredLevel      float64  `json:"required_level"`
	DevelopmentActions []string `json:"development_actions"`
}

// PathStep is one role transition within a generated path.
type PathStep struct {
	StepNumber           int                  `json:"step_number"`
	TargetRole           string               `json:"target_role"`
	DurationMonths       int                  `json:"duration_months"`
	RequiredCompetencies []RequiredCompetency `json:"required_competencies"`
}

// GeneratedPath is one candidate career trajectory.
type GeneratedPath struct {
	PathID              string     `json:"path_id"`
	PathName            string     `json:"path_name"`
	Recommended         bool       `json:"recommended"`
	TotalDurationMonths int        `json:"total_duration_months"`
	FeasibilityScore    float64    `json:"feasibility_score"`
	Steps               []PathStep `json:"steps"`
}

// CareerPathResponse is the wire response from the career-path service.
type CareerPathResponse struct {
	CareerPathID   string          `json:"career_path_id"`
	UserID         string          `json:"user_id"`
	GeneratedPaths []GeneratedPath `json:"generated_paths"`
}
