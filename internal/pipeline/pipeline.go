// Package pipeline orchestrates the 360° evaluation flow: completion check,
// score aggregation, skills assessment, and career path generation. Each
// persistence step runs in its own transaction; external AI calls happen
// outside any open transaction so network latency never holds database
// locks.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"talentcycle/internal/aggregation"
	"talentcycle/internal/aiclient"
	"talentcycle/internal/completion"
	"talentcycle/internal/domain"
	"talentcycle/internal/store"
	"talentcycle/pkg/logger"
	"talentcycle/pkg/metrics"
)

// Stage names reported on success and failure.
const (
	StageCompletion  = "completion"
	StageAggregation = "aggregation"
	StageAssessment  = "assessment"
	StageCareerPath  = "career_path"
)

// Config holds the pipeline's policies and request-building context.
type Config struct {
	Completion completion.Policy            `koanf:"completion" json:"completion"`
	Confidence aggregation.ConfidencePolicy `koanf:"confidence" json:"confidence"`

	// WriteRetries bounds the local retry of the aggregation replace write
	// when two runs for the same (user, cycle) race on the unique key.
	WriteRetries int `koanf:"write_retries" json:"write_retries"`

	// Request context for the AI services. Position and experience come
	// from the HR profile when one is wired up; these are the fallbacks.
	CurrentPosition       string   `koanf:"current_position" json:"current_position"`
	YearsExperience       int      `koanf:"years_experience" json:"years_experience"`
	TimeHorizonYears      int      `koanf:"time_horizon_years" json:"time_horizon_years"`
	CareerInterests       []string `koanf:"career_interests" json:"career_interests"`
	OrganizationStructure []string `koanf:"organization_structure" json:"organization_structure"`
}

// DefaultConfig returns the standard pipeline policies.
func DefaultConfig() Config {
	return Config{
		Completion:       completion.DefaultPolicy(),
		Confidence:       aggregation.DefaultConfidencePolicy(),
		WriteRetries:     3,
		CurrentPosition:  "Unknown",
		YearsExperience:  5,
		TimeHorizonYears: 3,
	}
}

// StageError reports which pipeline stage failed. The cause is preserved
// for the error taxonomy: callers unwrap to distinguish incomplete cycles,
// open breakers, and unavailable dependencies.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// CycleRef identifies the (user, cycle) a pipeline run operates on.
type CycleRef struct {
	UserID  uuid.UUID `json:"user_id"`
	CycleID uuid.UUID `json:"cycle_id"`
}

// Result summarizes one successful pipeline run.
type Result struct {
	UserID        uuid.UUID   `json:"user_id"`
	CycleID       uuid.UUID   `json:"cycle_id"`
	SkillCount    int         `json:"skill_count"`
	AssessmentID  uuid.UUID   `json:"assessment_id"`
	CareerPathIDs []uuid.UUID `json:"career_path_ids"`
}

// Orchestrator sequences the pipeline stages. Stages are strictly
// sequential within one run; concurrent runs for different users are
// independent and share only the circuit breakers.
type Orchestrator struct {
	store      *store.Store
	skills     *aiclient.SkillsClient
	career     *aiclient.CareerClient
	aggregator *aggregation.Aggregator
	cfg        Config
	log        *logger.Logger
}

// New builds an orchestrator.
func New(st *store.Store, skills *aiclient.SkillsClient, career *aiclient.CareerClient, cfg Config, log *logger.Logger) *Orchestrator {
	if cfg.WriteRetries <= 0 {
		cfg.WriteRetries = 1
	}
	return &Orchestrator{
		store:      st,
		skills:     skills,
		career:     career,
		aggregator: aggregation.New(cfg.Confidence),
		cfg:        cfg,
		log:        log.With("component", "pipeline"),
	}
}

// Process runs the full pipeline for the (user, cycle) the evaluation
// belongs to. A failed stage stops the run and leaves earlier committed
// artifacts intact; invoking Process again for the same (user, cycle) is
// safe because the aggregation write replaces rather than accumulates.
func (o *Orchestrator) Process(ctx context.Context, evaluationID uuid.UUID) (*Result, error) {
	ref, err := o.ResolveCycle(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	log := o.log.With("user_id", ref.UserID, "cycle_id", ref.CycleID)

	skillCount, err := o.AggregateStage(ctx, ref)
	if err != nil {
		stage := StageAggregation
		var incomplete *domain.IncompleteCycleError
		if errors.As(err, &incomplete) {
			stage = StageCompletion
			metrics.ObservePipelineRun(stage, "incomplete")
		} else {
			metrics.ObservePipelineRun(stage, "failed")
		}
		return nil, &StageError{Stage: stage, Err: err}
	}
	log.Info("aggregation persisted", "skills", skillCount)

	assessmentID, err := o.AssessmentStage(ctx, ref)
	if err != nil {
		metrics.ObservePipelineRun(StageAssessment, "failed")
		return nil, &StageError{Stage: StageAssessment, Err: err}
	}
	log.Info("skills assessment persisted", "assessment_id", assessmentID)

	pathIDs, err := o.CareerStage(ctx, ref, assessmentID)
	if err != nil {
		metrics.ObservePipelineRun(StageCareerPath, "failed")
		return nil, &StageError{Stage: StageCareerPath, Err: err}
	}
	log.Info("career paths persisted", "paths", len(pathIDs))

	metrics.ObservePipelineRun(StageCareerPath, "success")
	return &Result{
		UserID:        ref.UserID,
		CycleID:       ref.CycleID,
		SkillCount:    skillCount,
		AssessmentID:  assessmentID,
		CareerPathIDs: pathIDs,
	}, nil
}

// ResolveCycle resolves an evaluation id to the (user, cycle) it belongs
// to.
func (o *Orchestrator) ResolveCycle(ctx context.Context, evaluationID uuid.UUID) (CycleRef, error) {
	eval, err := o.store.UnitOfWork().Evaluations().GetByID(ctx, evaluationID)
	if err != nil {
		return CycleRef{}, err
	}
	return CycleRef{UserID: eval.UserID, CycleID: eval.CycleID}, nil
}

// AggregateStage checks cycle completion, aggregates the submitted scores,
// and replaces the persisted rows in one transaction. A unique-key race
// with a concurrent run for the same (user, cycle) retries the whole write
// a bounded number of times; the run that commits last wins. Returns the
// number of skills persisted.
func (o *Orchestrator) AggregateStage(ctx context.Context, ref CycleRef) (int, error) {
	evals, err := o.store.UnitOfWork().Evaluations().SubmittedForUserCycle(ctx, ref.UserID, ref.CycleID)
	if err != nil {
		return 0, err
	}

	verdict := completion.Evaluate(o.cfg.Completion, evals)
	if err := verdict.Err(); err != nil {
		o.log.Info("cycle incomplete",
			"user_id", ref.UserID,
			"cycle_id", ref.CycleID,
			"missing", verdict.Missing)
		return 0, err
	}

	scores, err := o.aggregator.Aggregate(ref.UserID, ref.CycleID, evals)
	if err != nil {
		return 0, err
	}

	var lastErr error
	for attempt := 1; attempt <= o.cfg.WriteRetries; attempt++ {
		lastErr = o.store.WithinTx(ctx, func(uow *store.UnitOfWork) error {
			return uow.SkillScores().ReplaceForUserCycle(ctx, ref.UserID, ref.CycleID, scores)
		})
		if lastErr == nil {
			return len(scores), nil
		}
		if !errors.Is(lastErr, domain.ErrPersistenceConflict) {
			return 0, lastErr
		}
		o.log.Warn("aggregation write conflict, retrying",
			"user_id", ref.UserID,
			"cycle_id", ref.CycleID,
			"attempt", attempt)
	}
	return 0, lastErr
}

// AssessmentStage builds the skills request from the persisted profile,
// calls the skills AI, and commits the parsed artifact in its own
// transaction. The assessment id is generated before the call so the audit
// record can reference it. Nothing is persisted on a failed call.
func (o *Orchestrator) AssessmentStage(ctx context.Context, ref CycleRef) (uuid.UUID, error) {
	scores, err := o.store.UnitOfWork().SkillScores().ListForUserCycle(ctx, ref.UserID, ref.CycleID)
	if err != nil {
		return uuid.Nil, err
	}
	if len(scores) == 0 {
		return uuid.Nil, domain.ErrNoAggregatedScores
	}

	req := o.buildSkillsRequest(ref.UserID, scores)
	assessmentID := uuid.New()

	resp, err := o.skills.AssessSkills(ctx, aiclient.CallContext{
		UserID:       ref.UserID,
		CycleID:      ref.CycleID,
		AssessmentID: &assessmentID,
	}, req)
	if err != nil {
		return uuid.Nil, err
	}

	assessment, err := buildAssessment(assessmentID, ref.UserID, ref.CycleID, req, resp)
	if err != nil {
		return uuid.Nil, err
	}

	err = o.store.WithinTx(ctx, func(uow *store.UnitOfWork) error {
		return uow.Assessments().Create(ctx, *assessment)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return assessment.ID, nil
}

// CareerStage calls the career AI for the persisted assessment and commits
// the proposed paths, steps, and actions in one transaction. The first
// path's id is generated before the call for audit correlation.
func (o *Orchestrator) CareerStage(ctx context.Context, ref CycleRef, assessmentID uuid.UUID) ([]uuid.UUID, error) {
	assessment, err := o.store.UnitOfWork().Assessments().GetByID(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	req := &aiclient.CareerPathRequest{
		UserID:                ref.UserID.String(),
		SkillsAssessmentID:    assessment.ID.String(),
		CurrentPosition:       o.cfg.CurrentPosition,
		CareerInterests:       o.cfg.CareerInterests,
		TimeHorizonYears:      o.cfg.TimeHorizonYears,
		OrganizationStructure: o.cfg.OrganizationStructure,
	}

	firstPathID := uuid.New()
	resp, err := o.career.GeneratePaths(ctx, aiclient.CallContext{
		UserID:       ref.UserID,
		CycleID:      ref.CycleID,
		AssessmentID: &assessment.ID,
		CareerPathID: &firstPathID,
	}, req)
	if err != nil {
		return nil, err
	}

	paths := buildCareerPaths(firstPathID, ref.UserID, assessment.ID, resp)

	err = o.store.WithinTx(ctx, func(uow *store.UnitOfWork) error {
		return uow.CareerPaths().CreateAll(ctx, paths)
	})
	if err != nil {
		return nil, err
	}

	pathIDs := make([]uuid.UUID, 0, len(paths))
	for _, p := range paths {
		pathIDs = append(pathIDs, p.ID)
	}
	return pathIDs, nil
}

// buildSkillsRequest shapes the persisted profile into the skills service
// contract. Self and manager scores are means; peer and direct-report
// scores stay individual so the service can detect rater discrepancies.
func (o *Orchestrator) buildSkillsRequest(userID uuid.UUID, scores []domain.AggregatedSkillScore) *aiclient.SkillsAssessmentRequest {
	competencies := make([]aiclient.Competency, 0, len(scores))
	for _, s := range scores {
		competencies = append(competencies, aiclient.Competency{
			Name:               s.SkillName,
			SelfScore:          s.Stats.Stat(domain.RelationshipSelf).Mean,
			PeerScores:         s.Stats.Stat(domain.RelationshipPeer).Scores,
			ManagerScore:       s.Stats.Stat(domain.RelationshipManager).Mean,
			DirectReportScores: s.Stats.Stat(domain.RelationshipDirectReport).Scores,
		})
	}
	return &aiclient.SkillsAssessmentRequest{
		UserID:          userID.String(),
		EvaluationData:  aiclient.EvaluationData{Competencies: competencies},
		CurrentPosition: o.cfg.CurrentPosition,
		YearsExperience: o.cfg.YearsExperience,
	}
}
