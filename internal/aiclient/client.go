package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"talentcycle/internal/aiclient/aierrors"
	"talentcycle/internal/aiclient/circuitbreaker"
	"talentcycle/internal/aiclient/retry"
	"talentcycle/internal/aiclient/transport"
	"talentcycle/internal/domain"
	"talentcycle/pkg/logger"
	"talentcycle/pkg/metrics"
)

// Service names used for breaker state, metrics, and audit records.
const (
	ServiceSkills = "ai_skills_assessment"
	ServiceCareer = "ai_career_path"
)

// Config describes one AI service endpoint and its resilience policy.
type Config struct {
	BaseURL string        `koanf:"base_url" json:"base_url"`
	APIKey  string        `koanf:"api_key" json:"api_key"`
	Timeout time.Duration `koanf:"timeout" json:"timeout"`

	Retry   retry.Config          `koanf:"retry" json:"retry"`
	Breaker circuitbreaker.Config `koanf:"breaker" json:"breaker"`
}

// DefaultConfig returns a config with the standard resilience policy and a
// thirty second per-attempt timeout.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 30 * time.Second,
		Retry:   retry.DefaultConfig(),
		Breaker: circuitbreaker.DefaultConfig(),
	}
}

// CallAuditor persists the audit trail of external calls. Begin commits the
// record as pending before the network call; Finish commits the terminal
// outcome afterwards. The two writes are independent so the pending record
// is visible while the call is in flight.
type CallAuditor interface {
	Begin(ctx context.Context, rec *domain.AICallRecord) error
	Finish(ctx context.Context, rec *domain.AICallRecord) error
}

// CallContext correlates an AI call with the pipeline entities it serves.
type CallContext struct {
	UserID       uuid.UUID
	CycleID      uuid.UUID
	AssessmentID *uuid.UUID
	CareerPathID *uuid.UUID
}

// client is the shared machinery behind both typed clients: a middleware
// chain with the breaker outermost, then retries, then the HTTP core, plus
// audit bookkeeping around every call.
type client struct {
	service string
	chain   transport.Handler
	breaker *circuitbreaker.Breaker
	timeout time.Duration
	audit   CallAuditor
	log     *logger.Logger
}

func newClient(service string, cfg Config, httpClient *http.Client, audit CallAuditor, log *logger.Logger) (*client, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	breaker, err := circuitbreaker.New(service, cfg.Breaker, log)
	if err != nil {
		return nil, fmt.Errorf("%s breaker: %w", service, err)
	}
	retryMW, err := retry.NewMiddleware(cfg.Retry, log)
	if err != nil {
		return nil, fmt.Errorf("%s retry: %w", service, err)
	}

	core := transport.NewHTTPHandler(httpClient, cfg.BaseURL, cfg.APIKey)
	return &client{
		service: service,
		chain:   transport.Chain(core, circuitbreaker.Middleware(breaker), retryMW),
		breaker: breaker,
		timeout: cfg.Timeout,
		audit:   audit,
		log:     log.With("service", service),
	}, nil
}

// call runs one audited request through the resilience chain and decodes
// the response into out. The audit record is committed pending before the
// call and finalized after; a decode failure counts as a call failure and
// never yields a partial result.
func (c *client) call(ctx context.Context, cc CallContext, payload, out any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return &aierrors.ServiceError{
			Service: c.service,
			Type:    aierrors.ErrorTypeValidation,
			Message: fmt.Sprintf("encode request: %v", err),
		}
	}

	rec := &domain.AICallRecord{
		ID:             uuid.New(),
		ServiceName:    c.service,
		UserID:         cc.UserID,
		CycleID:        cc.CycleID,
		AssessmentID:   cc.AssessmentID,
		CareerPathID:   cc.CareerPathID,
		RequestPayload: reqBody,
		Outcome:        domain.CallPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := c.audit.Begin(ctx, rec); err != nil {
		return fmt.Errorf("record %s call: %w", c.service, err)
	}

	start := time.Now()
	resp, callErr := c.chain.Handle(ctx, &transport.Request{
		Service: c.service,
		Payload: json.RawMessage(reqBody),
		Timeout: c.timeout,
	})
	elapsed := time.Since(start)

	if callErr == nil {
		if decodeErr := json.Unmarshal(resp.Body, out); decodeErr != nil {
			callErr = &aierrors.ServiceError{
				Service: c.service,
				Type:    aierrors.ErrorTypeValidation,
				Message: fmt.Sprintf("decode response: %v", decodeErr),
			}
		} else {
			rec.Outcome = domain.CallSuccess
			rec.ResponsePayload = resp.Body
			rec.LatencyMS = elapsed.Milliseconds()
			c.finishAudit(ctx, rec)
			metrics.ObserveAICall(c.service, string(domain.CallSuccess))
			return nil
		}
	}

	rec.Outcome = domain.CallError
	if aierrors.IsTimeout(callErr) {
		rec.Outcome = domain.CallTimeout
	}
	rec.ErrorMessage = callErr.Error()
	rec.LatencyMS = elapsed.Milliseconds()
	c.finishAudit(ctx, rec)
	metrics.ObserveAICall(c.service, string(rec.Outcome))

	if aierrors.IsCircuitOpen(callErr) {
		return callErr
	}
	return &domain.DependencyUnavailableError{
		Service:  c.service,
		Attempts: attemptCount(callErr),
		Cause:    callErr,
	}
}

// finishAudit commits the terminal outcome. An audit write failure must not
// mask the call result, so it is logged and swallowed.
func (c *client) finishAudit(ctx context.Context, rec *domain.AICallRecord) {
	if err := c.audit.Finish(ctx, rec); err != nil {
		c.log.Error("finalize audit record failed",
			"record_id", rec.ID,
			"outcome", rec.Outcome,
			"error", err)
	}
}

func attemptCount(err error) int {
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.Attempts
	}
	return 1
}

// SkillsClient calls the skills-assessment AI service.
type SkillsClient struct {
	c *client
}

// NewSkillsClient builds the skills client with its own breaker.
func NewSkillsClient(cfg Config, httpClient *http.Client, audit CallAuditor, log *logger.Logger) (*SkillsClient, error) {
	c, err := newClient(ServiceSkills, cfg, httpClient, audit, log)
	if err != nil {
		return nil, err
	}
	return &SkillsClient{c: c}, nil
}

// AssessSkills submits the consolidated competency profile and returns the
// parsed assessment. On any failure the returned error is typed and no
// partial response is returned.
func (s *SkillsClient) AssessSkills(ctx context.Context, cc CallContext, req *SkillsAssessmentRequest) (*SkillsAssessmentResponse, error) {
	var resp SkillsAssessmentResponse
	if err := s.c.call(ctx, cc, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BreakerState exposes the breaker position for health reporting.
func (s *SkillsClient) BreakerState() circuitbreaker.State { return s.c.breaker.State() }

// CareerClient calls the career-path AI service.
type CareerClient struct {
	c *client
}

// NewCareerClient builds the career client with its own breaker,
// independent of the skills breaker.
func NewCareerClient(cfg Config, httpClient *http.Client, audit CallAuditor, log *logger.Logger) (*CareerClient, error) {
	c, err := newClient(ServiceCareer, cfg, httpClient, audit, log)
	if err != nil {
		return nil, err
	}
	return &CareerClient{c: c}, nil
}

// GeneratePaths submits the assessment context and returns the parsed
// career path proposals.
func (c *CareerClient) GeneratePaths(ctx context.Context, cc CallContext, req *CareerPathRequest) (*CareerPathResponse, error) {
	var resp CareerPathResponse
	if err := c.c.call(ctx, cc, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BreakerState exposes the breaker position for health reporting.
func (c *CareerClient) BreakerState() circuitbreaker.State { return c.c.breaker.State() }
