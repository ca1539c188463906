package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for persistence and lookup failures.
var (
	// ErrPersistenceConflict indicates a unique-constraint race on the
	// aggregation replace write. Callers resolve it with a bounded retry
	// of the write, not by failing the pipeline.
	ErrPersistenceConflict = errors.New("persistence conflict on aggregated scores")

	// ErrNoAggregatedScores indicates the assessment stage found no
	// aggregated scores to build a request from.
	ErrNoAggregatedScores = errors.New("no aggregated skill scores for user and cycle")
)

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ValidationError indicates malformed input to the pipeline. It is never
// retried and surfaces immediately.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// MissingRequirement names one unmet relationship-count requirement of the
// completion policy.
type MissingRequirement struct {
	Relationship Relationship `json:"relationship"`
	Required     int          `json:"required"`
	Have         int          `json:"have"`
}

func (m MissingRequirement) String() string {
	switch m.Relationship {
	case RelationshipSelf:
		return "self evaluation"
	case RelationshipManager:
		return "manager evaluation"
	default:
		return fmt.Sprintf("at least %d %s evaluations (has %d)",
			m.Required, strings.ReplaceAll(string(m.Relationship), "_", " "), m.Have)
	}
}

// IncompleteCycleError indicates the cycle lacks required submissions for
// the user. It is a caller-recoverable conflict, not a system fault: the
// caller retries once more raters have submitted.
type IncompleteCycleError struct {
	Missing []MissingRequirement
}

func (e *IncompleteCycleError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		parts = append(parts, m.String())
	}
	return "cycle not complete for user, missing: " + strings.Join(parts, ", ")
}

// DependencyUnavailableError indicates an external AI service failed after
// the retry budget was exhausted, or was short-circuited by an open breaker.
// Service is the dependency name, Attempts the number of tries made.
type DependencyUnavailableError struct {
	Service  string
	Attempts int
	Cause    error
}

func (e *DependencyUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable after %d attempts: %v", e.Service, e.Attempts, e.Cause)
}

func (e *DependencyUnavailableError) Unwrap() error { return e.Cause }
