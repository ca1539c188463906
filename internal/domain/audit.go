package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallOutcome is the terminal (or in-flight) status of one external AI call.
type CallOutcome string

const (
	CallPending CallOutcome = "pending"
	CallSuccess CallOutcome = "success"
	CallError   CallOutcome = "error"
	CallTimeout CallOutcome = "timeout"
)

// AICallRecord is the durable audit entry for one external AI invocation.
// A record is created pending before the network call and updated exactly
// once to a terminal outcome afterwards; records are never deleted. The two
// writes commit independently so the pending row is visible while the call
// is in flight.
type AICallRecord struct {
	ID              uuid.UUID   `json:"id"`
	ServiceName     string      `json:"service_name"`
	UserID          uuid.UUID   `json:"user_id"`
	CycleID         uuid.UUID   `json:"cycle_id"`
	AssessmentID    *uuid.UUID  `json:"assessment_id,omitempty"`
	CareerPathID    *uuid.UUID  `json:"career_path_id,omitempty"`
	RequestPayload  []byte      `json:"request_payload"`
	ResponsePayload []byte      `json:"response_payload,omitempty"`
	Outcome         CallOutcome `json:"outcome"`
	ErrorMessage    string      `json:"error_message,omitempty"`
	LatencyMS       int64       `json:"latency_ms"`
	CreatedAt       time.Time   `json:"created_at"`
}
