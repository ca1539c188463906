// Package circuitbreaker protects AI services from repeated calls while
// they are failing. Each service gets its own breaker: tripping the skills
// service never blocks career path calls.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"talentcycle/internal/aiclient/aierrors"
	"talentcycle/internal/aiclient/transport"
	"talentcycle/pkg/logger"
	"talentcycle/pkg/metrics"
)

var (
	errThresholdInvalid   = errors.New("failure threshold must be greater than 0")
	errOpenTimeoutInvalid = errors.New("open timeout must be greater than 0")
)

// State is the breaker's position in its state machine.
type State int32

const (
	// StateClosed allows requests through and counts consecutive failures.
	StateClosed State = iota
	// StateOpen rejects all requests until the open timeout elapses.
	StateOpen
	// StateHalfOpen admits a single probe to test recovery.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds the breaker thresholds.
type Config struct {
	// FailureThreshold is the count of consecutive failures that opens the
	// breaker from the closed state.
	FailureThreshold int `koanf:"failure_threshold" json:"failure_threshold"`
	// OpenTimeout is how long the breaker stays open before admitting a
	// half-open probe.
	OpenTimeout time.Duration `koanf:"open_timeout" json:"open_timeout"`
}

// DefaultConfig returns the product defaults: trip after five consecutive
// failures, stay open for a minute.
func DefaultConfig() Config {
	return Config{FailureThreshold: 5, OpenTimeout: time.Minute}
}

// Breaker is a per-service circuit breaker. State transitions use atomic
// compare-and-swap so concurrent callers agree on a single transition.
type Breaker struct {
	state         atomic.Int32
	failures      atomic.Int32
	openedAt      atomic.Int64
	probeInFlight atomic.Bool

	service          string
	failureThreshold int
	openTimeout      time.Duration

	log *logger.Logger
}

// New creates a breaker for the named service.
func New(service string, cfg Config, log *logger.Logger) (*Breaker, error) {
	if cfg.FailureThreshold <= 0 {
		return nil, fmt.Errorf("%w, got %d", errThresholdInvalid, cfg.FailureThreshold)
	}
	if cfg.OpenTimeout <= 0 {
		return nil, fmt.Errorf("%w, got %v", errOpenTimeoutInvalid, cfg.OpenTimeout)
	}

	b := &Breaker{
		service:          service,
		failureThreshold: cfg.FailureThreshold,
		openTimeout:      cfg.OpenTimeout,
		log:              log.With("component", "circuitbreaker", "service", service),
	}
	b.state.Store(int32(StateClosed))
	return b, nil
}

// State returns the breaker's current state.
func (b *Breaker) State() State { return State(b.state.Load()) }

// Allow reports whether a request may proceed. When it returns a non-nil
// release function the caller must invoke it after reporting the outcome;
// it frees the half-open probe slot.
func (b *Breaker) Allow() (release func(), err error) {
	switch State(b.state.Load()) {
	case StateClosed:
		return func() {}, nil

	case StateOpen:
		openedAt := time.Unix(0, b.openedAt.Load())
		retryAt := openedAt.Add(b.openTimeout)
		if time.Now().Before(retryAt) {
			return nil, &aierrors.CircuitBreakerError{
				Service: b.service,
				State:   StateOpen.String(),
				RetryAt: retryAt,
			}
		}
		b.transitionTo(StateOpen, StateHalfOpen)
		return b.acquireProbe()

	case StateHalfOpen:
		return b.acquireProbe()

	default:
		return nil, &aierrors.CircuitBreakerError{Service: b.service, State: "unknown"}
	}
}

// acquireProbe claims the single half-open probe slot. Concurrent callers
// that lose the race are rejected as if the breaker were still open.
func (b *Breaker) acquireProbe() (func(), error) {
	if !b.probeInFlight.CompareAndSwap(false, true) {
		return nil, &aierrors.CircuitBreakerError{
			Service: b.service,
			State:   StateHalfOpen.String(),
			RetryAt: time.Unix(0, b.openedAt.Load()).Add(b.openTimeout),
		}
	}
	return func() { b.probeInFlight.Store(false) }, nil
}

// RecordSuccess resets the failure count and, after a successful half-open
// probe, closes the breaker.
func (b *Breaker) RecordSuccess() {
	for {
		state := State(b.state.Load())
		switch state {
		case StateClosed:
			b.failures.Store(0)
			return

		case StateHalfOpen:
			if b.transitionTo(StateHalfOpen, StateClosed) {
				return
			}
			// Lost the race with another transition; re-read.

		case StateOpen:
			// A success landed after the breaker opened (in-flight call
			// that started before the trip). Leave the state alone.
			return
		}
	}
}

// RecordFailure counts a failure. In the closed state it opens the breaker
// once the threshold is reached; a failed half-open probe reopens it
// immediately.
func (b *Breaker) RecordFailure() {
	for {
		state := State(b.state.Load())
		switch state {
		case StateClosed:
			failures := b.failures.Add(1)
			if int(failures) < b.failureThreshold {
				return
			}
			if b.transitionTo(StateClosed, StateOpen) {
				return
			}

		case StateHalfOpen:
			if b.transitionTo(StateHalfOpen, StateOpen) {
				return
			}

		case StateOpen:
			// A straggler from a call that started before the trip. The
			// open window runs from the transition, so the timestamp stays.
			return
		}
	}
}

// transitionTo moves from one state to another via CAS, resetting counters
// on success. The open-window timestamp is stamped here so only the winning
// transition starts the clock. Returns false if another goroutine
// transitioned first.
func (b *Breaker) transitionTo(from, to State) bool {
	if !b.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	if to == StateOpen {
		b.openedAt.Store(time.Now().UnixNano())
	}
	b.failures.Store(0)
	b.probeInFlight.Store(false)
	metrics.ObserveBreakerTransition(b.service, to.String())
	b.log.Info("circuit breaker state transition",
		"from", from.String(),
		"to", to.String())
	return true
}

// Middleware wraps a handler with the breaker. It sits outside the retry
// layer so an open breaker rejects calls before any retry budget is spent;
// a call that exhausts its retries counts as one failure.
func Middleware(b *Breaker) transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			release, err := b.Allow()
			if err != nil {
				return nil, err
			}
			defer release()

			resp, err := next.Handle(ctx, req)
			if err != nil {
				b.RecordFailure()
				return nil, err
			}
			b.RecordSuccess()
			return resp, nil
		})
	}
}
