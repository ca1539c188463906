// Package retry provides bounded exponential-backoff retries for AI calls.
// Only transient-class failures are retried; validation failures and
// breaker rejections pass through on the first attempt. Backoff waits
// suspend only the calling goroutine, never other in-flight pipelines.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"talentcycle/internal/aiclient/aierrors"
	"talentcycle/internal/aiclient/transport"
	"talentcycle/pkg/logger"
	"talentcycle/pkg/metrics"
)

// Configuration validation errors.
var (
	errMaxAttemptsInvalid     = errors.New("max attempts must be greater than 0")
	errInitialIntervalInvalid = errors.New("initial interval must be greater than 0")
	errMultiplierInvalid      = errors.New("multiplier must be >= 1.0")

	errContextCancelled = errors.New("context cancelled during retry backoff")
)

// Config holds the retry policy parameters.
type Config struct {
	// MaxAttempts is the total attempt count including the first call.
	MaxAttempts int `koanf:"max_attempts" json:"max_attempts"`
	// InitialInterval is the delay before the second attempt.
	InitialInterval time.Duration `koanf:"initial_interval" json:"initial_interval"`
	// Multiplier scales the delay for each subsequent attempt.
	Multiplier float64 `koanf:"multiplier" json:"multiplier"`
	// MaxInterval caps the computed delay. Zero means uncapped.
	MaxInterval time.Duration `koanf:"max_interval" json:"max_interval"`
	// UseJitter randomizes each delay in (0, delay] to spread retries.
	// Disabled in tests that assert exact delays.
	UseJitter bool `koanf:"use_jitter" json:"use_jitter"`
}

// DefaultConfig mirrors the product defaults: four total attempts starting
// at one second, doubling each time.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     4,
		InitialInterval: time.Second,
		Multiplier:      2.0,
		MaxInterval:     time.Minute,
		UseJitter:       true,
	}
}

// ExhaustedError wraps the last failure after the attempt budget ran out.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// NewMiddleware validates the configuration and returns retry middleware.
func NewMiddleware(cfg Config, log *logger.Logger) (transport.Middleware, error) {
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("%w, got %d", errMaxAttemptsInvalid, cfg.MaxAttempts)
	}
	if cfg.InitialInterval <= 0 {
		return nil, fmt.Errorf("%w, got %v", errInitialIntervalInvalid, cfg.InitialInterval)
	}
	if cfg.Multiplier < 1.0 {
		return nil, fmt.Errorf("%w, got %f", errMultiplierInvalid, cfg.Multiplier)
	}

	rm := &retryMiddleware{config: cfg, log: log.With("component", "retry")}
	return rm.middleware(), nil
}

type retryMiddleware struct {
	config Config
	log    *logger.Logger
}

func (r *retryMiddleware) middleware() transport.Middleware {
	return func(next transport.Handler) transport.Handler {
		return transport.HandlerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			var lastErr error

			for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
				metrics.ObserveRetryAttempt(req.Service)

				resp, err := next.Handle(ctx, req)
				if err == nil {
					if attempt > 1 {
						r.log.Info("call succeeded after retry",
							"service", req.Service,
							"attempt", attempt)
					}
					return resp, nil
				}

				if !aierrors.IsRetryable(err) {
					r.log.Debug("non-retryable error",
						"service", req.Service,
						"attempt", attempt,
						"error", err)
					return nil, err
				}

				lastErr = err
				if attempt == r.config.MaxAttempts {
					break
				}

				backoff := Backoff(attempt, r.config)
				r.log.Warn("retrying after backoff",
					"service", req.Service,
					"attempt", attempt,
					"backoff", backoff,
					"error", err)

				select {
				case <-time.After(backoff):
				case <-ctx.Done():
					return nil, fmt.Errorf("%w: %w", errContextCancelled, ctx.Err())
				}
			}

			return nil, &ExhaustedError{Attempts: r.config.MaxAttempts, Last: lastErr}
		})
	}
}

// Backoff computes the delay after the given attempt number (1-based):
// initial * multiplier^(attempt-1), capped at MaxInterval, with optional
// full jitter.
func Backoff(attempt int, cfg Config) time.Duration {
	if attempt <= 0 {
		return 0
	}

	backoff := cfg.InitialInterval
	for i := 1; i < attempt; i++ {
		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if cfg.MaxInterval > 0 && backoff > cfg.MaxInterval {
			backoff = cfg.MaxInterval
			break
		}
	}

	if cfg.UseJitter && backoff > 0 {
		// Full jitter keeps concurrent retries from synchronizing.
		backoff = time.Duration(rand.Int64N(int64(backoff)) + 1)
	}

	return backoff
}
