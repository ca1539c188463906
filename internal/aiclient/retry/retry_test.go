package retry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentcycle/internal/aiclient/aierrors"
	"talentcycle/internal/aiclient/retry"
	"talentcycle/internal/aiclient/transport"
	"talentcycle/pkg/logger"
)

func fastConfig(maxAttempts int) retry.Config {
	return retry.Config{
		MaxAttempts:     maxAttempts,
		InitialInterval: time.Millisecond,
		Multiplier:      2.0,
		MaxInterval:     10 * time.Millisecond,
	}
}

func countingHandler(calls *int, err error) transport.Handler {
	return transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
		*calls++
		if err != nil {
			return nil, err
		}
		return &transport.Response{StatusCode: 200}, nil
	})
}

func TestNewMiddleware_ConfigValidation(t *testing.T) {
	log := logger.NewNop()

	tests := []struct {
		name string
		cfg  retry.Config
	}{
		{"zero attempts", retry.Config{MaxAttempts: 0, InitialInterval: time.Second, Multiplier: 2}},
		{"zero interval", retry.Config{MaxAttempts: 3, InitialInterval: 0, Multiplier: 2}},
		{"multiplier below one", retry.Config{MaxAttempts: 3, InitialInterval: time.Second, Multiplier: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := retry.NewMiddleware(tt.cfg, log)
			assert.Error(t, err)
		})
	}
}

func TestMiddleware_NoRetryOnSuccess(t *testing.T) {
	mw, err := retry.NewMiddleware(fastConfig(3), logger.NewNop())
	require.NoError(t, err)

	calls := 0
	handler := mw(countingHandler(&calls, nil))

	resp, err := handler.Handle(context.Background(), &transport.Request{Service: "test"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestMiddleware_ValidationErrorNotRetried(t *testing.T) {
	mw, err := retry.NewMiddleware(fastConfig(4), logger.NewNop())
	require.NoError(t, err)

	calls := 0
	validationErr := &aierrors.ServiceError{
		Service: "test",
		Type:    aierrors.ErrorTypeValidation,
		Message: "bad request",
	}
	handler := mw(countingHandler(&calls, validationErr))

	_, err = handler.Handle(context.Background(), &transport.Request{Service: "test"})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "validation errors must fail on the first attempt")

	var svcErr *aierrors.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, aierrors.ErrorTypeValidation, svcErr.Type)
}

func TestMiddleware_CircuitOpenNotRetried(t *testing.T) {
	mw, err := retry.NewMiddleware(fastConfig(4), logger.NewNop())
	require.NoError(t, err)

	calls := 0
	handler := mw(countingHandler(&calls, &aierrors.CircuitBreakerError{Service: "test", State: "open"}))

	_, err = handler.Handle(context.Background(), &transport.Request{Service: "test"})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "breaker rejections must not consume retry budget")
}

func TestMiddleware_TransientErrorRetriedToExhaustion(t *testing.T) {
	mw, err := retry.NewMiddleware(fastConfig(3), logger.NewNop())
	require.NoError(t, err)

	calls := 0
	transient := &aierrors.ServiceError{
		Service:    "test",
		StatusCode: 503,
		Type:       aierrors.ErrorTypeUnavailable,
		Message:    "down",
	}
	handler := mw(countingHandler(&calls, transient))

	_, err = handler.Handle(context.Background(), &transport.Request{Service: "test"})
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, transient)
}

func TestMiddleware_RecoversMidway(t *testing.T) {
	mw, err := retry.NewMiddleware(fastConfig(5), logger.NewNop())
	require.NoError(t, err)

	calls := 0
	handler := mw(transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
		calls++
		if calls < 3 {
			return nil, &aierrors.ServiceError{Service: "test", Type: aierrors.ErrorTypeTimeout, Message: "slow"}
		}
		return &transport.Response{StatusCode: 200}, nil
	}))

	resp, err := handler.Handle(context.Background(), &transport.Request{Service: "test"})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestMiddleware_ContextCancelledDuringBackoff(t *testing.T) {
	cfg := retry.Config{
		MaxAttempts:     3,
		InitialInterval: time.Hour,
		Multiplier:      2.0,
	}
	mw, err := retry.NewMiddleware(cfg, logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	handler := mw(transport.HandlerFunc(func(_ context.Context, _ *transport.Request) (*transport.Response, error) {
		calls++
		cancel()
		return nil, &aierrors.ServiceError{Service: "test", Type: aierrors.ErrorTypeNetwork, Message: "refused"}
	}))

	_, err = handler.Handle(ctx, &transport.Request{Service: "test"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoff_StrictlyIncreasingWithoutJitter(t *testing.T) {
	cfg := retry.Config{
		MaxAttempts:     5,
		InitialInterval: 100 * time.Millisecond,
		Multiplier:      2.0,
		MaxInterval:     time.Hour,
		UseJitter:       false,
	}

	assert.Equal(t, 100*time.Millisecond, retry.Backoff(1, cfg))
	assert.Equal(t, 200*time.Millisecond, retry.Backoff(2, cfg))
	assert.Equal(t, 400*time.Millisecond, retry.Backoff(3, cfg))
	assert.Equal(t, 800*time.Millisecond, retry.Backoff(4, cfg))
}

func TestBackoff_CappedAtMaxInterval(t *testing.T) {
	cfg := retry.Config{
		MaxAttempts:     10,
		InitialInterval: time.Second,
		Multiplier:      10.0,
		MaxInterval:     5 * time.Second,
		UseJitter:       false,
	}

	assert.Equal(t, 5*time.Second, retry.Backoff(3, cfg))
	assert.Equal(t, 5*time.Second, retry.Backoff(8, cfg))
}

func TestBackoff_JitterStaysWithinBound(t *testing.T) {
	cfg := retry.Config{
		MaxAttempts:     3,
		InitialInterval: 50 * time.Millisecond,
		Multiplier:      2.0,
		UseJitter:       true,
	}

	for range 100 {
		d := retry.Backoff(2, cfg)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 100*time.Millisecond)
	}
}
