// Package transport provides the composable request pipeline for external
// AI services. A Handler processes one request; Middleware wraps handlers
// to layer cross-cutting behavior (retry, circuit breaking) around the core
// HTTP handler without the layers knowing about each other.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"talentcycle/internal/aiclient/aierrors"
)

// Request is one logical call to an external AI service. Payload is
// marshaled to JSON; Service names the dependency for breaker state,
// metrics, and audit records.
type Request struct {
	Service string
	Payload any
	Timeout time.Duration
}

// Response is the parsed transport result. Body holds the raw JSON
// response; Latency covers the HTTP round trip only.
type Response struct {
	StatusCode int
	Body       []byte
	Latency    time.Duration
}

// Handler processes AI requests through the composable middleware pipeline.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, *Request) (*Response, error)

// Handle implements the Handler interface.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware transforms a Handler into an enhanced Handler.
type Middleware func(Handler) Handler

// Chain builds a middleware pipeline around a core handler. Middleware
// executes in the order provided with the first middleware outermost, so
// Chain(core, breaker, retry) short-circuits at the breaker before any
// retry attempt runs.
func Chain(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// NewHTTPHandler creates the core handler that POSTs JSON requests to an
// AI service endpoint. Errors are classified into the aierrors taxonomy so
// the retry and breaker layers can tell transient failures from permanent
// ones.
func NewHTTPHandler(client *http.Client, baseURL, apiKey string) Handler {
	return &httpHandler{client: client, baseURL: baseURL, apiKey: apiKey}
}

type httpHandler struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func (h *httpHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	body, err := json.Marshal(req.Payload)
	if err != nil {
		return nil, &aierrors.ServiceError{
			Service: req.Service,
			Type:    aierrors.ErrorTypeValidation,
			Message: fmt.Sprintf("encode request: %v", err),
		}
	}

	reqCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, h.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, &aierrors.ServiceError{
			Service: req.Service,
			Type:    aierrors.ErrorTypeValidation,
			Message: fmt.Sprintf("build request: %v", err),
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	start := time.Now()
	httpResp, err := h.client.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return nil, classifyTransportError(req.Service, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &aierrors.ServiceError{
			Service: req.Service,
			Type:    aierrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("read response: %v", err),
		}
	}

	if httpResp.StatusCode >= 400 {
		return nil, classifyStatus(req.Service, httpResp.StatusCode, respBody)
	}

	return &Response{StatusCode: httpResp.StatusCode, Body: respBody, Latency: latency}, nil
}

// classifyTransportError maps connection-level failures to the error
// taxonomy. Deadline and net timeouts become timeout-class; everything
// else connection-shaped becomes network-class. Both are transient.
func classifyTransportError(service string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &aierrors.ServiceError{
			Service: service,
			Type:    aierrors.ErrorTypeTimeout,
			Message: "request timed out",
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &aierrors.ServiceError{
			Service: service,
			Type:    aierrors.ErrorTypeTimeout,
			Message: "request timed out",
		}
	}
	return &aierrors.ServiceError{
		Service: service,
		Type:    aierrors.ErrorTypeNetwork,
		Message: err.Error(),
	}
}

// classifyStatus maps HTTP status codes: 408/429/5xx are transient, other
// 4xx are validation-class and never retried.
func classifyStatus(service string, status int, body []byte) error {
	msg := fmt.Sprintf("status %d", status)
	if len(body) > 0 {
		const maxErrBody = 512
		if len(body) > maxErrBody {
			body = body[:maxErrBody]
		}
		msg = fmt.Sprintf("status %d: %s", status, body)
	}

	errType := aierrors.ErrorTypeValidation
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		errType = aierrors.ErrorTypeTimeout
	case status == http.StatusTooManyRequests:
		errType = aierrors.ErrorTypeRateLimit
	case status >= 500:
		errType = aierrors.ErrorTypeUnavailable
	}

	return &aierrors.ServiceError{
		Service:    service,
		StatusCode: status,
		Type:       errType,
		Message:    msg,
	}
}
