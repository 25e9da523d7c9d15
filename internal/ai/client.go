// Package ai calls the external analysis microservice. The service is an
// opaque remote function: every call carries a bounded timeout, and any
// failure surfaces as ErrUnavailable rather than a domain error.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"medvault.org/internal/obs"
)

const (
	defaultTimeout   = 10 * time.Second
	summaryMaxLen    = 250
	endpointAnalyze  = "/ocr/analyze-report"
	endpointChat     = "/chat"
	endpointSymptoms = "/predict/symptoms"
)

// ErrUnavailable indicates the analysis service could not be reached or
// returned a non-success response. Distinct from NotFound by design.
var ErrUnavailable = errors.New("ai: analysis service unavailable")

// RequestLogStore persists a best-effort trace of outbound calls.
type RequestLogStore interface {
	AppendRequestLog(ctx context.Context, entry *RequestLog) error
}

// Client is an HTTP client for the analysis service.
type Client struct {
	baseURL string
	http    *http.Client
	logs    RequestLogStore
	now     func() time.Time
}

// ClientOption configures Client behavior.
type ClientOption func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ClientOption {
	return func(c *Client) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewClient constructs a Client. logs may be nil to disable call tracing.
func NewClient(baseURL string, logs RequestLogStore, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logs:    logs,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnalyzeReport runs OCR analysis over a stored medical report.
func (c *Client) AnalyzeReport(ctx context.Context, reportID string) (map[string]any, error) {
	return c.call(ctx, endpointAnalyze, map[string]any{"report_id": reportID})
}

// ChatAnswer is the normalized chat response shape.
type ChatAnswer struct {
	Response     string `json:"response"`
	Citations    []any  `json:"citations"`
	SafetyBanner string `json:"safetyBanner"`
}

// Chat asks the analysis service a question in the context of a patient.
func (c *Client) Chat(ctx context.Context, patientID, question string) (*ChatAnswer, error) {
	raw, err := c.call(ctx, endpointChat, map[string]any{
		"patient_id": patientID,
		"question":   question,
	})
	if err != nil {
		return nil, err
	}

	answer := &ChatAnswer{
		Response:  "I'm sorry, I couldn't process that request.",
		Citations: []any{},
	}
	if v, ok := raw["answer"].(string); ok && v != "" {
		answer.Response = v
	}
	if v, ok := raw["citations"].([]any); ok {
		answer.Citations = v
	}
	if v, ok := raw["safety_banner"].(string); ok {
		answer.SafetyBanner = v
	}
	return answer, nil
}

// PredictSymptoms requests a risk prediction from symptoms plus optional
// demographics and vitals.
func (c *Client) PredictSymptoms(ctx context.Context, symptoms []string, demographics, vitals map[string]any) (map[string]any, error) {
	if demographics == nil {
		demographics = map[string]any{}
	}
	if vitals == nil {
		vitals = map[string]any{}
	}
	return c.call(ctx, endpointSymptoms, map[string]any{
		"symptoms":     symptoms,
		"demographics": demographics,
		"vitals":       vitals,
	})
}

func (c *Client) call(ctx context.Context, path string, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ai: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ai: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.appendLog(ctx, path, StatusError, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		c.appendLog(ctx, path, StatusError, msg)
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		c.appendLog(ctx, path, StatusError, err.Error())
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		c.appendLog(ctx, path, StatusError, err.Error())
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	c.appendLog(ctx, path, StatusSuccess, string(data))
	obs.DocumentsAnalyzed.Inc()
	return result, nil
}

// appendLog traces the call best-effort; a failing log store never fails
// the caller.
func (c *Client) appendLog(ctx context.Context, requestType, status, summary string) {
	if c.logs == nil {
		return
	}
	if len(summary) > summaryMaxLen {
		summary = summary[:summaryMaxLen]
	}
	entry := &RequestLog{
		RequestType:     requestType,
		Status:          status,
		ResponseSummary: summary,
		CreatedAt:       c.now().UTC(),
	}
	if err := c.logs.AppendRequestLog(ctx, entry); err != nil {
		logger := obs.Logger()
		logger.Warn().Err(err).Str("request_type", requestType).Msg("ai request log write failed")
	}
}
