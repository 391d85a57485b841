// Package databricks implements a thin client for submitting and monitoring
// one-time job runs on a Databricks workspace.
package databricks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwsmith1983/brickgate/internal/metrics"
	"github.com/dwsmith1983/brickgate/pkg/version"
)

const apiPrefix = "/api/2.1"

var defaultHTTPClient = &http.Client{Timeout: 60 * time.Second}

// Client is an explicitly constructed handle to one Databricks workspace.
// It is constructed once, reused, and holds no process-global state.
type Client struct {
	host       string
	token      string
	httpClient *http.Client
	userAgent  string
	breaker    *gobreaker.CircuitBreaker
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithUserAgentSuffix appends an extra token to the User-Agent header, so
// callers embedding the client can identify themselves alongside brickgate.
func WithUserAgentSuffix(suffix string) Option {
	return func(cl *Client) {
		if suffix != "" {
			cl.userAgent = cl.userAgent + " " + suffix
		}
	}
}

// WithBreakerSettings overrides the circuit breaker guarding API calls.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(cl *Client) { cl.breaker = newBreaker(st) }
}

// NewClient creates a Client for the given workspace host and access token.
func NewClient(host, token string, opts ...Option) (*Client, error) {
	if host == "" {
		return nil, fmt.Errorf("databricks: workspace host is required")
	}
	if token == "" {
		return nil, fmt.Errorf("databricks: access token is required")
	}

	c := &Client{
		host:       strings.TrimRight(host, "/"),
		token:      token,
		httpClient: defaultHTTPClient,
		userAgent:  version.UserAgent(),
		tracer:     otel.Tracer("brickgate/databricks"),
	}
	for _, o := range opts {
		o(c)
	}
	if c.breaker == nil {
		c.breaker = newBreaker(gobreaker.Settings{Name: "databricks-api"})
	}
	return c, nil
}

func newBreaker(st gobreaker.Settings) *gobreaker.CircuitBreaker {
	if st.Name == "" {
		st.Name = "databricks-api"
	}
	if st.OnStateChange == nil {
		st.OnStateChange = func(_ string, _, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				metrics.BreakerOpens.Add(1)
			}
		}
	}
	return gobreaker.NewCircuitBreaker(st)
}

// SubmitRun submits a one-time job run and returns the assigned run ID.
func (c *Client) SubmitRun(ctx context.Context, req *SubmitRunRequest) (int64, error) {
	if req == nil || len(req.Tasks) == 0 {
		return 0, fmt.Errorf("databricks submit: at least one task is required")
	}

	ctx, span := c.tracer.Start(ctx, "databricks.SubmitRun",
		trace.WithAttributes(attribute.String("databricks.run_name", req.RunName)))
	defer span.End()

	metrics.SubmitsTotal.Add(1)

	var resp SubmitRunResponse
	if err := c.do(ctx, http.MethodPost, "/jobs/runs/submit", nil, req, &resp); err != nil {
		metrics.SubmitFailures.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return 0, fmt.Errorf("databricks submit: %w", err)
	}
	if resp.RunID == 0 {
		metrics.SubmitFailures.Add(1)
		return 0, fmt.Errorf("databricks submit: response missing run_id")
	}

	span.SetAttributes(attribute.Int64("databricks.run_id", resp.RunID))
	return resp.RunID, nil
}

// GetRun fetches the current state of a run.
func (c *Client) GetRun(ctx context.Context, runID int64) (*Run, error) {
	ctx, span := c.tracer.Start(ctx, "databricks.GetRun",
		trace.WithAttributes(attribute.Int64("databricks.run_id", runID)))
	defer span.End()

	metrics.PollsTotal.Add(1)

	query := url.Values{"run_id": []string{strconv.FormatInt(runID, 10)}}
	var run Run
	if err := c.do(ctx, http.MethodGet, "/jobs/runs/get", query, nil, &run); err != nil {
		metrics.PollFailures.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "status check failed")
		return nil, fmt.Errorf("databricks status: %w", err)
	}
	return &run, nil
}

// CancelRun asks the service to cancel a run. Cancellation is asynchronous;
// the run transitions to TERMINATED with result state CANCELED once done.
func (c *Client) CancelRun(ctx context.Context, runID int64) error {
	ctx, span := c.tracer.Start(ctx, "databricks.CancelRun",
		trace.WithAttributes(attribute.Int64("databricks.run_id", runID)))
	defer span.End()

	metrics.CancelsTotal.Add(1)

	body := map[string]int64{"run_id": runID}
	if err := c.do(ctx, http.MethodPost, "/jobs/runs/cancel", nil, body, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cancel failed")
		return fmt.Errorf("databricks cancel: %w", err)
	}
	return nil
}

// do performs one API request through the circuit breaker.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.doOnce(ctx, method, path, query, body, out)
	})
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.host + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var parsed struct {
			ErrorCode string `json:"error_code"`
			Message   string `json:"message"`
		}
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Message != "" {
			apiErr.ErrorCode = parsed.ErrorCode
			apiErr.Message = parsed.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}
