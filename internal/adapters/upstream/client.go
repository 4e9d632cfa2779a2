// Package upstream provides the typed client for the assessment platform API.
//
// Every call is a plain idempotent GET authenticated with the caller's
// bearer token. The client maps transport failures and non-success
// statuses onto this package's sentinel errors and leaves retry policy
// to the caller (there is none; reads are absorbed by the aggregator).
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tneacademy/vantage/internal/domain/model"
	"github.com/tneacademy/vantage/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout = 10 * time.Second
)

// Resource names used as metric labels and in wrapped errors.
const (
	ResourceUser        = "user"
	ResourceAssessments = "assessments"
	ResourceScores      = "scores"
	ResourceBenchmarks  = "benchmarks"
)

// Client is the read surface the aggregator consumes.
type Client interface {
	// CurrentUser resolves the identity behind the bearer token.
	CurrentUser(ctx context.Context, token string) (*model.User, error)

	// Assessments lists the institution's assessments in upstream order.
	Assessments(ctx context.Context, token string) ([]model.Assessment, error)

	// AssessmentScores fetches the score detail for one assessment.
	AssessmentScores(ctx context.Context, token, assessmentID string) (*model.ScoreReport, error)

	// CompareBenchmarks fetches the peer comparison for one assessment.
	CompareBenchmarks(ctx context.Context, token, assessmentID string) (*model.BenchmarkComparison, error)
}

// HTTPClient implements Client against a REST base URL such as
// "http://localhost:8000/api/v1".
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	userAgent string
}

// NewHTTPClient creates a client for the given API root with
// configuration options.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: "vantage",
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{Timeout: defaultTimeout}
	}

	return c
}

// CurrentUser resolves GET /users/me.
func (c *HTTPClient) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	if err := c.get(ctx, token, "/users/me", ResourceUser, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Assessments resolves GET /assessments.
func (c *HTTPClient) Assessments(ctx context.Context, token string) ([]model.Assessment, error) {
	var assessments []model.Assessment
	if err := c.get(ctx, token, "/assessments", ResourceAssessments, &assessments); err != nil {
		return nil, err
	}
	return assessments, nil
}

// AssessmentScores resolves GET /assessments/{id}/scores.
func (c *HTTPClient) AssessmentScores(ctx context.Context, token, assessmentID string) (*model.ScoreReport, error) {
	var report model.ScoreReport
	path := "/assessments/" + assessmentID + "/scores"
	if err := c.get(ctx, token, path, ResourceScores, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// CompareBenchmarks resolves GET /benchmarks/compare/{id}.
func (c *HTTPClient) CompareBenchmarks(ctx context.Context, token, assessmentID string) (*model.BenchmarkComparison, error) {
	var comparison model.BenchmarkComparison
	path := "/benchmarks/compare/" + assessmentID
	if err := c.get(ctx, token, path, ResourceBenchmarks, &comparison); err != nil {
		return nil, err
	}
	return &comparison, nil
}

// get performs one instrumented read and decodes the JSON body into out.
func (c *HTTPClient) get(ctx context.Context, token, path, resource string, out interface{}) error {
	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.RecordUpstreamRequest(resource, outcome)
		metrics.RecordUpstreamLatency(resource, float64(time.Since(start).Milliseconds()))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		outcome = "error"
		return fmt.Errorf("build %s request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		outcome = "transport_error"
		metrics.RecordErrorByComponent("upstream", "transport")
		return fmt.Errorf("%s read: %w", resource, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		outcome = "unauthorized"
		return fmt.Errorf("%s read: %w", resource, ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		outcome = "not_found"
		return fmt.Errorf("%s read: %w", resource, ErrNotFound)
	case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
		outcome = "status_error"
		metrics.RecordErrorByComponent("upstream", "status")
		return fmt.Errorf("%s read: %w: status %d", resource, ErrUpstreamStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		outcome = "decode_error"
		metrics.RecordErrorByComponent("upstream", "decode")
		return fmt.Errorf("%s read: %w: %w", resource, ErrDecodeResponse, err)
	}

	return nil
}
