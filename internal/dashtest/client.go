package dashtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tneacademy/vantage/internal/domain/model"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request with an optional bearer token.
func (c *HTTPClient) Get(ctx context.Context, rawURL, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, rawURL string, body interface{}) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// login obtains an access token from the assessment platform.
func login(ctx context.Context, client *HTTPClient, upstreamURL, email, password string) (string, error) {
	loginURL := upstreamURL + "/auth/login"

	resp, err := client.Post(ctx, loginURL, map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "", fmt.Errorf("failed to read login response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return "", fmt.Errorf("login failed with HTTP %d: %s", resp.StatusCode, string(body))
	}

	var grant LoginResponse
	if err := unmarshalJSON(body, &grant); err != nil {
		return "", fmt.Errorf("failed to parse login response: %w", err)
	}
	if grant.AccessToken == "" {
		return "", fmt.Errorf("login response carried no access token")
	}

	return grant.AccessToken, nil
}

// fetchDashboard retrieves one dashboard sample. budgetMS < 0 omits the
// budget parameter so the service default applies.
func fetchDashboard(ctx context.Context, client *HTTPClient, baseURL, token string, budgetMS int) Sample {
	dashURL := baseURL + "/dashboard"
	if budgetMS >= 0 {
		q := url.Values{}
		q.Set("budget_ms", strconv.Itoa(budgetMS))
		dashURL += "?" + q.Encode()
	}

	start := time.Now()
	resp, err := client.Get(ctx, dashURL, token)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return Sample{Status: 0, ElapsedMS: elapsed, Err: err.Error()}
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Sample{Status: resp.StatusCode, ElapsedMS: elapsed, Err: err.Error()}
	}

	if resp.StatusCode != StatusOK {
		return Sample{Status: resp.StatusCode, ElapsedMS: elapsed, Err: string(body)}
	}

	var d model.Dashboard
	if err := unmarshalJSON(body, &d); err != nil {
		return Sample{Status: resp.StatusCode, ElapsedMS: elapsed, Err: "failed to parse dashboard: " + err.Error()}
	}

	return Sample{
		Dashboard: &d,
		Status:    resp.StatusCode,
		ElapsedMS: elapsed,
		Partial:   d.Loading.Any(),
	}
}

// checkHealth verifies the aggregator answers its health endpoint.
func checkHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	resp, err := client.Get(ctx, baseURL+"/healthz", "")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}
