package upstream

import (
	"net/http"
	"time"
)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout sets the per-request timeout. It is ignored when a custom
// HTTP client was supplied.
func WithTimeout(timeout time.Duration) Option {
	return func(c *HTTPClient) {
		if timeout > 0 && c.client == nil {
			c.client = &http.Client{Timeout: timeout}
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(userAgent string) Option {
	return func(c *HTTPClient) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}
