package dashtest

import (
	"time"

	"github.com/tneacademy/vantage/internal/domain/model"
)

// Config holds configuration for the dashboard exercise run
type Config struct {
	BaseURL     string        // Base URL of the aggregator
	UpstreamURL string        // Base URL of the assessment platform API, used for login
	Email       string        // Login email when no token is supplied
	Password    string        // Login password when no token is supplied
	Token       string        // Pre-issued access token; skips login when set
	Iterations  int           // Dashboard fetches per worker
	Workers     int           // Number of concurrent workers
	BudgetMS    int           // budget_ms sent with sampled fetches; -1 omits the parameter
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for the run report
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// LoginResponse is the token grant returned by the platform login.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Sample is one observed dashboard fetch.
type Sample struct {
	Dashboard *model.Dashboard `json:"dashboard,omitempty"`
	Status    int              `json:"status"`
	ElapsedMS int64            `json:"elapsed_ms"`
	Partial   bool             `json:"partial"`
	Err       string           `json:"error,omitempty"`
}

// Stats holds run statistics
type Stats struct {
	DashboardsRequested int
	DashboardsRetrieved int
	DashboardsPartial   int
	DashboardsFailed    int
	SourceFailures      int
	VerifyWarnings      int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
