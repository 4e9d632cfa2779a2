// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tneacademy/vantage/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Dashboard assembles the view-model for the session behind token.
	// A negative budget applies the service's configured default budget.
	Dashboard(ctx context.Context, token string, budget time.Duration) (*model.Dashboard, error)
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	dashboardHandler *DashboardHandler
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	jwtSecret        string
}

// NewServer creates a new API server with all handlers. A non-empty
// jwtSecret enables local HS256 verification of bearer tokens; empty
// leaves verification to the upstream API.
func NewServer(deps Dependencies, statsProvider StatsProvider, jwtSecret string) *Server {
	return &Server{
		dashboardHandler: NewDashboardHandler(deps),
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		jwtSecret:        jwtSecret,
	}
}

// Register attaches all HTTP routes to the router.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/dashboard", MetricsMiddleware(
		BearerMiddleware(s.jwtSecret, s.dashboardHandler.HandleGetDashboard),
		"dashboard",
	))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
