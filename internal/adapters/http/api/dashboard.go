// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	service "github.com/tneacademy/vantage/internal/app"
)

// DashboardHandler handles dashboard view-model requests.
type DashboardHandler struct {
	deps Dependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps Dependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// HandleGetDashboard handles GET /dashboard requests. The bearer token
// identifies the session; budget_ms optionally caps how long assembly
// may block before a partial view-model is returned.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard"

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", NewKind(op, ErrBadRequest))
		return
	}

	token, ok := TokenFromContext(r.Context())
	if !ok || token == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrMissingBearer))
		return
	}

	budget, err := parseBudget(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	dashboard, err := h.deps.Dashboard(r.Context(), token, budget)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "unauthorized", err)
		case errors.Is(err, service.ErrNotStarted):
			writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}

// parseBudget reads the budget_ms query parameter. Absent means the
// service default applies; zero means wait for full assembly.
func parseBudget(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("budget_ms")
	if raw == "" {
		return -1, nil
	}
	ms, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("budget_ms must be an integer")
	}
	if ms < 0 {
		return 0, errors.New("budget_ms must not be negative")
	}
	return time.Duration(ms) * time.Millisecond, nil
}
