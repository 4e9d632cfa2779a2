// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tneacademy/vantage/pkg/metrics"
)

type contextKey string

const (
	ctxKeyToken     contextKey = "bearerToken"
	ctxKeyClaims    contextKey = "bearerClaims"
	ctxKeyRequestID contextKey = "requestID"
)

// HTTP status code constants.
const (
	statusBadRequest    = 400
	statusUnauthorized  = 401
	statusInternalError = 500
)

// TokenFromContext returns the bearer token stashed by BearerMiddleware.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(ctxKeyToken).(string)
	return token, ok
}

// ClaimsFromContext returns the token claims parsed by BearerMiddleware.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(ctxKeyClaims).(jwt.MapClaims)
	return claims, ok
}

// RequestIDFromContext returns the id assigned by RequestIDMiddleware.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKeyRequestID).(string)
	return id, ok
}

// RequestIDMiddleware tags every request with an id for log correlation.
// An incoming X-Request-Id header is honored so proxies stay correlated.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerMiddleware extracts the bearer token and stashes it, together
// with its claims, in the request context. With a non-empty secret the
// token signature is verified locally; otherwise claims are decoded
// unverified and the upstream API stays the authority on the session.
func BearerMiddleware(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "api.bearer"

		header := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == header || token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrMissingBearer))
			return
		}

		claims := jwt.MapClaims{}
		if secret != "" {
			_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", WrapKind(op, ErrInvalidToken, err))
				return
			}
		} else {
			// Claims are informational here; decode errors leave them empty.
			_, _, _ = jwt.NewParser().ParseUnverified(token, claims)
		}

		ctx := context.WithValue(r.Context(), ctxKeyToken, token)
		ctx = context.WithValue(ctx, ctxKeyClaims, claims)
		next(w, r.WithContext(ctx))
	}
}

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		statusCodeStr := strconv.Itoa(wrapped.statusCode)

		metrics.RecordHTTPRequest(endpoint, r.Method, statusCodeStr)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, statusCodeStr, durationMs)

		if wrapped.statusCode >= statusBadRequest {
			errorType := getErrorType(wrapped.statusCode)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
			metrics.RecordErrorByComponent("http", errorType)
		}
	}
}

// getErrorType returns a standardized error class for an HTTP status code.
func getErrorType(statusCode int) string {
	switch {
	case statusCode >= statusInternalError:
		return "server_error"
	case statusCode == statusUnauthorized:
		return "unauthorized"
	case statusCode >= statusBadRequest:
		return "client_error"
	default:
		return "unknown"
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
