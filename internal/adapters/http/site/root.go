// Package site serves the embedded landing page.
package site

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Error constants.
var (
	ErrGenerate = errors.New("site generation failed")
	ErrServe    = errors.New("site serve failed")
)

// Register attaches the embedded landing page to the router. Specific
// API routes keep precedence; the page answers only paths nothing else
// claimed.
func Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	files := http.FileServer(FS())
	r.Handle("/*", files)
}
