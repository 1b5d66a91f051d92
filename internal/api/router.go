// Package api exposes the monitor over HTTP for hosts that run it as a
// sidecar instead of embedding it. The hook endpoints mirror the host
// runtime's lifecycle: before (may block), after (telemetry only), intent
// (canonical intent registration), plus explicit session clearing and the
// standalone scan surface.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/triage-ai/sentinel/internal/monitor"
	"github.com/triage-ai/sentinel/internal/store"
	"go.uber.org/zap"
)

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Monitor  *monitor.Monitor
	Store    *store.Store // nil disables auth (local development)
	Logger   *zap.Logger
	CacheTTL time.Duration

	cacheOnce sync.Once
	cache     *authCache
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Lifecycle hooks (auth required via Bearer snt_ token)
	mux.HandleFunc("POST /v1/hooks/before", deps.authMiddleware(deps.handleBefore))
	mux.HandleFunc("POST /v1/hooks/after", deps.authMiddleware(deps.handleAfter))
	mux.HandleFunc("POST /v1/hooks/intent", deps.authMiddleware(deps.handleIntent))

	// Explicit session clearing (end-of-conversation signal from the host)
	mux.HandleFunc("DELETE /v1/sessions/{session_key}", deps.authMiddleware(deps.handleClearSession))

	// Stateless scanner/redactor
	mux.HandleFunc("POST /v1/scan", deps.authMiddleware(deps.handleScan))

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
