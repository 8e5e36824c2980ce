// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/elphin/memorylane-sub000/internal/auth"
	"github.com/elphin/memorylane-sub000/internal/metrics"
	"github.com/elphin/memorylane-sub000/internal/rebuild"
	"github.com/elphin/memorylane-sub000/internal/tools"
)

// HTTPServer serves the metrics and health endpoints in serve mode
type HTTPServer struct {
	engine *rebuild.Engine
	logger *slog.Logger
	auth   *auth.Middleware
	srv    *http.Server
}

// NewHTTPServer creates the side-channel HTTP server listening on addr.
// A non-empty token is required as a bearer token on every route.
func NewHTTPServer(addr, token string, engine *rebuild.Engine, logger *slog.Logger) *HTTPServer {
	h := &HTTPServer{engine: engine, logger: logger, auth: auth.NewMiddleware(token)}
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	h.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return h
}

// RegisterRoutes registers all HTTP routes
func (h *HTTPServer) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/metrics", h.auth.RequireAuth(metrics.Handler()))
	mux.Handle("/healthz", h.auth.RequireAuth(http.HandlerFunc(h.HandleHealth)))
}

// HandleHealth reports index counts and whether a rebuild is due
func (h *HTTPServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st, err := tools.GetStatus(r.Context(), h.engine)
	if err != nil {
		http.Error(w, "index unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	body := map[string]interface{}{
		"root":          st.Root,
		"years":         st.Counts.Years,
		"events":        st.Counts.Events,
		"items":         st.Counts.Items,
		"needs_rebuild": st.NeedsRebuild,
	}
	if st.LastRebuild != nil {
		body["last_rebuild"] = st.LastRebuild.Format(time.RFC3339)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// Start listens in the background until Shutdown
func (h *HTTPServer) Start() {
	go func() {
		h.logger.Info("metrics endpoint listening", "addr", h.srv.Addr, "auth", h.auth.Enabled())
		if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("metrics endpoint stopped", "error", err)
		}
	}()
}

// Shutdown stops the server
func (h *HTTPServer) Shutdown(ctx context.Context) error {
	return h.srv.Shutdown(ctx)
}
