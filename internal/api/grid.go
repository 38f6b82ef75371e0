package api

import (
	"context"
	"net/http"
	"time"
)

// gridRefreshTimeout bounds a full-grid refresh. Bridges refresh
// concurrently, so the budget covers the slowest bridge rather than the
// sum of all of them.
const gridRefreshTimeout = 30 * time.Second

// handleGetGrid returns the aggregate view of every bridge with its
// cached lamps and groups. Unrefreshed bridges appear with empty slices
// and a null refreshed_at.
func (s *Server) handleGetGrid(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.coordinator.ListGrid())
}

// handleRefreshGrid refreshes every bridge and returns the resulting
// view. A bridge that fails to refresh is marked unreachable but does
// not fail the request; "complete" tells the caller whether every
// bridge answered.
func (s *Server) handleRefreshGrid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), gridRefreshTimeout)
	defer cancel()

	err := s.coordinator.RefreshAll(ctx)
	if err != nil {
		s.logger.Warn("grid refresh incomplete", "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"grid":     s.coordinator.ListGrid(),
		"complete": err == nil,
	})
}
