package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleGetGroup returns a group and its member lamps from the cache.
// Group id "0" on any bridge is the implicit all-lamps group.
func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	group, lamps, err := s.coordinator.GetGroupState(ref)
	if err != nil {
		writeGridError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"group": group,
		"lamps": lamps,
	})
}

// handleGroupAction applies a change to every lamp in a group with a
// single bridge call.
func (s *Server) handleGroupAction(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	var req stateChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	change, err := req.toStateChange()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if change.IsZero() {
		writeBadRequest(w, "change sets no fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	if err := s.coordinator.SetGroupState(ctx, ref, change); err != nil {
		writeCommandError(w, err)
		return
	}

	group, lamps, err := s.coordinator.GetGroupState(ref)
	if err != nil {
		writeGridError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"group": group,
		"lamps": lamps,
	})
}
