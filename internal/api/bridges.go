package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lampgrid/lampgrid-core/internal/bridges/hue"
)

// registerBridgeRequest is the payload for POST /bridges.
type registerBridgeRequest struct {
	Address  string `json:"address"`
	Username string `json:"username"`
}

// handleListBridges returns all registered bridges.
func (s *Server) handleListBridges(w http.ResponseWriter, _ *http.Request) {
	bridges := s.coordinator.ListBridges()
	writeJSON(w, http.StatusOK, map[string]any{
		"bridges": bridges,
		"count":   len(bridges),
	})
}

// handleRegisterBridge registers a bridge after probing it for identity.
func (s *Server) handleRegisterBridge(w http.ResponseWriter, r *http.Request) {
	var req registerBridgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Address == "" {
		writeBadRequest(w, "address is required")
		return
	}
	if req.Username == "" {
		writeBadRequest(w, "username is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	bridge, err := s.coordinator.RegisterBridge(ctx, req.Address, req.Username)
	if err != nil {
		writeGridError(w, err)
		return
	}

	s.logger.Info("bridge registered", "bridge_id", bridge.ID, "address", bridge.Address)
	writeJSON(w, http.StatusCreated, bridge)
}

// handleGetBridge returns a single bridge by id.
func (s *Server) handleGetBridge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	bridge, err := s.coordinator.GetBridge(id)
	if err != nil {
		writeGridError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bridge)
}

// handleDeregisterBridge removes a bridge and its cached snapshot.
// Deregistering an unknown bridge succeeds; the end state is the same.
func (s *Server) handleDeregisterBridge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.coordinator.DeregisterBridge(r.Context(), id); err != nil {
		writeGridError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRefreshBridge forces an immediate snapshot refresh for one bridge.
func (s *Server) handleRefreshBridge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	if err := s.coordinator.Refresh(ctx, id); err != nil {
		writeCommandError(w, err)
		return
	}

	bridge, err := s.coordinator.GetBridge(id)
	if err != nil {
		writeGridError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bridge)
}

// discoveryTimeout bounds the network scan for unregistered bridges.
// SSDP responders answer within a few seconds or not at all.
const discoveryTimeout = 10 * time.Second

// handleDiscoverBridges scans the local network for bridges.
func (s *Server) handleDiscoverBridges(w http.ResponseWriter, r *http.Request) {
	if s.discoverer == nil {
		writeError(w, http.StatusNotImplemented, ErrCodeInternal, "discovery is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), discoveryTimeout)
	defer cancel()

	addresses, err := s.discoverer(ctx)
	if err != nil {
		s.logger.Error("bridge discovery failed", "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeBadGateway, "discovery scan failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"addresses": addresses,
		"count":     len(addresses),
	})
}

// pairBridgeRequest is the payload for POST /bridges/pair.
type pairBridgeRequest struct {
	Address string `json:"address"`
	// Register registers the bridge immediately with the issued username.
	Register bool `json:"register"`
}

// handlePairBridge runs the pairing handshake against an unregistered
// bridge. The bridge refuses with a link-button error until its physical
// button has been pressed; the client retries until pairing succeeds.
func (s *Server) handlePairBridge(w http.ResponseWriter, r *http.Request) {
	if s.pairer == nil {
		writeError(w, http.StatusNotImplemented, ErrCodeInternal, "pairing is not configured")
		return
	}

	var req pairBridgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.Address == "" {
		writeBadRequest(w, "address is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	username, err := s.pairer.CreateUser(ctx, req.Address, s.devicetype())
	if err != nil {
		var apiErr *hue.APIError
		if errors.As(err, &apiErr) && apiErr.IsLinkButton() {
			writeError(w, http.StatusForbidden, "link_button_not_pressed",
				"press the bridge link button and retry")
			return
		}
		writeCommandError(w, err)
		return
	}

	response := map[string]any{
		"address":  req.Address,
		"username": username,
	}

	if req.Register {
		bridge, err := s.coordinator.RegisterBridge(ctx, req.Address, username)
		if err != nil {
			writeGridError(w, err)
			return
		}
		response["bridge"] = bridge
	}

	s.logger.Info("bridge paired", "address", req.Address, "registered", req.Register)
	writeJSON(w, http.StatusCreated, response)
}
