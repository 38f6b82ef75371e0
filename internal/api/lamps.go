package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lampgrid/lampgrid-core/internal/bridges/hue"
)

// stateChangeRequest is the JSON shape clients use to describe a lamp or
// group change. All fields are optional; absent fields leave the lamp's
// attributes untouched.
type stateChangeRequest struct {
	On             *bool       `json:"on,omitempty"`
	Brightness     *uint8      `json:"bri,omitempty"`
	Hue            *uint16     `json:"hue,omitempty"`
	Saturation     *uint8      `json:"sat,omitempty"`
	XY             *[2]float64 `json:"xy,omitempty"`
	ColorTemp      *uint16     `json:"ct,omitempty"`
	RGB            string      `json:"rgb,omitempty"`
	TransitionTime *uint16     `json:"transition_time,omitempty"`
}

// toStateChange converts the request into the bridge wire representation.
// An "rgb" hex colour is translated to CIE xy coordinates; an explicit
// "xy" field takes precedence when both are given.
func (req stateChangeRequest) toStateChange() (hue.StateChange, error) {
	change := hue.StateChange{
		On:             req.On,
		Brightness:     req.Brightness,
		Hue:            req.Hue,
		Saturation:     req.Saturation,
		XY:             req.XY,
		ColorTemp:      req.ColorTemp,
		TransitionTime: req.TransitionTime,
	}

	if req.RGB != "" && change.XY == nil {
		r, g, b, err := hue.ParseHexColor(req.RGB)
		if err != nil {
			return hue.StateChange{}, err
		}
		xy := hue.RGBToXY(r, g, b)
		change.XY = &xy
	}

	return change, nil
}

// setLampStatesRequest is the payload for the bulk PUT /lamps/state.
type setLampStatesRequest struct {
	Targets []string           `json:"targets"`
	Change  stateChangeRequest `json:"change"`
}

// handleSetLampStates applies one change to many lamps across bridges.
// Per-target outcomes come back in the order the targets were given.
func (s *Server) handleSetLampStates(w http.ResponseWriter, r *http.Request) {
	var req setLampStatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	change, err := req.Change.toStateChange()
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

	results, err := s.coordinator.SetLampState(ctx, req.Targets, change)
	if err != nil {
		writeGridError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// handleSetLampState applies a change to a single lamp.
func (s *Server) handleSetLampState(w http.ResponseWriter, r *http.Request) {
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

	results, err := s.coordinator.SetLampState(ctx, []string{ref}, change)
	if err != nil {
		writeGridError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, results[0])
}

// handleGetLampState serves a lamp's cached state. With ?refresh=true the
// owning bridge is polled first, trading latency for freshness.
func (s *Server) handleGetLampState(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	refresh := r.URL.Query().Get("refresh") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	lamps, err := s.coordinator.GetLampState(ctx, []string{ref}, refresh)
	if err != nil {
		writeCommandError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, lamps[0])
}
