package grid

import (
	"fmt"
	"strings"
	"time"

	"github.com/lampgrid/lampgrid-core/internal/bridges/hue"
)

// BridgeStatus represents the liveness of a registered bridge.
type BridgeStatus string

// Bridge status values.
const (
	BridgeStatusReachable   BridgeStatus = "reachable"
	BridgeStatusUnreachable BridgeStatus = "unreachable"
)

// Bridge is a registered lamp bridge. The bridge-issued username is the
// credential for every native call; it is stored rather than derived because
// bridges only issue it during the pairing handshake.
type Bridge struct {
	ID           string       `json:"id"`
	Address      string       `json:"address"`
	Username     string       `json:"-"`
	Name         string       `json:"name"`
	ModelID      string       `json:"model_id,omitempty"`
	SWVersion    string       `json:"sw_version,omitempty"`
	Status       BridgeStatus `json:"status"`
	RegisteredAt time.Time    `json:"registered_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// LampRef addresses one lamp globally as (bridge id, local lamp id).
// Lamps never hold a reference back to their bridge, only its id.
type LampRef struct {
	BridgeID string `json:"bridge_id"`
	LampID   string `json:"lamp_id"`
}

// String renders the reference in "bridge:lamp" form.
func (r LampRef) String() string {
	return r.BridgeID + ":" + r.LampID
}

// ParseLampRef parses a "bridge:lamp" reference string.
func ParseLampRef(s string) (LampRef, error) {
	bridgeID, lampID, ok := strings.Cut(s, ":")
	if !ok || bridgeID == "" || lampID == "" {
		return LampRef{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}
	return LampRef{BridgeID: bridgeID, LampID: lampID}, nil
}

// GroupRef addresses one group globally as (bridge id, local group id).
// Group id "0" is the bridge's implicit all-lamps group.
type GroupRef struct {
	BridgeID string `json:"bridge_id"`
	GroupID  string `json:"group_id"`
}

// String renders the reference in "bridge:group" form.
func (r GroupRef) String() string {
	return r.BridgeID + ":" + r.GroupID
}

// ParseGroupRef parses a "bridge:group" reference string.
func ParseGroupRef(s string) (GroupRef, error) {
	bridgeID, groupID, ok := strings.Cut(s, ":")
	if !ok || bridgeID == "" || groupID == "" {
		return GroupRef{}, fmt.Errorf("%w: %q", ErrInvalidRef, s)
	}
	return GroupRef{BridgeID: bridgeID, GroupID: groupID}, nil
}

// Lamp is one lamp in the snapshot.
type Lamp struct {
	Ref     LampRef        `json:"ref"`
	Name    string         `json:"name"`
	Type    string         `json:"type,omitempty"`
	ModelID string         `json:"model_id,omitempty"`
	State   hue.LightState `json:"state"`
}

// Group is one named lamp set in the snapshot.
type Group struct {
	Ref   GroupRef  `json:"ref"`
	Name  string    `json:"name"`
	Lamps []LampRef `json:"lamps"`
}

// BridgeView is one bridge's slice of the grid, as returned by ListGrid.
type BridgeView struct {
	Bridge      Bridge     `json:"bridge"`
	Lamps       []Lamp     `json:"lamps"`
	Groups      []Group    `json:"groups"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
}

// GridView is the aggregate, point-in-time view of the whole grid.
type GridView struct {
	Bridges []BridgeView `json:"bridges"`
}

// ResultStatus classifies one target's command outcome.
type ResultStatus string

// Result status values. Indeterminate means the gateway cannot be certain
// whether the bridge applied the change (the call timed out in flight); it
// is never reported as success.
const (
	ResultOK            ResultStatus = "ok"
	ResultError         ResultStatus = "error"
	ResultIndeterminate ResultStatus = "indeterminate"
)

// Error kinds carried on failed command results.
const (
	ErrorKindTransport      = "transport"
	ErrorKindBridgeProtocol = "bridge_protocol"
	ErrorKindUnknownTarget  = "unknown_target"
	ErrorKindTimeout        = "timeout"
)

// CommandResult is the per-lamp outcome of a dispatched command. A batch
// command yields one result per targeted lamp, in input order; partial
// success is a valid terminal state, not an error.
type CommandResult struct {
	Ref     LampRef         `json:"ref"`
	Status  ResultStatus    `json:"status"`
	Applied hue.StateChange `json:"applied,omitzero"`
	// ErrorKind and Reason are set when Status is not ok.
	ErrorKind string `json:"error_kind,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
