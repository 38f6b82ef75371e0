package hue

// Wire types for the bridge's native JSON protocol.
//
// The bridge speaks plain HTTP on the internal network; every request is
// authenticated with a bridge-issued username embedded in the URL path.

// StateChange is the closed set of state fields a command may set on a lamp
// or group. Nil fields are omitted from the request so the bridge leaves
// those attributes untouched.
type StateChange struct {
	On             *bool       `json:"on,omitempty"`
	Brightness     *uint8      `json:"bri,omitempty"`
	Hue            *uint16     `json:"hue,omitempty"`
	Saturation     *uint8      `json:"sat,omitempty"`
	XY             *[2]float64 `json:"xy,omitempty"`
	ColorTemp      *uint16     `json:"ct,omitempty"`
	TransitionTime *uint16     `json:"transitiontime,omitempty"`
}

// IsZero reports whether the change sets no fields at all.
func (c StateChange) IsZero() bool {
	return c.On == nil && c.Brightness == nil && c.Hue == nil &&
		c.Saturation == nil && c.XY == nil && c.ColorTemp == nil
}

// LightState is a lamp's reported state.
type LightState struct {
	On         bool       `json:"on"`
	Brightness uint8      `json:"bri"`
	Hue        uint16     `json:"hue"`
	Saturation uint8      `json:"sat"`
	XY         [2]float64 `json:"xy"`
	ColorTemp  uint16     `json:"ct"`
	ColorMode  string     `json:"colormode"`
	Reachable  bool       `json:"reachable"`
}

// Light is a lamp as reported by GET /api/<username>/lights.
type Light struct {
	State     LightState `json:"state"`
	Type      string     `json:"type"`
	Name      string     `json:"name"`
	ModelID   string     `json:"modelid"`
	SWVersion string     `json:"swversion"`
}

// Group is a named set of lamps as reported by GET /api/<username>/groups.
// Lights holds local lamp ids. Action is the last state applied to the group.
type Group struct {
	Name   string     `json:"name"`
	Lights []string   `json:"lights"`
	Action LightState `json:"action"`
}

// BridgeConfig is the subset of GET /api/<username>/config the gateway uses
// to identify a bridge and check reachability.
type BridgeConfig struct {
	Name       string `json:"name"`
	MAC        string `json:"mac"`
	ModelID    string `json:"modelid"`
	SWVersion  string `json:"swversion"`
	APIVersion string `json:"apiversion"`
}

// responseItem is one element of the array the bridge returns for write
// operations. Exactly one of Success or Error is set.
type responseItem struct {
	Success map[string]any `json:"success,omitempty"`
	Error   *errorBody     `json:"error,omitempty"`
}

// errorBody is the bridge's error payload.
type errorBody struct {
	Type        int    `json:"type"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

// createUserRequest is the body of POST /api during pairing.
type createUserRequest struct {
	Devicetype string `json:"devicetype"`
}
