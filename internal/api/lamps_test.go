package api

import (
	"testing"
)

func TestStateChangeRequest_RGBToXY(t *testing.T) {
	req := stateChangeRequest{RGB: "#ff0000"}

	change, err := req.toStateChange()
	if err != nil {
		t.Fatalf("toStateChange() error = %v", err)
	}
	if change.XY == nil {
		t.Fatalf("XY not set from rgb field")
	}
	// Pure red lands in the red corner of the CIE diagram
	if change.XY[0] < 0.6 {
		t.Errorf("xy = %v, want x > 0.6 for pure red", *change.XY)
	}
}

func TestStateChangeRequest_ExplicitXYWins(t *testing.T) {
	xy := [2]float64{0.3, 0.3}
	req := stateChangeRequest{RGB: "#ff0000", XY: &xy}

	change, err := req.toStateChange()
	if err != nil {
		t.Fatalf("toStateChange() error = %v", err)
	}
	if *change.XY != xy {
		t.Errorf("xy = %v, want explicit %v", *change.XY, xy)
	}
}

func TestStateChangeRequest_InvalidHex(t *testing.T) {
	req := stateChangeRequest{RGB: "not-a-colour"}

	if _, err := req.toStateChange(); err == nil {
		t.Errorf("toStateChange() accepted invalid hex colour")
	}
}

func TestStateChangeRequest_IsZero(t *testing.T) {
	change, err := stateChangeRequest{}.toStateChange()
	if err != nil {
		t.Fatalf("toStateChange() error = %v", err)
	}
	if !change.IsZero() {
		t.Errorf("empty request produced non-zero change: %+v", change)
	}
}
