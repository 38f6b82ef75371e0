package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteLampState records one lamp's state after a command or refresh.
//
// The write is non-blocking; points are batched and sent asynchronously.
// Booleans are stored as integer fields so dashboards can graph on/off
// transitions directly.
//
// Parameters:
//   - bridgeID: The owning bridge's id
//   - lampID: The bridge-local lamp id
//   - on: Whether the lamp is on
//   - brightness: Current brightness (0-254)
//   - reachable: Whether the bridge reports the lamp reachable
//
// Example:
//
//	client.WriteLampState("b7c2", "3", true, 200, true)
func (c *Client) WriteLampState(bridgeID, lampID string, on bool, brightness uint8, reachable bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"lamp_state",
		map[string]string{
			"bridge_id": bridgeID,
			"lamp_id":   lampID,
		},
		map[string]interface{}{
			"on":         boolToInt(on),
			"brightness": int(brightness),
			"reachable":  boolToInt(reachable),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCommandMetric records the outcome of one dispatched lamp command.
//
// Used for tracking command volume and failure rates per bridge.
//
// Parameters:
//   - bridgeID: The owning bridge's id
//   - lampID: The bridge-local lamp id
//   - status: The result status ("ok", "error", "indeterminate")
//   - duration: How long the native call took
func (c *Client) WriteCommandMetric(bridgeID, lampID, status string, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"lamp_command",
		map[string]string{
			"bridge_id": bridgeID,
			"lamp_id":   lampID,
			"status":    status,
		},
		map[string]interface{}{
			"duration_ms": float64(duration.Milliseconds()),
			"count":       1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteBridgeStatus records a bridge liveness transition.
//
// Parameters:
//   - bridgeID: The bridge's id
//   - reachable: Whether the bridge answered its last refresh
//   - lampCount: How many lamps the bridge reported
func (c *Client) WriteBridgeStatus(bridgeID string, reachable bool, lampCount int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"bridge_status",
		map[string]string{
			"bridge_id": bridgeID,
		},
		map[string]interface{}{
			"reachable":  boolToInt(reachable),
			"lamp_count": lampCount,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("gateway_stats",
//	    map[string]string{"gateway_id": "lampgrid-core"},
//	    map[string]interface{}{"bridges": 3, "lamps": 42})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., backfilled data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
