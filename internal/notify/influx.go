package notify

import (
	"github.com/lampgrid/lampgrid-core/internal/grid"
)

// HistoryWriter is the subset of the InfluxDB client the notifier uses.
type HistoryWriter interface {
	WriteLampState(bridgeID, lampID string, on bool, brightness uint8, reachable bool)
	WriteBridgeStatus(bridgeID string, reachable bool, lampCount int)
}

// InfluxNotifier records lamp state changes and bridge liveness transitions
// as time-series points. Writes are batched by the underlying client, so
// the callbacks return immediately.
type InfluxNotifier struct {
	writer HistoryWriter
	cache  *grid.StateCache
}

// NewInfluxNotifier creates an InfluxDB-backed state notifier. cache may be
// nil; it is only used to tag bridge events with the current lamp count.
func NewInfluxNotifier(writer HistoryWriter, cache *grid.StateCache) *InfluxNotifier {
	return &InfluxNotifier{
		writer: writer,
		cache:  cache,
	}
}

// LampStateChanged records the lamp's post-change state.
func (n *InfluxNotifier) LampStateChanged(lamp grid.Lamp) {
	n.writer.WriteLampState(
		lamp.Ref.BridgeID,
		lamp.Ref.LampID,
		lamp.State.On,
		lamp.State.Brightness,
		lamp.State.Reachable,
	)
}

// BridgeChanged records reachability transitions. Registration and
// deregistration are lifecycle rather than liveness, so they are skipped.
func (n *InfluxNotifier) BridgeChanged(bridge grid.Bridge, event string) {
	if event != "reachable" && event != "unreachable" {
		return
	}

	lampCount := 0
	if n.cache != nil {
		lampCount = len(n.cache.BridgeLamps(bridge.ID))
	}
	n.writer.WriteBridgeStatus(bridge.ID, bridge.Status == grid.BridgeStatusReachable, lampCount)
}
