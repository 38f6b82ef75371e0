package grid

import (
	"sort"
	"sync"
	"time"

	"github.com/lampgrid/lampgrid-core/internal/bridges/hue"
)

// StateCache is the in-memory mirror of each bridge's lamps and groups.
//
// Entries are never time-expired; staleness is corrected only by an explicit
// refresh or by applying command outcomes. Each bridge's slice is replaced
// as a whole, so readers never observe a half-updated bridge.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type StateCache struct {
	mu      sync.RWMutex
	bridges map[string]*bridgeState
}

// bridgeState is one bridge's slice of the snapshot.
type bridgeState struct {
	lamps       map[string]Lamp
	groups      map[string]Group
	refreshedAt time.Time
}

// NewStateCache creates an empty cache. A freshly registered bridge has no
// entries until its first refresh.
func NewStateCache() *StateCache {
	return &StateCache{
		bridges: make(map[string]*bridgeState),
	}
}

// ReplaceBridge atomically swaps in a new snapshot slice for one bridge.
func (c *StateCache) ReplaceBridge(bridgeID string, lamps map[string]Lamp, groups map[string]Group) {
	state := &bridgeState{
		lamps:       make(map[string]Lamp, len(lamps)),
		groups:      make(map[string]Group, len(groups)),
		refreshedAt: time.Now().UTC(),
	}
	for id, lamp := range lamps {
		state.lamps[id] = lamp
	}
	for id, group := range groups {
		state.groups[id] = group
	}

	c.mu.Lock()
	c.bridges[bridgeID] = state
	c.mu.Unlock()
}

// Purge drops a bridge's entire slice. Called when the bridge is
// deregistered so no lamp or group outlives its bridge.
func (c *StateCache) Purge(bridgeID string) {
	c.mu.Lock()
	delete(c.bridges, bridgeID)
	c.mu.Unlock()
}

// Lamp looks up one lamp in the snapshot.
func (c *StateCache) Lamp(ref LampRef) (Lamp, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.bridges[ref.BridgeID]
	if !ok {
		return Lamp{}, false
	}
	lamp, ok := state.lamps[ref.LampID]
	return lamp, ok
}

// Group looks up one group in the snapshot.
func (c *StateCache) Group(ref GroupRef) (Group, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.bridges[ref.BridgeID]
	if !ok {
		return Group{}, false
	}
	group, ok := state.groups[ref.GroupID]
	return group, ok
}

// Apply merges a successful command result into the cached lamp state
// without a network round-trip. Results for lamps no longer in the snapshot
// are dropped silently.
func (c *StateCache) Apply(result CommandResult) {
	if result.Status != ResultOK {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.bridges[result.Ref.BridgeID]
	if !ok {
		return
	}
	lamp, ok := state.lamps[result.Ref.LampID]
	if !ok {
		return
	}

	mergeChange(&lamp.State, result.Applied)
	state.lamps[result.Ref.LampID] = lamp
}

// ApplyGroup optimistically merges a group action into every member lamp.
// Group id "0" addresses all lamps on the bridge even when the bridge does
// not list it as a group.
func (c *StateCache) ApplyGroup(ref GroupRef, change hue.StateChange) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.bridges[ref.BridgeID]
	if !ok {
		return
	}

	if ref.GroupID == "0" {
		for id, lamp := range state.lamps {
			mergeChange(&lamp.State, change)
			state.lamps[id] = lamp
		}
		return
	}

	group, ok := state.groups[ref.GroupID]
	if !ok {
		return
	}
	for _, memberRef := range group.Lamps {
		lamp, ok := state.lamps[memberRef.LampID]
		if !ok {
			continue
		}
		mergeChange(&lamp.State, change)
		state.lamps[memberRef.LampID] = lamp
	}
}

// BridgeLamps returns a bridge's lamps sorted by local id.
func (c *StateCache) BridgeLamps(bridgeID string) []Lamp {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.bridges[bridgeID]
	if !ok {
		return nil
	}

	lamps := make([]Lamp, 0, len(state.lamps))
	for _, lamp := range state.lamps {
		lamps = append(lamps, lamp)
	}
	sort.Slice(lamps, func(i, j int) bool {
		return lamps[i].Ref.LampID < lamps[j].Ref.LampID
	})
	return lamps
}

// BridgeGroups returns a bridge's groups sorted by local id.
func (c *StateCache) BridgeGroups(bridgeID string) []Group {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.bridges[bridgeID]
	if !ok {
		return nil
	}

	groups := make([]Group, 0, len(state.groups))
	for _, group := range state.groups {
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Ref.GroupID < groups[j].Ref.GroupID
	})
	return groups
}

// RefreshedAt returns when a bridge's slice was last replaced.
// ok is false if the bridge has never been refreshed.
func (c *StateCache) RefreshedAt(bridgeID string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.bridges[bridgeID]
	if !ok {
		return time.Time{}, false
	}
	return state.refreshedAt, true
}

// mergeChange folds acknowledged change fields into a lamp state.
func mergeChange(state *hue.LightState, change hue.StateChange) {
	if change.On != nil {
		state.On = *change.On
	}
	if change.Brightness != nil {
		state.Brightness = *change.Brightness
	}
	if change.Hue != nil {
		state.Hue = *change.Hue
		state.ColorMode = "hs"
	}
	if change.Saturation != nil {
		state.Saturation = *change.Saturation
		state.ColorMode = "hs"
	}
	if change.XY != nil {
		state.XY = *change.XY
		state.ColorMode = "xy"
	}
	if change.ColorTemp != nil {
		state.ColorTemp = *change.ColorTemp
		state.ColorMode = "ct"
	}
}
