package grid

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lampgrid/lampgrid-core/internal/bridges/hue"
	"github.com/lampgrid/lampgrid-core/internal/infrastructure/logging"
)

// StateNotifier receives state change events after commands are applied and
// after refreshes. Implementations must not block; slow sinks should buffer
// internally.
type StateNotifier interface {
	// LampStateChanged is called with the post-change snapshot entry.
	LampStateChanged(lamp Lamp)

	// BridgeChanged is called when a bridge is registered, deregistered, or
	// changes liveness. event is one of "registered", "deregistered",
	// "reachable", "unreachable".
	BridgeChanged(bridge Bridge, event string)
}

// Coordinator is the façade the API layer calls. It owns the authoritative
// in-memory structures (Registry mirror, StateCache), resolves symbolic
// targets, invokes the Dispatcher, and folds outcomes back into the cache.
//
// It performs no implicit retries beyond what the Dispatcher already does
// and never swallows per-target errors: callers always see the full result
// sequence.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Coordinator struct {
	registry   *Registry
	cache      *StateCache
	dispatcher *Dispatcher
	client     BridgeClient
	logger     *logging.Logger

	// bridgeLocks serialises refresh and deregister per bridge, so a
	// deregister never races a refresh repopulating the purged slice.
	bridgeLocks map[string]*sync.Mutex
	locksMu     sync.Mutex

	notifiers   []StateNotifier
	notifiersMu sync.RWMutex
}

// CoordinatorOptions contains the dependencies for a Coordinator.
type CoordinatorOptions struct {
	Registry   *Registry
	Cache      *StateCache
	Dispatcher *Dispatcher
	Client     BridgeClient
	Logger     *logging.Logger
}

// NewCoordinator creates the grid coordinator.
func NewCoordinator(opts CoordinatorOptions) (*Coordinator, error) {
	if opts.Registry == nil || opts.Cache == nil || opts.Dispatcher == nil || opts.Client == nil {
		return nil, fmt.Errorf("grid: coordinator requires registry, cache, dispatcher, and client")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Coordinator{
		registry:    opts.Registry,
		cache:       opts.Cache,
		dispatcher:  opts.Dispatcher,
		client:      opts.Client,
		logger:      logger,
		bridgeLocks: make(map[string]*sync.Mutex),
	}, nil
}

// AddNotifier registers a state change observer.
func (c *Coordinator) AddNotifier(n StateNotifier) {
	c.notifiersMu.Lock()
	c.notifiers = append(c.notifiers, n)
	c.notifiersMu.Unlock()
}

// RegisterBridge registers a bridge. The cache holds no entries for it until
// the first refresh.
func (c *Coordinator) RegisterBridge(ctx context.Context, address, username string) (*Bridge, error) {
	bridge, err := c.registry.Register(ctx, address, username)
	if err != nil {
		return nil, err
	}
	c.notifyBridge(*bridge, "registered")
	return bridge, nil
}

// DeregisterBridge removes a bridge and purges its snapshot slice
// atomically with respect to refreshes of the same bridge. Idempotent.
func (c *Coordinator) DeregisterBridge(ctx context.Context, id string) error {
	bridge, getErr := c.registry.Get(id)

	lock := c.bridgeLock(id)
	lock.Lock()
	err := c.registry.Deregister(ctx, id)
	if err == nil {
		c.cache.Purge(id)
	}
	lock.Unlock()
	if err != nil {
		return err
	}

	c.dropBridgeLock(id)
	if getErr == nil {
		c.notifyBridge(bridge, "deregistered")
	}
	return nil
}

// ListBridges returns all registered bridges.
func (c *Coordinator) ListBridges() []Bridge {
	return c.registry.List()
}

// GetBridge returns one registered bridge.
func (c *Coordinator) GetBridge(id string) (Bridge, error) {
	return c.registry.Get(id)
}

// Refresh pulls one bridge's current lamps and groups and replaces that
// bridge's slice of the snapshot. A transport failure marks the bridge
// unreachable; success marks it reachable again.
func (c *Coordinator) Refresh(ctx context.Context, bridgeID string) error {
	bridge, err := c.registry.Get(bridgeID)
	if err != nil {
		return err
	}

	lock := c.bridgeLock(bridgeID)
	lock.Lock()
	defer lock.Unlock()

	// Deregistration may have won the lock race.
	if _, err := c.registry.Get(bridgeID); err != nil {
		return err
	}

	lights, err := c.client.GetLights(ctx, bridge.Address, bridge.Username)
	if err != nil {
		c.markStatus(ctx, bridge, BridgeStatusUnreachable)
		return fmt.Errorf("refreshing bridge %s: %w", bridgeID, err)
	}

	groups, err := c.client.GetGroups(ctx, bridge.Address, bridge.Username)
	if err != nil {
		c.markStatus(ctx, bridge, BridgeStatusUnreachable)
		return fmt.Errorf("refreshing bridge %s groups: %w", bridgeID, err)
	}

	lamps := make(map[string]Lamp, len(lights))
	for id, light := range lights {
		lamps[id] = Lamp{
			Ref:     LampRef{BridgeID: bridgeID, LampID: id},
			Name:    light.Name,
			Type:    light.Type,
			ModelID: light.ModelID,
			State:   light.State,
		}
	}

	cachedGroups := make(map[string]Group, len(groups))
	for id, group := range groups {
		refs := make([]LampRef, 0, len(group.Lights))
		for _, lampID := range group.Lights {
			refs = append(refs, LampRef{BridgeID: bridgeID, LampID: lampID})
		}
		cachedGroups[id] = Group{
			Ref:   GroupRef{BridgeID: bridgeID, GroupID: id},
			Name:  group.Name,
			Lamps: refs,
		}
	}

	c.cache.ReplaceBridge(bridgeID, lamps, cachedGroups)
	c.markStatus(ctx, bridge, BridgeStatusReachable)

	c.logger.Debug("bridge refreshed",
		"bridge_id", bridgeID,
		"lamps", len(lamps),
		"groups", len(cachedGroups),
	)
	return nil
}

// RefreshAll refreshes every registered bridge concurrently. Bridges do not
// block each other; the first error is returned after all refreshes finish.
func (c *Coordinator) RefreshAll(ctx context.Context) error {
	g := new(errgroup.Group)
	for _, bridge := range c.registry.List() {
		bridgeID := bridge.ID
		g.Go(func() error {
			return c.Refresh(ctx, bridgeID)
		})
	}
	return g.Wait()
}

// RunPeriodicRefresh reconciles the snapshot with hardware state on a fixed
// interval until ctx is cancelled. Covers lamps mutated out-of-band, e.g.
// by a physical switch.
func (c *Coordinator) RunPeriodicRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.RefreshAll(ctx); err != nil {
				c.logger.Warn("periodic refresh incomplete", "error", err)
			}
		}
	}
}

// SetLampState resolves symbolic lamp ids, dispatches the change, and folds
// successful outcomes into the cache. Resolution failure aborts before any
// network call; after dispatch, per-target errors pass through verbatim.
func (c *Coordinator) SetLampState(ctx context.Context, ids []string, change hue.StateChange) ([]CommandResult, error) {
	refs, err := c.resolveLamps(ids)
	if err != nil {
		return nil, err
	}

	bridges := c.bridgesFor(refs)
	results := c.dispatcher.Dispatch(ctx, bridges, refs, change)

	for _, result := range results {
		if result.Status != ResultOK {
			continue
		}
		c.cache.Apply(result)
		if lamp, ok := c.cache.Lamp(result.Ref); ok {
			c.notifyLamp(lamp)
		}
	}

	return results, nil
}

// GetLampState serves lamp state from the cache. With refresh true, the
// owning bridges are refreshed first; otherwise no network call is made.
func (c *Coordinator) GetLampState(ctx context.Context, ids []string, refresh bool) ([]Lamp, error) {
	if refresh {
		seen := make(map[string]struct{})
		for _, id := range ids {
			ref, err := ParseLampRef(id)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[ref.BridgeID]; dup {
				continue
			}
			seen[ref.BridgeID] = struct{}{}
			if err := c.Refresh(ctx, ref.BridgeID); err != nil {
				return nil, err
			}
		}
	}

	refs, err := c.resolveLamps(ids)
	if err != nil {
		return nil, err
	}

	lamps := make([]Lamp, 0, len(refs))
	for _, ref := range refs {
		lamp, ok := c.cache.Lamp(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, ref)
		}
		lamps = append(lamps, lamp)
	}
	return lamps, nil
}

// SetGroupState applies a change to a group with one native call and
// optimistically updates every member lamp in the cache.
func (c *Coordinator) SetGroupState(ctx context.Context, id string, change hue.StateChange) error {
	ref, err := ParseGroupRef(id)
	if err != nil {
		return err
	}

	bridge, err := c.registry.Get(ref.BridgeID)
	if err != nil {
		return err
	}

	// Group 0 is implicit; every other group must be in the snapshot.
	if ref.GroupID != "0" {
		if _, ok := c.cache.Group(ref); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTarget, ref)
		}
	}

	if err := c.dispatcher.DispatchGroup(ctx, bridge, ref.GroupID, change); err != nil {
		return err
	}

	c.cache.ApplyGroup(ref, change)
	for _, lamp := range c.memberLamps(ref) {
		c.notifyLamp(lamp)
	}
	return nil
}

// GetGroupState returns a group and its member lamps from the cache.
func (c *Coordinator) GetGroupState(id string) (Group, []Lamp, error) {
	ref, err := ParseGroupRef(id)
	if err != nil {
		return Group{}, nil, err
	}

	if _, err := c.registry.Get(ref.BridgeID); err != nil {
		return Group{}, nil, err
	}

	if ref.GroupID == "0" {
		group := Group{Ref: ref, Name: "all lamps"}
		lamps := c.cache.BridgeLamps(ref.BridgeID)
		for _, lamp := range lamps {
			group.Lamps = append(group.Lamps, lamp.Ref)
		}
		return group, lamps, nil
	}

	group, ok := c.cache.Group(ref)
	if !ok {
		return Group{}, nil, fmt.Errorf("%w: %s", ErrUnknownTarget, ref)
	}
	return group, c.memberLamps(ref), nil
}

// ListGrid returns the aggregate view of all bridges and their snapshot
// slices, oldest registration first.
func (c *Coordinator) ListGrid() GridView {
	bridges := c.registry.List()
	view := GridView{Bridges: make([]BridgeView, 0, len(bridges))}

	for _, bridge := range bridges {
		bv := BridgeView{
			Bridge: bridge,
			Lamps:  c.cache.BridgeLamps(bridge.ID),
			Groups: c.cache.BridgeGroups(bridge.ID),
		}
		if refreshedAt, ok := c.cache.RefreshedAt(bridge.ID); ok {
			bv.RefreshedAt = &refreshedAt
		}
		view.Bridges = append(view.Bridges, bv)
	}
	return view
}

// resolveLamps parses and resolves symbolic lamp ids against the snapshot.
// Any miss aborts the whole resolution: no network call has happened yet,
// so failing fast is cheap and unambiguous.
func (c *Coordinator) resolveLamps(ids []string) ([]LampRef, error) {
	if len(ids) == 0 {
		return nil, ErrNoTargets
	}

	refs := make([]LampRef, 0, len(ids))
	for _, id := range ids {
		ref, err := ParseLampRef(id)
		if err != nil {
			return nil, err
		}
		if _, err := c.registry.Get(ref.BridgeID); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, id)
		}
		if _, ok := c.cache.Lamp(ref); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, id)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// bridgesFor collects the registered bridges owning the given refs.
func (c *Coordinator) bridgesFor(refs []LampRef) map[string]Bridge {
	bridges := make(map[string]Bridge)
	for _, ref := range refs {
		if _, ok := bridges[ref.BridgeID]; ok {
			continue
		}
		if bridge, err := c.registry.Get(ref.BridgeID); err == nil {
			bridges[ref.BridgeID] = bridge
		}
	}
	return bridges
}

// memberLamps returns the cached lamps belonging to a group.
func (c *Coordinator) memberLamps(ref GroupRef) []Lamp {
	if ref.GroupID == "0" {
		return c.cache.BridgeLamps(ref.BridgeID)
	}

	group, ok := c.cache.Group(ref)
	if !ok {
		return nil
	}
	lamps := make([]Lamp, 0, len(group.Lamps))
	for _, memberRef := range group.Lamps {
		if lamp, ok := c.cache.Lamp(memberRef); ok {
			lamps = append(lamps, lamp)
		}
	}
	return lamps
}

// markStatus records observed liveness and notifies on transitions.
func (c *Coordinator) markStatus(ctx context.Context, bridge Bridge, status BridgeStatus) {
	if bridge.Status == status {
		return
	}
	if err := c.registry.SetStatus(ctx, bridge.ID, status); err != nil {
		c.logger.Warn("bridge status update failed", "bridge_id", bridge.ID, "error", err)
		return
	}
	bridge.Status = status
	c.notifyBridge(bridge, string(status))
}

// bridgeLock returns the per-bridge mutex, creating it on first use.
func (c *Coordinator) bridgeLock(id string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()

	lock, ok := c.bridgeLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		c.bridgeLocks[id] = lock
	}
	return lock
}

// dropBridgeLock forgets the mutex of a deregistered bridge.
func (c *Coordinator) dropBridgeLock(id string) {
	c.locksMu.Lock()
	delete(c.bridgeLocks, id)
	c.locksMu.Unlock()
}

// notifyLamp fans a lamp state change out to all observers.
func (c *Coordinator) notifyLamp(lamp Lamp) {
	c.notifiersMu.RLock()
	defer c.notifiersMu.RUnlock()
	for _, n := range c.notifiers {
		n.LampStateChanged(lamp)
	}
}

// notifyBridge fans a bridge lifecycle event out to all observers.
func (c *Coordinator) notifyBridge(bridge Bridge, event string) {
	c.notifiersMu.RLock()
	defer c.notifiersMu.RUnlock()
	for _, n := range c.notifiers {
		n.BridgeChanged(bridge, event)
	}
}
