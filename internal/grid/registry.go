package grid

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lampgrid/lampgrid-core/internal/infrastructure/logging"
)

// Registry is the source of truth for which bridges exist.
//
// It keeps an in-memory mirror of the durable repository so lookups during
// dispatch never block on the database. The mirror is mutated only by
// Register, Deregister, and SetStatus.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Registry struct {
	repo   Repository
	client BridgeClient
	logger *logging.Logger

	cache   map[string]Bridge
	cacheMu sync.RWMutex
}

// NewRegistry creates a bridge registry backed by the given repository.
// Call Load before serving requests to warm the in-memory mirror.
func NewRegistry(repo Repository, client BridgeClient, logger *logging.Logger) (*Registry, error) {
	if repo == nil {
		return nil, fmt.Errorf("grid: registry requires a repository")
	}
	if client == nil {
		return nil, fmt.Errorf("grid: registry requires a bridge client")
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Registry{
		repo:   repo,
		client: client,
		logger: logger,
		cache:  make(map[string]Bridge),
	}, nil
}

// Load populates the in-memory mirror from the repository.
// Registrations made in earlier runs become visible again here.
func (r *Registry) Load(ctx context.Context) error {
	bridges, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading bridges: %w", err)
	}

	r.cacheMu.Lock()
	r.cache = make(map[string]Bridge, len(bridges))
	for _, b := range bridges {
		r.cache[b.ID] = b
	}
	r.cacheMu.Unlock()

	r.logger.Info("bridge registry loaded", "bridges", len(bridges))
	return nil
}

// Register probes the bridge at address and, if it answers, commits the
// registration durably and makes it visible to List and Get.
//
// Returns:
//   - ErrDuplicateBridge if the address is already registered
//   - ErrUnreachableBridge (wrapping the probe failure) if the probe fails
func (r *Registry) Register(ctx context.Context, address, username string) (*Bridge, error) {
	if r.findByAddress(address) != nil {
		return nil, ErrDuplicateBridge
	}

	cfg, err := r.client.Probe(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("%w: probing %s: %w", ErrUnreachableBridge, address, err)
	}

	now := time.Now().UTC()
	bridge := &Bridge{
		ID:           uuid.NewString(),
		Address:      address,
		Username:     username,
		Name:         cfg.Name,
		ModelID:      cfg.ModelID,
		SWVersion:    cfg.SWVersion,
		Status:       BridgeStatusReachable,
		RegisteredAt: now,
		UpdatedAt:    now,
	}

	if err := r.repo.Create(ctx, bridge); err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[bridge.ID] = *bridge
	r.cacheMu.Unlock()

	r.logger.Info("bridge registered",
		"bridge_id", bridge.ID,
		"address", address,
		"name", bridge.Name,
	)
	return bridge, nil
}

// Deregister removes a bridge registration. It is idempotent: removing an
// unknown id is a no-op, not an error. Cache purging is the coordinator's
// responsibility and happens under the same per-bridge lock.
func (r *Registry) Deregister(ctx context.Context, id string) error {
	err := r.repo.Delete(ctx, id)
	if err != nil && !errors.Is(err, ErrUnknownBridge) {
		return err
	}

	r.cacheMu.Lock()
	_, existed := r.cache[id]
	delete(r.cache, id)
	r.cacheMu.Unlock()

	if existed {
		r.logger.Info("bridge deregistered", "bridge_id", id)
	}
	return nil
}

// Get retrieves a registered bridge by id from the in-memory mirror.
func (r *Registry) Get(id string) (Bridge, error) {
	r.cacheMu.RLock()
	bridge, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if !ok {
		return Bridge{}, fmt.Errorf("%w: %s", ErrUnknownBridge, id)
	}
	return bridge, nil
}

// List returns all registered bridges, oldest registration first.
func (r *Registry) List() []Bridge {
	r.cacheMu.RLock()
	bridges := make([]Bridge, 0, len(r.cache))
	for _, b := range r.cache {
		bridges = append(bridges, b)
	}
	r.cacheMu.RUnlock()

	sort.Slice(bridges, func(i, j int) bool {
		if !bridges[i].RegisteredAt.Equal(bridges[j].RegisteredAt) {
			return bridges[i].RegisteredAt.Before(bridges[j].RegisteredAt)
		}
		return bridges[i].ID < bridges[j].ID
	})
	return bridges
}

// SetStatus records a bridge's observed liveness, durably and in the mirror.
func (r *Registry) SetStatus(ctx context.Context, id string, status BridgeStatus) error {
	if err := r.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	r.cacheMu.Lock()
	if bridge, ok := r.cache[id]; ok {
		bridge.Status = status
		bridge.UpdatedAt = time.Now().UTC()
		r.cache[id] = bridge
	}
	r.cacheMu.Unlock()
	return nil
}

// findByAddress returns the cached bridge at address, or nil.
func (r *Registry) findByAddress(address string) *Bridge {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	for _, b := range r.cache {
		if b.Address == address {
			bridge := b
			return &bridge
		}
	}
	return nil
}
