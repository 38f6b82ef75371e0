package grid

import (
	"context"
	"errors"
	"sync"

	"github.com/lampgrid/lampgrid-core/internal/bridges/hue"
	"github.com/lampgrid/lampgrid-core/internal/infrastructure/logging"
)

// BridgeClient is the subset of the bridge protocol the grid layer uses.
// *hue.Client satisfies it; tests substitute fakes.
type BridgeClient interface {
	Probe(ctx context.Context, address string) (*hue.BridgeConfig, error)
	GetLights(ctx context.Context, address, username string) (map[string]hue.Light, error)
	GetGroups(ctx context.Context, address, username string) (map[string]hue.Group, error)
	SetLightState(ctx context.Context, address, username, lightID string, change hue.StateChange) error
	SetGroupAction(ctx context.Context, address, username, groupID string, change hue.StateChange) error
}

// Dispatcher fans a logical command out to the owning bridges.
//
// Bridges are independent network endpoints, so cross-bridge calls proceed
// concurrently. Within one bridge, calls are issued sequentially: the bridge
// firmware mishandles concurrent native requests.
//
// Thread Safety:
//   - Dispatch is safe for concurrent use.
type Dispatcher struct {
	client BridgeClient
	retry  hue.RetryPolicy
	logger *logging.Logger
}

// NewDispatcher creates a dispatcher using the given client and retry policy.
func NewDispatcher(client BridgeClient, retry hue.RetryPolicy, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{
		client: client,
		retry:  retry,
		logger: logger,
	}
}

// Dispatch applies change to every target lamp and reports one result per
// target, in input order regardless of per-bridge completion timing.
//
// The whole dispatch always terminates with per-target results, never a
// single verdict: one lamp's permanent failure does not block or fail its
// siblings, and a timeout on one bridge does not cancel the others. Targets
// whose outcome is unknown when ctx expires are marked indeterminate.
//
// bridges maps bridge id to the registered bridge for every target; targets
// whose bridge is missing from the map fail resolution without a network call.
func (d *Dispatcher) Dispatch(ctx context.Context, bridges map[string]Bridge, targets []LampRef, change hue.StateChange) []CommandResult {
	results := make([]CommandResult, len(targets))

	// Partition target indices by owning bridge, preserving input order
	// within each partition. Results land at their input index, so output
	// order is input order no matter which bridge finishes first.
	partitions := make(map[string][]int)
	for i, ref := range targets {
		results[i].Ref = ref
		if _, ok := bridges[ref.BridgeID]; !ok {
			results[i].Status = ResultError
			results[i].ErrorKind = ErrorKindUnknownTarget
			results[i].Reason = "bridge not registered: " + ref.BridgeID
			continue
		}
		partitions[ref.BridgeID] = append(partitions[ref.BridgeID], i)
	}

	var wg sync.WaitGroup
	for bridgeID, indices := range partitions {
		wg.Add(1)
		go func(bridge Bridge, indices []int) {
			defer wg.Done()
			d.dispatchBridge(ctx, bridge, indices, targets, change, results)
		}(bridges[bridgeID], indices)
	}
	wg.Wait()

	return results
}

// dispatchBridge issues one native call per lamp, sequentially, retrying
// transport failures per the policy. Each goroutine writes only to its own
// result slots, so no synchronisation on results is needed.
func (d *Dispatcher) dispatchBridge(ctx context.Context, bridge Bridge, indices []int, targets []LampRef, change hue.StateChange, results []CommandResult) {
	for _, i := range indices {
		ref := targets[i]

		if ctx.Err() != nil {
			results[i] = indeterminateResult(ref)
			continue
		}

		err := d.retry.Do(ctx, func(ctx context.Context) error {
			return d.client.SetLightState(ctx, bridge.Address, bridge.Username, ref.LampID, change)
		})
		results[i] = buildResult(ref, change, err)

		if results[i].Status != ResultOK {
			d.logger.Debug("lamp command failed",
				"bridge_id", bridge.ID,
				"lamp_id", ref.LampID,
				"status", string(results[i].Status),
				"reason", results[i].Reason,
			)
		}
	}
}

// DispatchGroup applies change to a group with one native call, retrying
// transport failures per the policy.
func (d *Dispatcher) DispatchGroup(ctx context.Context, bridge Bridge, groupID string, change hue.StateChange) error {
	return d.retry.Do(ctx, func(ctx context.Context) error {
		return d.client.SetGroupAction(ctx, bridge.Address, bridge.Username, groupID, change)
	})
}

// buildResult classifies one call outcome into a CommandResult.
func buildResult(ref LampRef, change hue.StateChange, err error) CommandResult {
	result := CommandResult{Ref: ref}

	switch {
	case err == nil:
		result.Status = ResultOK
		result.Applied = change

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		// The call may have reached the bridge before the deadline hit;
		// the outcome is unknown, which is not the same as failure.
		return indeterminateResult(ref)

	default:
		result.Status = ResultError
		result.Reason = err.Error()
		var apiErr *hue.APIError
		if errors.As(err, &apiErr) {
			result.ErrorKind = ErrorKindBridgeProtocol
			result.Reason = apiErr.Description
		} else {
			result.ErrorKind = ErrorKindTransport
		}
	}

	return result
}

// indeterminateResult marks a target whose outcome is unknown due to timeout.
func indeterminateResult(ref LampRef) CommandResult {
	return CommandResult{
		Ref:       ref,
		Status:    ResultIndeterminate,
		ErrorKind: ErrorKindTimeout,
		Reason:    "command outcome unknown: deadline exceeded",
	}
}
