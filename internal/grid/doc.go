// Package grid manages the lamp grid: the registered bridges and their
// lamps and groups, the cached view of their state, and command dispatch.
//
// # Architecture
//
//	API layer
//	    │
//	    ▼
//	Coordinator ──► Registry (which bridges exist, durable via Repository)
//	    │      └──► StateCache (in-memory snapshot per bridge)
//	    ▼
//	Dispatcher ───► BridgeClient ───► bridge hardware
//
// The Coordinator is the only entry point for callers. It resolves symbolic
// targets ("bridge:lamp" strings) against the Registry and StateCache,
// invokes the Dispatcher, and folds outcomes back into the cache before the
// unified result returns upstream.
//
// # Consistency Model
//
// The cache is not time-expired. It diverges from hardware when lamps are
// mutated out-of-band (a physical switch); callers correct suspected
// staleness with an explicit refresh. Each bridge's slice of the snapshot
// is replaced atomically, so readers never observe a torn bridge.
//
// Concurrent commands targeting overlapping lamps on the same bridge are
// not ordered relative to each other; last-applied-wins at the bridge.
// Callers needing strict per-lamp ordering must serialise above this layer.
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
package grid
