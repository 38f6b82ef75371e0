// Package hue implements the native HTTP protocol of Hue-compatible lamp
// bridges for Lampgrid.
//
// Bridges live on an insecure internal network and speak plain HTTP with a
// bridge-issued username in the URL path. This package translates between
// Lampgrid's typed commands and the bridge's JSON wire format.
//
// # Architecture
//
//	┌─────────────────┐           ┌─────────────────┐
//	│    Lampgrid     │   HTTP    │     Bridge      │   Zigbee
//	│  (grid pkg)     │◄─────────►│  (this pkg)     │◄────────► Lamps
//	└─────────────────┘           └─────────────────┘
//
// # Key Responsibilities
//
//   - Probe candidate addresses and verify bridge identity
//   - Read lamp and group inventories
//   - Apply state changes to lamps and groups
//   - Pair with a bridge to obtain a username (link button handshake)
//   - Discover bridges on the local network via SSDP
//   - Split failures into transport errors (retryable) and bridge
//     protocol errors (target-scoped, final)
//
// # Error Model
//
// Every failure is either a *TransportError (the call never completed;
// retrying may help) or an *APIError (the bridge firmware rejected the
// request; retrying cannot help). Use IsTransient to pick between them.
//
// # Thread Safety
//
// Client is stateless and safe for concurrent use from multiple goroutines.
package hue
