// Package notify fans grid state changes out to external sinks.
//
// Each sink adapts the grid.StateNotifier callback interface to one
// transport:
//
//	Coordinator ──► MQTTNotifier   ──► broker topics (retained)
//	            └─► InfluxNotifier ──► time-series history
//	            └─► (api.Hub)      ──► websocket clients
//
// Notifier callbacks run inside coordinator operations, so every sink
// hands the payload to a non-blocking transport (batched writes, tokened
// publishes) and reports failures through the logger rather than back up
// the call stack.
package notify
