// Package api provides the HTTPS REST and WebSocket surface of the
// lampgrid gateway.
//
// # Architecture
//
//	┌──────────────┐   HTTPS + JWT    ┌──────────────┐
//	│   clients    │ ───────────────▶ │  api.Server  │
//	│ (UI, tools)  │ ◀─── WebSocket ──│   + Hub      │
//	└──────────────┘                  └──────┬───────┘
//	                                         │
//	                                         ▼
//	                                  grid.Coordinator
//
// The server exposes bridge lifecycle, lamp and group commands, and the
// aggregate grid view under /api/v1. All routes except /health and
// /auth/login require a Bearer JWT issued by the login endpoint.
//
// WebSocket connections authenticate with a single-use ticket from
// POST /auth/ws-ticket, passed as a query parameter because browsers
// cannot set headers on the upgrade request. The Hub implements
// grid.StateNotifier, so lamp state changes and bridge liveness
// transitions are pushed to subscribed clients as they happen.
package api
