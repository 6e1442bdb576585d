// Package api implements the HTTP REST API and WebSocket server for Lightscape.
//
// This package provides:
//   - REST endpoints for the spatial grid, device inventory, effect engine and
//     saved layouts
//   - WebSocket hub relaying grid, effect and device events in real time
//   - Middleware stack (request ID, logging, recovery, CORS, metrics)
//   - TLS support
//
// # Architecture
//
// The API server is a presentation surface over the core packages. Handlers
// mutate the grid and engine directly; the resulting notifications flow back
// to clients through the hub:
//
//	Client ──REST──▶ Grid / Engine ──events──▶ Hub ──WS──▶ Client
//	                     │
//	                     └──▶ Dispatcher ──MQTT──▶ Bridges
//
// WebSocket channel names are the event type strings, for example
// "grid.assignments_changed" or "effect.colors_updated".
//
// # Graceful Degradation
//
// Layout persistence and metrics are optional. Endpoints backed by a missing
// dependency answer 503.
package api
