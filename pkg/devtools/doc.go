// Package devtools exposes a store over HTTP for inspection.
//
// The server mounts three routes:
//
//   - GET /state    current state as JSON
//   - GET /metrics  Prometheus metrics
//   - GET /ws       WebSocket that pushes state JSON on every change
//
// It is a development and debugging aid. The state endpoint serializes
// whatever the model marshals to, so anything secret in the model is
// visible to anyone who can reach the port.
package devtools
