// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Realtime connection state and reconnect counts
//   - Inbound frame rates by type
//   - Decode error counts
//   - Active subscription key counts
package metrics
