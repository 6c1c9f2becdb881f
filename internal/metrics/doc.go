// Package metrics defines the Prometheus metrics exported by the service.
//
// All metrics are registered via promauto at package load time and share
// the media_forge_ prefix. The /metrics endpoint is served by the main
// router when METRICS_ENABLED is true.
//
// Groups:
//   - HTTP: request totals, durations, in-flight gauge (fed by the
//     middleware package)
//   - Transform: invocation totals by operation and status, durations,
//     active gauge, busy rejections
//   - Workspace: create/destroy totals, cleanup retries and failures
//   - Streaming: staged and streamed byte totals, aborted streams
//   - Memory: monitor gauge and backpressure state
package metrics
