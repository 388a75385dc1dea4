// Package metrics exports Prometheus metrics for the recorder.
//
// Collectors are registered with the default registry in init(). The Observer type
// plugs into connection.Manager and records connection state, reconnects, inbound
// message rates and heartbeat failures. Writer counters are exported through
// RegisterWriter. Handler serves the metrics endpoint alongside /health.
package metrics
