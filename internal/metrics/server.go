package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultPath is the metrics endpoint used when none is configured.
const DefaultPath = "/metrics"

// Handler serves Prometheus metrics on path and, if non-nil, health on /health.
func Handler(path string, health http.Handler) http.Handler {
	if path == "" {
		path = DefaultPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	if health != nil {
		mux.Handle("/health", health)
	}
	return mux
}

// NewServer returns an HTTP server for Handler listening on port.
func NewServer(port int, path string, health http.Handler) *http.Server {
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: Handler(path, health),
	}
}
