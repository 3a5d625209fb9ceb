package config

import (
	"github.com/dopd-io/dopd/pkg/metrics"
)

// MetricsResult contains all metrics-related components created from
// configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// ServerMetrics collects accept/dispatch metrics (never nil; no-op if
	// disabled)
	ServerMetrics metrics.ServerMetrics

	// StoreMetrics collects object store metrics (never nil; no-op if
	// disabled)
	StoreMetrics metrics.StoreMetrics
}

// InitializeMetrics creates all metrics components based on configuration.
//
// If metrics are enabled, the global Prometheus registry is initialized and
// a metrics HTTP server is created. If disabled, the server is nil and the
// collectors are zero-overhead no-ops.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			Server:        nil,
			ServerMetrics: metrics.NewServerMetrics(),
			StoreMetrics:  metrics.NewStoreMetrics(cfg.Storage.Type),
		}
	}

	metrics.InitRegistry()

	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Metrics.Port,
	})

	return &MetricsResult{
		Server:        server,
		ServerMetrics: metrics.NewServerMetrics(),
		StoreMetrics:  metrics.NewStoreMetrics(cfg.Storage.Type),
	}
}
