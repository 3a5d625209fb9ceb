package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreMetrics provides observability for object store backends. Optional;
// a nil value disables collection.
type StoreMetrics interface {
	// RecordOperation records one store call with its duration and outcome.
	// op is the method name ("create", "read", "write", ...).
	RecordOperation(op string, duration time.Duration, err error)

	// RecordBytes records payload bytes moved through the store.
	// direction is "read" or "write".
	RecordBytes(direction string, bytes int)
}

type storeMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
}

// NewStoreMetrics creates a Prometheus-backed StoreMetrics instance labeled
// with the backend name, or a no-op one if metrics are disabled.
func NewStoreMetrics(backend string) StoreMetrics {
	if !IsEnabled() {
		return noopStoreMetrics{}
	}

	reg := GetRegistry()

	return &storeMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "dopd_store_operations_total",
				Help:        "Total number of object store operations by method and status",
				ConstLabels: prometheus.Labels{"backend": backend},
			},
			[]string{"op", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "dopd_store_operation_duration_seconds",
				Help:        "Duration of object store operations in seconds",
				ConstLabels: prometheus.Labels{"backend": backend},
				Buckets: []float64{
					0.0001, // 100us
					0.001,  // 1ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
					5.0,    // 5s
				},
			},
			[]string{"op"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "dopd_store_bytes_total",
				Help:        "Total object bytes moved through the store",
				ConstLabels: prometheus.Labels{"backend": backend},
			},
			[]string{"direction"},
		),
	}
}

func (m *storeMetrics) RecordOperation(op string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(op, status).Inc()
	m.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func (m *storeMetrics) RecordBytes(direction string, bytes int) {
	m.bytesTotal.WithLabelValues(direction).Add(float64(bytes))
}

// noopStoreMetrics is a no-op implementation of StoreMetrics.
type noopStoreMetrics struct{}

func (noopStoreMetrics) RecordOperation(op string, duration time.Duration, err error) {}
func (noopStoreMetrics) RecordBytes(direction string, bytes int)                      {}
