package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ServerMetrics provides observability for the accept/dispatch core:
// connection admission, worker lifecycle, and the reap path. The interface
// is optional; components treat a nil value as disabled.
type ServerMetrics interface {
	// ConnectionAccepted increments the accepted connections counter.
	ConnectionAccepted()

	// AcceptError counts a transient accept failure the server survived.
	AcceptError()

	// WorkerStarted increments the in-flight worker gauge.
	WorkerStarted()

	// WorkerCompleted records one worker's exchange with its duration and
	// outcome, and decrements the in-flight gauge.
	WorkerCompleted(duration time.Duration, err error)

	// WorkersReaped records how many completions one reap pass collected.
	WorkersReaped(count int)
}

type serverMetrics struct {
	connectionsAccepted prometheus.Counter
	acceptErrors        prometheus.Counter
	workersInFlight     prometheus.Gauge
	workerDuration      *prometheus.HistogramVec
	reapBatchSize       prometheus.Histogram
}

// NewServerMetrics creates a Prometheus-backed ServerMetrics instance, or a
// no-op one if InitRegistry has not been called.
func NewServerMetrics() ServerMetrics {
	if !IsEnabled() {
		return noopServerMetrics{}
	}

	reg := GetRegistry()

	return &serverMetrics{
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dopd_connections_accepted_total",
				Help: "Total number of connections accepted",
			},
		),
		acceptErrors: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "dopd_accept_errors_total",
				Help: "Total number of transient accept failures",
			},
		),
		workersInFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "dopd_workers_in_flight",
				Help: "Current number of running workers",
			},
		),
		workerDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "dopd_worker_duration_seconds",
				Help: "Duration of one worker's request/reply exchange",
				Buckets: []float64{
					0.001, // 1ms
					0.005, // 5ms
					0.01,  // 10ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.5,   // 500ms
					1.0,   // 1s
					5.0,   // 5s
					30.0,  // 30s
				},
			},
			[]string{"status"},
		),
		reapBatchSize: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dopd_reap_batch_size",
				Help:    "Number of worker completions collected per reap pass",
				Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
			},
		),
	}
}

func (m *serverMetrics) ConnectionAccepted() {
	m.connectionsAccepted.Inc()
}

func (m *serverMetrics) AcceptError() {
	m.acceptErrors.Inc()
}

func (m *serverMetrics) WorkerStarted() {
	m.workersInFlight.Inc()
}

func (m *serverMetrics) WorkerCompleted(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.workerDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.workersInFlight.Dec()
}

func (m *serverMetrics) WorkersReaped(count int) {
	m.reapBatchSize.Observe(float64(count))
}

// noopServerMetrics is a no-op implementation of ServerMetrics.
type noopServerMetrics struct{}

func (noopServerMetrics) ConnectionAccepted()                              {}
func (noopServerMetrics) AcceptError()                                     {}
func (noopServerMetrics) WorkerStarted()                                   {}
func (noopServerMetrics) WorkerCompleted(duration time.Duration, err error) {}
func (noopServerMetrics) WorkersReaped(count int)                          {}
