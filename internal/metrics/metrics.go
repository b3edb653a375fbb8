// Package metrics exports service counters and latencies in the Prometheus
// text format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "equipment_reservation"

// Recorder collects application metrics on its own registry so several
// recorders can coexist in one process.
type Recorder struct {
	registry     *prometheus.Registry
	reservations *prometheus.CounterVec
	conflicts    prometheus.Counter
	durations    *prometheus.HistogramVec
}

// NewRecorder registers the reservation and service collectors. When
// withRuntime is set the Go runtime and process collectors are added too.
func NewRecorder(withRuntime bool) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_operations_total",
			Help:      "Reservation operations by operation and result.",
		}, []string{"operation", "result"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_conflicts_total",
			Help:      "Reservation writes rejected because the time slot was taken.",
		}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "service_operation_duration_seconds",
			Help:      "Latency of application service operations.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"service", "operation"}),
	}
	r.registry.MustRegister(r.reservations, r.conflicts, r.durations)
	if withRuntime {
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return r
}

// ObserveOperation records how long a service operation took.
func (r *Recorder) ObserveOperation(service, operation string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.durations.WithLabelValues(service, operation).Observe(elapsed.Seconds())
}

// ReservationOperation counts a reservation write. result is "success" or an
// error kind.
func (r *Recorder) ReservationOperation(operation, result string) {
	if r == nil {
		return
	}
	r.reservations.WithLabelValues(operation, result).Inc()
}

func (r *Recorder) ReservationConflict() {
	if r == nil {
		return
	}
	r.conflicts.Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
