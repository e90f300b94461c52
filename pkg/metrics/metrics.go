// Package metrics exposes Prometheus collectors for the API server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InvoiceComputations counts invoice engine runs by outcome (ok / rejected).
	InvoiceComputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "posada",
		Name:      "invoice_computations_total",
		Help:      "Invoice engine runs partitioned by outcome.",
	}, []string{"outcome"})

	// InvoiceComputeDuration observes engine latency. Each run is pure
	// in-memory work; anything above a millisecond is worth seeing.
	InvoiceComputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "posada",
		Name:      "invoice_compute_duration_seconds",
		Help:      "Invoice engine computation latency.",
		Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01},
	})

	// CheckoutsCommitted counts persisted checkouts.
	CheckoutsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "posada",
		Name:      "checkouts_committed_total",
		Help:      "Stays closed and invoiced.",
	})
)

// ObserveCompute records one engine run.
func ObserveCompute(start time.Time, err error) {
	InvoiceComputeDuration.Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	InvoiceComputations.WithLabelValues(outcome).Inc()
}
