package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Operations  *prometheus.CounterVec
	Conflicts   *prometheus.CounterVec
	SwapRetries prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Operations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "legaldoc_lifecycle_operations_total",
			Help: "Completed lifecycle operations by kind and document type",
		}, []string{"operation", "type"}),
		Conflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "legaldoc_pointer_conflicts_total",
			Help: "Operations that exhausted their pointer swap attempts",
		}, []string{"operation"}),
		SwapRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "legaldoc_pointer_swap_retries_total",
			Help: "Pointer swaps retried after losing a race",
		}),
	}
}
