package directory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	cacheErrors prometheus.Counter
	storeReads  prometheus.Counter
}

// newMetrics registers on reg; a nil reg leaves the collectors unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	lookups := f.NewCounterVec(prometheus.CounterOpts{
		Namespace: "users",
		Subsystem: "directory",
		Name:      "cache_total",
		Help:      "User cache lookups by result.",
	}, []string{"result"})

	return &metrics{
		cacheHits:   lookups.WithLabelValues("hit"),
		cacheMisses: lookups.WithLabelValues("miss"),
		cacheErrors: lookups.WithLabelValues("error"),
		storeReads: f.NewCounter(prometheus.CounterOpts{
			Namespace: "users",
			Subsystem: "directory",
			Name:      "store_reads_total",
			Help:      "Lookups that reached the durable store.",
		}),
	}
}
