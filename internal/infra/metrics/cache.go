package metrics

import "github.com/prometheus/client_golang/prometheus"

var cacheRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Cache lookups by object kind and outcome (hit/miss).",
	},
	[]string{"kind", "outcome"},
)

func init() {
	register(cacheRequestsTotal)
}

func IncCacheRequest(kind, outcome string) {
	cacheRequestsTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}
