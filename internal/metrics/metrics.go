// Package metrics holds the Prometheus collectors for catalog traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sourceRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wbparse",
		Name:      "source_requests_total",
		Help:      "Requests sent to catalog sources, by source and outcome.",
	}, []string{"source", "outcome"})

	sourceLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wbparse",
		Name:      "source_request_duration_seconds",
		Help:      "Catalog source request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	pipelineProducts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wbparse",
		Name:      "pipeline_products_total",
		Help:      "Products produced by pipeline stages.",
	}, []string{"stage"})
)

// ObserveRequest records one source request. status is 0 for transport
// errors.
func ObserveRequest(source string, status int, elapsed time.Duration) {
	sourceRequests.WithLabelValues(source, outcome(status)).Inc()
	sourceLatency.WithLabelValues(source).Observe(elapsed.Seconds())
}

// AddProducts counts products emitted by a pipeline stage.
func AddProducts(stage string, n int) {
	if n > 0 {
		pipelineProducts.WithLabelValues(stage).Add(float64(n))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func outcome(status int) string {
	switch {
	case status == 0:
		return "error"
	case status >= 200 && status < 300:
		return "ok"
	default:
		return strconv.Itoa(status)
	}
}
