// Package metrics exposes Prometheus instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SalesCommitted counts successfully allocated sales.
	SalesCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ventapos_sales_committed_total",
		Help: "Number of sales committed.",
	})

	// SalesReverted counts accepted reversal requests.
	SalesReverted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ventapos_sales_reverted_total",
		Help: "Number of sales reverted.",
	})

	// StockRejections counts sales refused for insufficient stock.
	StockRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ventapos_stock_rejections_total",
		Help: "Number of sales rejected due to insufficient stock.",
	})

	// BatchesReceived counts recorded purchase batches.
	BatchesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ventapos_batches_received_total",
		Help: "Number of purchase batches received.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ventapos_http_requests_total",
		Help: "HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ventapos_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTP is gin middleware recording request counts and latency. Uses
// the route template, not the raw path, to keep cardinality bounded.
func HTTP() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
