// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kardex/internal/infrastructure/storage/postgres"
)

var (
	// HTTPRequestDuration observes request latency per route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kardex",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// HTTPRequestsTotal counts requests per route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kardex",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests processed.",
	}, []string{"method", "route", "status"})

	// StockPostingsTotal counts accepted ledger postings per operation.
	StockPostingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kardex",
		Subsystem: "stock",
		Name:      "postings_total",
		Help:      "Accepted stock postings by operation type.",
	}, []string{"operation"})

	// TransitionFailuresTotal counts rejected workflow transitions.
	TransitionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kardex",
		Subsystem: "workflow",
		Name:      "transition_failures_total",
		Help:      "Workflow transitions rejected by error code.",
	}, []string{"code"})

	// SnapshotRunsTotal counts snapshot runs by result.
	SnapshotRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kardex",
		Subsystem: "snapshot",
		Name:      "runs_total",
		Help:      "Snapshot runs by result.",
	}, []string{"result"})

	// SnapshotDuration observes snapshot run latency.
	SnapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kardex",
		Subsystem: "snapshot",
		Name:      "duration_seconds",
		Help:      "Snapshot run latency.",
		Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	})
)

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route, status string, elapsed time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}

// poolCollector exports pgx pool statistics on scrape.
type poolCollector struct {
	pool *postgres.Pool

	total    *prometheus.Desc
	acquired *prometheus.Desc
	idle     *prometheus.Desc
	max      *prometheus.Desc
}

// RegisterPoolStats registers a collector for database pool statistics.
func RegisterPoolStats(pool *postgres.Pool) {
	prometheus.MustRegister(&poolCollector{
		pool: pool,
		total: prometheus.NewDesc("kardex_db_pool_total_conns",
			"Total connections in the pool.", nil, nil),
		acquired: prometheus.NewDesc("kardex_db_pool_acquired_conns",
			"Connections currently acquired.", nil, nil),
		idle: prometheus.NewDesc("kardex_db_pool_idle_conns",
			"Idle connections in the pool.", nil, nil),
		max: prometheus.NewDesc("kardex_db_pool_max_conns",
			"Pool connection limit.", nil, nil),
	})
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.acquired
	ch <- c.idle
	ch <- c.max
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	stats := postgres.GetPoolStats(c.pool.Unwrap())
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(stats.TotalConns))
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(stats.AcquiredConns))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(stats.IdleConns))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(stats.MaxConns))
}
