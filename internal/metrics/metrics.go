// Package metrics: Prometheus collectors for loading, trend fetches and the HTTP surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000}

var (
	RegionsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "marketmap_regions_loaded",
		Help: "Regions in the current joined set",
	})
	PersonasLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "marketmap_personas_loaded",
		Help: "Provinces with a persona record",
	})
	RowsDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketmap_rows_dropped_total",
		Help: "Source rows dropped during load, by source and reason",
	}, []string{"source", "reason"})
	DatasetLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketmap_dataset_loads_total",
		Help: "Dataset load attempts by result",
	}, []string{"result"})
	TrendRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marketmap_trend_requests_total",
		Help: "Trend series requests",
	})
	TrendFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marketmap_trend_failures_total",
		Help: "Trend series requests that failed at the store",
	})
	TrendDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "marketmap_trend_duration_ms",
		Help:    "Trend fetch duration in milliseconds",
		Buckets: durationBuckets,
	})
	TrendCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketmap_trend_cache_hits_total",
		Help: "Trend cache hits by layer",
	}, []string{"layer"})
	TrendCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marketmap_trend_cache_misses_total",
		Help: "Trend lookups that reached the store",
	})
	TrendStaleDiscardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "marketmap_trend_stale_discarded_total",
		Help: "Trend results discarded because a newer selection superseded them",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "marketmap_http_requests_total",
		Help: "HTTP requests by path and status class",
	}, []string{"path", "class"})
	HTTPDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "marketmap_http_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: durationBuckets,
	})
)

func init() {
	prometheus.MustRegister(RegionsLoaded)
	prometheus.MustRegister(PersonasLoaded)
	prometheus.MustRegister(RowsDroppedTotal)
	prometheus.MustRegister(DatasetLoadsTotal)
	prometheus.MustRegister(TrendRequestsTotal)
	prometheus.MustRegister(TrendFailuresTotal)
	prometheus.MustRegister(TrendDurationMs)
	prometheus.MustRegister(TrendCacheHitsTotal)
	prometheus.MustRegister(TrendCacheMissesTotal)
	prometheus.MustRegister(TrendStaleDiscardedTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPDurationMs)
}

// ObserveHTTP: plugs into logger.AccessMiddleware.
func ObserveHTTP(path string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(path, statusClass(status)).Inc()
	HTTPDurationMs.Observe(float64(d.Microseconds()) / 1000)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	}
	return "2xx"
}

// Handler: exposes the default registry on /metrics.
func Handler() http.Handler { return promhttp.Handler() }
