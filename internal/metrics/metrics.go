package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 2000}

var (
	StoresLoadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemap_stores_load_total",
		Help: "Store dataset loads by outcome (ok, empty, fail)",
	}, []string{"outcome"})
	StoresLoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storemap_stores_load_duration_ms",
		Help:    "Store dataset fetch and decode duration in milliseconds",
		Buckets: durationBuckets,
	})
	StoreRecordsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storemap_store_records_loaded",
		Help: "Number of store records currently loaded",
	})
	StoreRecordsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storemap_store_records_skipped_total",
		Help: "Store records skipped for missing or invalid fields",
	})
	StoreGroups = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storemap_store_groups",
		Help: "Number of distinct store sources",
	})
	TogglesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemap_toggles_total",
		Help: "Visibility toggles by requested state",
	}, []string{"visible"})
	FitBoundsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemap_fit_bounds_total",
		Help: "Search driven viewport fits by outcome (applied, skipped)",
	}, []string{"outcome"})
	SearchRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemap_search_requests_total",
		Help: "Places search requests per provider",
	}, []string{"provider"})
	SearchFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemap_search_fail_total",
		Help: "Places search failures per provider",
	}, []string{"provider"})
	SearchDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storemap_search_duration_ms",
		Help:    "Places search duration in milliseconds",
		Buckets: durationBuckets,
	}, []string{"provider"})
	SearchCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storemap_search_cache_hits_total",
		Help: "Places search redis cache hits",
	})
	SearchCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storemap_search_cache_misses_total",
		Help: "Places search redis cache misses",
	})
	ProviderHeartbeatTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemap_provider_heartbeat_total",
		Help: "Search provider heartbeat count by status",
	}, []string{"provider", "status"})
	ExportRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storemap_export_rows_total",
		Help: "Exported source rows by outcome (written, skipped)",
	}, []string{"outcome"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storemap_rate_limited_total",
		Help: "Requests rejected by the entry rate limiter",
	})
)

func init() {
	prometheus.MustRegister(
		StoresLoadTotal,
		StoresLoadDurationMs,
		StoreRecordsLoaded,
		StoreRecordsSkippedTotal,
		StoreGroups,
		TogglesTotal,
		FitBoundsTotal,
		SearchRequestsTotal,
		SearchFailTotal,
		SearchDurationMs,
		SearchCacheHitsTotal,
		SearchCacheMissesTotal,
		ProviderHeartbeatTotal,
		ExportRowsTotal,
		RateLimitedTotal,
	)
}

// Handler：Prometheus 抓取入口，挂载在 API 前缀下的 /metrics
func Handler() http.Handler { return promhttp.Handler() }
