// Package metrics exposes the Prometheus collectors the HTTP layer and
// simulation kernel report against.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cosmos_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	simulationTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cosmos_simulation_tick_duration_seconds",
		Help:    "Duration of a single orchestrator Run call.",
		Buckets: prometheus.DefBuckets,
	})

	anomaliesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cosmos_anomalies_generated_total",
		Help: "Anomalies generated, partitioned by type.",
	}, []string{"type"})

	anomaliesResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cosmos_anomalies_resolved_total",
		Help: "Anomalies resolved by operators.",
	})

	universesEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cosmos_universes_ended_total",
		Help: "Universes that reached a terminal end condition, partitioned by condition.",
	}, []string{"condition"})

	activeUniverses = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cosmos_active_universes",
		Help: "Number of universes currently in running status.",
	})

	storageQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cosmos_storage_query_duration_seconds",
		Help:    "Duration of storage layer operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "collection"})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cosmos_cache_hits_total",
		Help: "Cache lookups that hit.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cosmos_cache_misses_total",
		Help: "Cache lookups that missed.",
	})
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request duration, method, path, and status for every
// HTTP request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path, http.StatusText(ww.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

// RecordSimulationTick records the wall-clock duration of one orchestrator
// Run call.
func RecordSimulationTick(d time.Duration) {
	simulationTickDuration.Observe(d.Seconds())
}

// RecordAnomalyGenerated increments the per-type anomaly-generation counter.
func RecordAnomalyGenerated(anomalyType string) {
	anomaliesGenerated.WithLabelValues(anomalyType).Inc()
}

// RecordAnomalyResolved increments the anomaly-resolution counter.
func RecordAnomalyResolved() {
	anomaliesResolved.Inc()
}

// RecordUniverseEnded increments the per-condition universe-termination
// counter.
func RecordUniverseEnded(condition string) {
	universesEnded.WithLabelValues(condition).Inc()
}

// SetActiveUniverses sets the current gauge of running universes.
func SetActiveUniverses(n int) {
	activeUniverses.Set(float64(n))
}

// RecordStorageQuery records a storage layer operation's duration.
func RecordStorageQuery(operation, collection string, d time.Duration) {
	storageQueryDuration.WithLabelValues(operation, collection).Observe(d.Seconds())
}

// RecordCacheHit increments the cache-hit counter.
func RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss increments the cache-miss counter.
func RecordCacheMiss() {
	cacheMisses.Inc()
}

// Handler returns the Prometheus scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
