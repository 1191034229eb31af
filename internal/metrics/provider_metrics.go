package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ProviderFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_fetches_total",
		Help:      "Total number of race card fetches by source and status",
	}, []string{"source", "status"})
	ProviderFetchDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "provider_fetch_duration_seconds",
		Help:      "Duration of race card fetches in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})
	ProxyAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_attempts_total",
		Help:      "Total number of CORS proxy attempts by proxy host and status",
	}, []string{"proxy", "status"})
	ProviderCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_cache_total",
		Help:      "Race card cache lookups by result (hit, miss, stale)",
	}, []string{"result"})
	ProxyServerRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proxy_server_requests_total",
		Help:      "Requests served by the fetch pass-through server by status code",
	}, []string{"code"})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of HTTP client circuit breaker trips",
	})
)

// RecordProviderFetch records a race card fetch.
func RecordProviderFetch(source string, success bool, durationSeconds float64) {
	status := "success"
	if !success {
		status = "failure"
	}
	ProviderFetchesTotal.WithLabelValues(source, status).Inc()
	ProviderFetchDuration.WithLabelValues(source).Observe(durationSeconds)
}

// RecordProxyAttempt records one attempt through a CORS proxy.
func RecordProxyAttempt(proxy string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	ProxyAttemptsTotal.WithLabelValues(proxy, status).Inc()
}

// RecordCacheLookup records a cache lookup result.
func RecordCacheLookup(result string) {
	ProviderCacheTotal.WithLabelValues(result).Inc()
}

// RecordProxyServerRequest records a response of the pass-through server.
func RecordProxyServerRequest(code string) {
	ProxyServerRequestsTotal.WithLabelValues(code).Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}
