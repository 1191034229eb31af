// Package metrics provides the Prometheus metrics registry for keiba-sim.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "keiba_sim"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Simulation counters
var (
	TicketsGeneratedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tickets_generated_total",
		Help:      "Total number of tickets generated by bet type and method",
	}, []string{"bet_type", "method"})
	SimulationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "simulations_total",
		Help:      "Total number of simulation runs by bet type and outcome",
	}, []string{"bet_type", "outcome"})
	TicketHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticket_hits_total",
		Help:      "Total number of winning tickets by bet type",
	}, []string{"bet_type"})
	StakeTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stake_yen_total",
		Help:      "Total simulated stake in yen",
	})
	PayoutTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payout_yen_total",
		Help:      "Total simulated payout in yen",
	})
)

// Simulation gauges and histograms
var (
	LastReturnRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_return_rate_percent",
		Help:      "Return rate of the most recent simulation",
	})
	SimulationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "simulation_duration_seconds",
		Help:      "Duration of simulation runs in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	TicketsPerSimulation = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tickets_per_simulation",
		Help:      "Number of tickets evaluated per simulation",
		Buckets:   []float64{1, 3, 6, 10, 20, 60, 120, 360, 1000},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(TicketsGeneratedTotal)
		registry.MustRegister(SimulationsTotal)
		registry.MustRegister(TicketHitsTotal)
		registry.MustRegister(StakeTotal)
		registry.MustRegister(PayoutTotal)
		registry.MustRegister(LastReturnRate)
		registry.MustRegister(SimulationDuration)
		registry.MustRegister(TicketsPerSimulation)

		// Provider and proxy metrics
		registry.MustRegister(ProviderFetchesTotal)
		registry.MustRegister(ProviderFetchDuration)
		registry.MustRegister(ProxyAttemptsTotal)
		registry.MustRegister(ProviderCacheTotal)
		registry.MustRegister(ProxyServerRequestsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)

		// Backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(BacktestReturnRate)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordTicketsGenerated records a ticket expansion.
func RecordTicketsGenerated(betType, method string, count int) {
	TicketsGeneratedTotal.WithLabelValues(betType, method).Add(float64(count))
}

// RecordSimulation records a completed simulation run.
func RecordSimulation(betType string, tickets, hits int, stake, payout int64, returnRate, durationSeconds float64) {
	SimulationsTotal.WithLabelValues(betType, "completed").Inc()
	TicketHitsTotal.WithLabelValues(betType).Add(float64(hits))
	StakeTotal.Add(float64(stake))
	PayoutTotal.Add(float64(payout))
	LastReturnRate.Set(returnRate)
	SimulationDuration.Observe(durationSeconds)
	TicketsPerSimulation.Observe(float64(tickets))
}

// RecordSimulationOutcome records a simulation that ended without a result,
// outcome is "no_result", "invalid" or "provider_error".
func RecordSimulationOutcome(betType, outcome string) {
	SimulationsTotal.WithLabelValues(betType, outcome).Inc()
}
