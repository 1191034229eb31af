package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by strategy and status",
	}, []string{"strategy", "status"})
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
	BacktestReturnRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_return_rate_percent",
		Help:      "Return rate of the latest backtest per strategy",
	}, []string{"strategy"})
)

// RecordBacktestRun records a backtest run event.
// status should be one of: "success", "failure"
func RecordBacktestRun(strategy, status string, durationSeconds float64) {
	BacktestRunsTotal.WithLabelValues(strategy, status).Inc()
	BacktestDuration.Observe(durationSeconds)
}

// UpdateBacktestReturnRate sets the latest return rate for a strategy.
func UpdateBacktestReturnRate(strategy string, returnRate float64) {
	BacktestReturnRate.WithLabelValues(strategy).Set(returnRate)
}
