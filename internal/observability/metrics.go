// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solana-copy-trader/internal/domain"
	"solana-copy-trader/internal/ledger"
)

// Register exposes the trade statistics and position ledger as Prometheus
// metrics. The stats collector is the source of truth; metrics read from it
// on scrape instead of being incremented inline.
func Register(namespace string, stats *domain.TradeStats, led *ledger.Ledger) {
	if namespace == "" {
		namespace = "copy_trader"
	}

	counter := func(name, help string, value func(domain.TradeStats) float64) {
		promauto.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trades",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(stats.Snapshot()) })
	}

	counter("detected_total", "Total swap events detected in tracked wallets",
		func(s domain.TradeStats) float64 { return float64(s.Detected) })
	counter("copied_total", "Total copy trades executed",
		func(s domain.TradeStats) float64 { return float64(s.Copied) })
	counter("skipped_total", "Total signals rejected by the filter chain",
		func(s domain.TradeStats) float64 { return float64(s.Skipped) })
	counter("failed_total", "Total failed trade executions",
		func(s domain.TradeStats) float64 { return float64(s.Failed) })
	counter("sol_spent_total", "Total SOL spent on copied buys",
		func(s domain.TradeStats) float64 { return s.SOLSpent })
	counter("sol_received_total", "Total SOL received from sells",
		func(s domain.TradeStats) float64 { return s.SOLReceived })

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "positions",
		Name:      "open",
		Help:      "Number of currently open positions",
	}, func() float64 { return float64(led.OpenCount()) })

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "trades",
		Name:      "realized_pnl_sol",
		Help:      "Cumulative realized profit/loss in SOL",
	}, func() float64 { return stats.Snapshot().RealizedPnL })
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
