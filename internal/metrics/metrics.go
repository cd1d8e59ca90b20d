// Package metrics exposes Prometheus counters and gauges the engine updates
// during operation:
//   - bot_cycles_total{outcome}     – evaluation cycles by outcome (signal|no_signal|skipped|error)
//   - bot_signals_confirmed_total   – composite signals that passed every check
//   - bot_orders_total{result}      – order submissions by result (accepted|rejected)
//   - bot_breakeven_moves_total     – stop-loss promotions to breakeven
//   - bot_governor_trips_total      – daily loss governor activations
//   - bot_account_balance           – last observed account balance (gauge)
//
// Registered in init() and served at /metrics in Prometheus text exposition
// format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_cycles_total",
			Help: "Evaluation cycles by outcome",
		},
		[]string{"outcome"}, // signal|no_signal|skipped|error
	)

	signalsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_signals_confirmed_total",
			Help: "Composite signals that passed every confirmation check",
		},
	)

	orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_orders_total",
			Help: "Order submissions by broker verdict",
		},
		[]string{"result"}, // accepted|rejected
	)

	breakevenMoves = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_breakeven_moves_total",
			Help: "Stop-loss promotions to the open price",
		},
	)

	governorTrips = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bot_governor_trips_total",
			Help: "Daily loss governor activations",
		},
	)

	accountBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_account_balance",
			Help: "Last observed account balance in account currency",
		},
	)
)

func init() {
	prometheus.MustRegister(cycles, signalsConfirmed, orders)
	prometheus.MustRegister(breakevenMoves, governorTrips, accountBalance)
}

// Cycle outcomes.
const (
	OutcomeSignal   = "signal"
	OutcomeNoSignal = "no_signal"
	OutcomeSkipped  = "skipped"
	OutcomeError    = "error"
)

func IncCycle(outcome string) { cycles.WithLabelValues(outcome).Inc() }

func IncSignalConfirmed() { signalsConfirmed.Inc() }

func IncOrderAccepted() { orders.WithLabelValues("accepted").Inc() }
func IncOrderRejected() { orders.WithLabelValues("rejected").Inc() }

func AddBreakevenMoves(n int) {
	if n > 0 {
		breakevenMoves.Add(float64(n))
	}
}

func IncGovernorTrip() { governorTrips.Inc() }

func SetAccountBalance(v float64) { accountBalance.Set(v) }

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler { return promhttp.Handler() }
