// Package metrics exposes the bot's Prometheus metrics:
//   - orb_ticks_total                 – controller passes
//   - orb_tick_errors_total           – passes that failed
//   - orb_orders_placed_total{side}   – accepted stop orders
//   - orb_order_failures_total        – rejected submissions
//   - orb_session_skips_total{reason} – sessions ended without an order
//   - orb_range_high / orb_range_low  – current session range (gauges)
//
// Registered in init() and served at /metrics by Serve.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mtxTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orb_ticks_total",
		Help: "Controller passes",
	})

	mtxTickErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orb_tick_errors_total",
		Help: "Controller passes that failed",
	})

	mtxOrders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orb_orders_placed_total",
		Help: "Accepted stop orders",
	}, []string{"side"})

	mtxOrderFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orb_order_failures_total",
		Help: "Rejected stop order submissions",
	})

	mtxSkips = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orb_session_skips_total",
		Help: "Sessions finished without an order, by reason",
	}, []string{"reason"})

	mtxRangeHigh = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orb_range_high",
		Help: "Current session opening-range high",
	})

	mtxRangeLow = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orb_range_low",
		Help: "Current session opening-range low",
	})
)

func init() {
	prometheus.MustRegister(
		mtxTicks, mtxTickErrors, mtxOrders, mtxOrderFailures, mtxSkips,
		mtxRangeHigh, mtxRangeLow,
	)
}

func IncTick() { mtxTicks.Inc() }

func IncTickError() { mtxTickErrors.Inc() }

func IncOrderPlaced(side string) { mtxOrders.WithLabelValues(side).Inc() }

func IncOrderFailed() { mtxOrderFailures.Inc() }

func IncSkip(reason string) { mtxSkips.WithLabelValues(reason).Inc() }

func SetRange(high, low float64) {
	mtxRangeHigh.Set(high)
	mtxRangeLow.Set(low)
}

func ResetRange() {
	mtxRangeHigh.Set(0)
	mtxRangeLow.Set(0)
}

// Serve starts the /metrics endpoint. Errors other than a clean shutdown are
// returned to the caller's goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
