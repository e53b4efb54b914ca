// Package metrics exposes Prometheus counters for the fulfillment
// pipeline. Counters only; latency histograms can come later if the
// dashboards need them.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "electromart_orders_placed_total",
		Help: "Total number of orders placed",
	})

	PaymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "electromart_payments_recorded_total",
		Help: "Total number of payments recorded and linked",
	})

	PaymentsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "electromart_payments_confirmed_total",
		Help: "Total number of payments confirmed",
	})

	PaymentsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "electromart_payments_deleted_total",
		Help: "Total number of payments deleted",
	})

	PartialFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "electromart_partial_failures_total",
		Help: "Total number of fulfillment sequences that needed reconciliation",
	})

	InvalidTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "electromart_invalid_transitions_total",
		Help: "Total number of rejected order item status transitions",
	})
)

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
