package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_orders_created_total",
		Help: "Total number of orders created.",
	})

	DeliveriesConfirmedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_deliveries_confirmed_total",
		Help: "Total number of deliveries confirmed, by whether a return pickup was scheduled.",
	},
		[]string{"return"},
	)

	ReturnsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_returns_completed_total",
		Help: "Total number of scheduled return pickups completed.",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_orders_cancelled_total",
		Help: "Total number of orders cancelled.",
	})

	OrdersExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "courier_orders_expired_total",
		Help: "Total number of delivered orders removed after the retention window.",
	})

	SyncErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_sync_errors_total",
		Help: "Total number of errors talking to the remote store, by operation.",
	},
		[]string{"operation"},
	)

	ActiveOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "courier_active_orders",
		Help: "Current number of orders on the board.",
	})
)
