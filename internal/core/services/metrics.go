package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	finesIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fines_issued_total",
		Help: "Fines issued from approved violations.",
	})

	paymentsRecordedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fines_payments_recorded_total",
		Help: "Successful payments and refund adjustments by method.",
	}, []string{"method"})

	gatewayVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fines_gateway_verifications_total",
		Help: "Gateway callback verifications by result.",
	}, []string{"result"})

	bulkItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fines_bulk_items_total",
		Help: "Bulk action items by action and result.",
	}, []string{"action", "result"})

	overdueSweepUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fines_overdue_sweep_updated_total",
		Help: "Fines written back by the overdue sweep.",
	})
)

func resultLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}
