package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Subscription lifecycle metrics
	subscriptionsAddedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subscriptions_added_total",
		Help: "Total number of subscriptions added",
	}, []string{
		"tier",  // free, pro
		"cycle", // weekly, monthly, yearly
	})

	subscriptionsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subscriptions_deleted_total",
		Help: "Total number of subscriptions deleted",
	})

	freeLimitRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "free_limit_rejections_total",
		Help: "Add attempts rejected by the free tier limit",
	})

	// Renewal sweep metrics
	sweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "renewal_sweep_runs_total",
		Help: "Total overdue-renewal sweep runs",
	}, []string{
		"trigger", // startup, cron, manual
		"status",  // success, failed
	})

	sweepNormalizedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "renewal_sweep_normalized_total",
		Help: "Subscriptions whose renewal date was rolled forward by a sweep",
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "renewal_sweep_duration_seconds",
		Help:    "Duration of overdue-renewal sweeps",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	})

	// Notification metrics
	notificationsScheduledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_scheduled_total",
		Help: "Total renewal notification (re)schedules",
	}, []string{
		"status", // success, failed
	})

	// Export metrics
	csvExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "csv_exports_total",
		Help: "Total CSV export requests",
	}, []string{
		"status", // success, locked, failed
	})

	// Purchase metrics
	purchasesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pro_purchases_total",
		Help: "Total Pro purchase attempts",
	}, []string{
		"status", // success, cancelled, failed
	})
)

// RecordSubscriptionAdded records a completed add
func RecordSubscriptionAdded(isPro bool, cycle string) {
	subscriptionsAddedTotal.WithLabelValues(tierLabel(isPro), cycle).Inc()
}

// RecordSubscriptionDeleted records a completed delete
func RecordSubscriptionDeleted() {
	subscriptionsDeletedTotal.Inc()
}

// RecordFreeLimitRejection records an add rejected by the free tier cap
func RecordFreeLimitRejection() {
	freeLimitRejectionsTotal.Inc()
}

// RecordSweep records one sweep run
func RecordSweep(trigger string, seconds float64, normalized int, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	sweepRunsTotal.WithLabelValues(trigger, status).Inc()
	sweepDuration.Observe(seconds)
	if normalized > 0 {
		sweepNormalizedTotal.Add(float64(normalized))
	}
}

// RecordNotificationScheduled records a notification schedule attempt
func RecordNotificationScheduled(err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	notificationsScheduledTotal.WithLabelValues(status).Inc()
}

// RecordCSVExport records an export attempt
func RecordCSVExport(status string) {
	csvExportsTotal.WithLabelValues(status).Inc()
}

// RecordPurchase records a Pro purchase attempt
func RecordPurchase(status string) {
	purchasesTotal.WithLabelValues(status).Inc()
}

func tierLabel(isPro bool) string {
	if isPro {
		return "pro"
	}
	return "free"
}
