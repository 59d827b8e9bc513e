package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerOperationDuration tracks the latency of ledger operations
	LedgerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ledger_operation_duration_seconds",
			Help: "Duration of campaign ledger operations in seconds",
			Buckets: []float64{
				0.0005, // 0.5ms
				0.001,  // 1ms
				0.005,  // 5ms
				0.01,   // 10ms
				0.025,  // 25ms
				0.05,   // 50ms
				0.1,    // 100ms
				0.25,   // 250ms
				0.5,    // 500ms
				1.0,    // 1s
			},
		},
		[]string{"operation", "result"}, // result is "success" or the ledger error kind
	)

	// CampaignsSettled counts status transitions out of active
	CampaignsSettled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_campaigns_settled_total",
			Help: "Number of campaigns moved out of the active state, by resulting status",
		},
		[]string{"status"},
	)

	// FundsMoved sums amounts contributed, refunded and released to creators
	FundsMoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_funds_moved_total",
			Help: "Amounts moved through the ledger in the smallest currency unit",
		},
		[]string{"direction"}, // contributed, refunded, claimed, fee
	)
)

// RecordOperationDuration records the duration of a ledger operation
func RecordOperationDuration(operation, result string, duration float64) {
	LedgerOperationDuration.WithLabelValues(operation, result).Observe(duration)
}

// RecordSettled records a campaign leaving the active state
func RecordSettled(status string) {
	CampaignsSettled.WithLabelValues(status).Inc()
}

// RecordFunds records an amount moved in the given direction
func RecordFunds(direction string, amount int64) {
	if amount <= 0 {
		return
	}
	FundsMoved.WithLabelValues(direction).Add(float64(amount))
}
