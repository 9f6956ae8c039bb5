package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics covers the payment-primitive side of the platform.
type BusinessMetrics struct {
	TransfersTotal         *prometheus.CounterVec
	TransferVolumeCents    *prometheus.CounterVec
	RefundsTotal           *prometheus.CounterVec
	TransitionsTotal       *prometheus.CounterVec
	RateDriftCancellations prometheus.Counter
	WebhookDeliveriesTotal *prometheus.CounterVec
	SweeperRunDuration     prometheus.Histogram
	IdempotencyReplays     prometheus.Counter
}

var Business *BusinessMetrics

func InitBusinessMetrics() {
	Business = &BusinessMetrics{
		TransfersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowpay_transfers_total",
			Help: "Ledger transfers by entity type and outcome",
		}, []string{"entity", "outcome"}),
		TransferVolumeCents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowpay_transfer_volume_cents_total",
			Help: "Settled transfer volume in minor units",
		}, []string{"entity", "currency"}),
		RefundsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowpay_refunds_total",
			Help: "Reverse transfers by entity type and outcome",
		}, []string{"entity", "outcome"}),
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowpay_state_transitions_total",
			Help: "Committed state transitions by entity type and target status",
		}, []string{"entity", "status"}),
		RateDriftCancellations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flowpay_rate_drift_cancellations_total",
			Help: "Corridors and FX pools cancelled due to rate drift",
		}),
		WebhookDeliveriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flowpay_webhook_deliveries_total",
			Help: "Webhook delivery attempts by outcome",
		}, []string{"outcome"}),
		SweeperRunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowpay_sweeper_run_duration_seconds",
			Help:    "Duration of expiry sweeper passes",
			Buckets: prometheus.DefBuckets,
		}),
		IdempotencyReplays: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flowpay_idempotency_replays_total",
			Help: "Requests answered from the idempotency cache",
		}),
	}
}
