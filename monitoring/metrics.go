package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	purchaseUnits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_purchase_units_total",
			Help: "Ticket units submitted, by event and result",
		},
		[]string{"event_id", "status"},
	)

	purchaseUnitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticket_purchase_unit_duration_seconds",
			Help:    "Time to build, sign and submit one ticket group",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"status"},
	)

	purchaseFlows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_purchase_flows_total",
			Help: "Completed purchase submission loops, by outcome",
		},
		[]string{"outcome"},
	)

	contractCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_contract_calls_total",
			Help: "Organizer/admin contract method calls",
		},
		[]string{"method", "status"},
	)

	contractEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_contract_events_total",
			Help: "Contract events received by the listener",
		},
		[]string{"type"},
	)

	openSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticket_purchase_sessions_open",
			Help: "Purchase sessions currently open",
		},
	)
)

// TrackPurchaseUnit は1枚分の送信結果を記録する
func TrackPurchaseUnit(eventID, status string, d time.Duration) {
	purchaseUnits.WithLabelValues(eventID, status).Inc()
	purchaseUnitDuration.WithLabelValues(status).Observe(d.Seconds())
}

// TrackPurchaseFlow は送信ループ全体の結果を記録する
func TrackPurchaseFlow(outcome string) {
	purchaseFlows.WithLabelValues(outcome).Inc()
}

// TrackContractCall はコントラクトメソッド呼び出しを記録する
func TrackContractCall(method string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	contractCalls.WithLabelValues(method, status).Inc()
}

// TrackContractEvent はリスナーが受信したイベントを記録する
func TrackContractEvent(eventType string) {
	contractEvents.WithLabelValues(eventType).Inc()
}

// SetOpenSessions は開いている購入セッション数を記録する
func SetOpenSessions(n int) {
	openSessions.Set(float64(n))
}
