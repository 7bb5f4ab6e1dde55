package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 定义业务监控指标
type BusinessMetrics struct {
	PurchasesTotal      *prometheus.CounterVec
	PurchasedUnitsTotal *prometheus.CounterVec
	RejectedTotal       *prometheus.CounterVec
	RemainingCapacity   *prometheus.GaugeVec
	WithdrawalsTotal    *prometheus.CounterVec
	OperationDuration   *prometheus.HistogramVec
	RelayPublishedTotal *prometheus.CounterVec
}

// Global Metrics Instance
var Business *BusinessMetrics

// InitBusinessMetrics 初始化业务指标
func InitBusinessMetrics() {
	Business = &BusinessMetrics{
		PurchasesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_purchases_total",
			Help: "The total number of successful purchases",
		}, []string{"collection"}),
		PurchasedUnitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_purchased_units_total",
			Help: "The total reward units sold",
		}, []string{"collection"}),
		RejectedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_rejected_operations_total",
			Help: "Rejected operations by operation and reason code",
		}, []string{"operation", "code"}),
		RemainingCapacity: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "otc_collection_remaining_units",
			Help: "Remaining sellable units per collection",
		}, []string{"collection"}),
		WithdrawalsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_withdrawals_total",
			Help: "Total number of admin withdrawals",
		}, []string{"asset"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "otc_operation_duration_seconds",
			Help:    "Duration of engine operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		RelayPublishedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "otc_outbox_published_total",
			Help: "Outbox messages published to MQ",
		}, []string{"topic"}),
	}
}

// 以下 helper 在指标未初始化时 (例如单元测试) 直接跳过

func ObservePurchase(collection string, units float64) {
	if Business == nil {
		return
	}
	Business.PurchasesTotal.WithLabelValues(collection).Inc()
	Business.PurchasedUnitsTotal.WithLabelValues(collection).Add(units)
}

func ObserveRejected(operation string, code int) {
	if Business == nil {
		return
	}
	Business.RejectedTotal.WithLabelValues(operation, codeLabel(code)).Inc()
}

func ObserveDuration(operation string, seconds float64) {
	if Business == nil {
		return
	}
	Business.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

func ObserveWithdrawal(asset string) {
	if Business == nil {
		return
	}
	Business.WithdrawalsTotal.WithLabelValues(asset).Inc()
}

func SetRemainingCapacity(collection string, units float64) {
	if Business == nil {
		return
	}
	Business.RemainingCapacity.WithLabelValues(collection).Set(units)
}

func ObserveRelayPublished(topic string) {
	if Business == nil {
		return
	}
	Business.RelayPublishedTotal.WithLabelValues(topic).Inc()
}
