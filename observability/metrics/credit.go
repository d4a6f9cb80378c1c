package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// CreditMetrics aggregates the prometheus collectors tracking credit-module
// activity. Collectors register against the default registry exactly once.
type CreditMetrics struct {
	accruals          *prometheus.CounterVec
	interestAccrued   *prometheus.CounterVec
	cyclesClosed      *prometheus.CounterVec
	obligationsPosted *prometheus.CounterVec
	markdownDelta     *prometheus.GaugeVec
	rejectedOps       *prometheus.CounterVec
}

var (
	creditOnce     sync.Once
	creditRegistry *CreditMetrics
)

// Credit returns the process-wide credit metrics registry.
func Credit() *CreditMetrics {
	creditOnce.Do(func() {
		creditRegistry = &CreditMetrics{
			accruals: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "credit_accruals_total",
				Help: "Count of interest accrual executions by market.",
			}, []string{"market"}),
			interestAccrued: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "credit_interest_accrued_total",
				Help: "Cumulative interest compounded into markets, in base units.",
			}, []string{"market", "component"}),
			cyclesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "credit_cycles_closed_total",
				Help: "Count of payment cycles closed by market.",
			}, []string{"market"}),
			obligationsPosted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "credit_obligations_posted_total",
				Help: "Count of repayment obligations posted by market.",
			}, []string{"market"}),
			markdownDelta: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "credit_total_markdown",
				Help: "Current aggregate markdown provision per market, in base units.",
			}, []string{"market"}),
			rejectedOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "credit_rejected_operations_total",
				Help: "Count of operations rejected before any state change, by reason.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			creditRegistry.accruals,
			creditRegistry.interestAccrued,
			creditRegistry.cyclesClosed,
			creditRegistry.obligationsPosted,
			creditRegistry.markdownDelta,
			creditRegistry.rejectedOps,
		)
	})
	return creditRegistry
}

// RecordAccrual counts one accrual touch and the interest it produced.
func (m *CreditMetrics) RecordAccrual(market, component string, interest float64) {
	if m == nil {
		return
	}
	m.accruals.WithLabelValues(market).Inc()
	if interest > 0 {
		m.interestAccrued.WithLabelValues(market, component).Add(interest)
	}
}

// RecordCycleClose counts a closed cycle and its posted obligations.
func (m *CreditMetrics) RecordCycleClose(market string, obligations int) {
	if m == nil {
		return
	}
	m.cyclesClosed.WithLabelValues(market).Inc()
	m.obligationsPosted.WithLabelValues(market).Add(float64(obligations))
}

// SetMarkdown records the market's aggregate markdown after a change.
func (m *CreditMetrics) SetMarkdown(market string, total float64) {
	if m == nil {
		return
	}
	m.markdownDelta.WithLabelValues(market).Set(total)
}

// RecordRejection counts an operation rejected before mutation.
func (m *CreditMetrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.rejectedOps.WithLabelValues(reason).Inc()
}
