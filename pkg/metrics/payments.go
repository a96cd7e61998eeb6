package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records IPN processing outcomes per provider.
type PaymentMetrics struct {
	ipnReceived  *prometheus.CounterVec
	ipnOutcome   *prometheus.CounterVec
	ipnDuration  *prometheus.HistogramVec
	linksCreated *prometheus.CounterVec
}

// NewPaymentMetrics registers payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_ipn_received_total",
		Help: "IPN callbacks received, per provider.",
	}, []string{"provider"})
	outcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_ipn_outcome_total",
		Help: "IPN acknowledgement codes returned, per provider.",
	}, []string{"provider", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_ipn_duration_seconds",
		Help:    "Duration of IPN reconciliation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	links := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_links_created_total",
		Help: "Payment links built for checkout, per provider.",
	}, []string{"provider"})
	reg.MustRegister(received, outcome, duration, links)
	return &PaymentMetrics{
		ipnReceived:  received,
		ipnOutcome:   outcome,
		ipnDuration:  duration,
		linksCreated: links,
	}
}

// IncReceived counts an incoming IPN callback.
func (p *PaymentMetrics) IncReceived(provider string) {
	if p == nil || p.ipnReceived == nil {
		return
	}
	p.ipnReceived.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncOutcome counts the acknowledgement code returned for an IPN.
func (p *PaymentMetrics) IncOutcome(provider, code string) {
	if p == nil || p.ipnOutcome == nil {
		return
	}
	p.ipnOutcome.WithLabelValues(normalizeLabel(provider), normalizeLabel(code)).Inc()
}

// ObserveDuration records reconciliation time for the provider.
func (p *PaymentMetrics) ObserveDuration(provider string, duration time.Duration) {
	if p == nil || p.ipnDuration == nil {
		return
	}
	p.ipnDuration.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

// IncLinkCreated counts a successfully built payment link.
func (p *PaymentMetrics) IncLinkCreated(provider string) {
	if p == nil || p.linksCreated == nil {
		return
	}
	p.linksCreated.WithLabelValues(normalizeLabel(provider)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
