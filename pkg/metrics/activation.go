package metrics

import "github.com/prometheus/client_golang/prometheus"

// ActivationMetrics tracks webhook ingestion and the activation code lifecycle.
type ActivationMetrics struct {
	deliveries    *prometheus.CounterVec
	issued        prometheus.Counter
	checks        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	codes         *prometheus.GaugeVec
}

// NewActivationMetrics builds the collectors and registers them when reg is non-nil.
func NewActivationMetrics(reg prometheus.Registerer) *ActivationMetrics {
	m := &ActivationMetrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Webhook deliveries by outcome (created, replayed, invalid, failed).",
		}, []string{"outcome"}),
		issued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "codes_issued_total",
			Help:      "Activation codes issued.",
		}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "checks_total",
			Help:      "Activation code verifications and redemptions by result.",
		}, []string{"operation", "result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "notifications_total",
			Help:      "Activation notifications by channel and result.",
		}, []string{"channel", "result"}),
		codes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "codes",
			Help:      "Activation codes currently held, by state.",
		}, []string{"state"}),
	}
	register(reg, m.deliveries, m.issued, m.checks, m.notifications, m.codes)
	return m
}

func (m *ActivationMetrics) IncDelivery(outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *ActivationMetrics) IncIssued() {
	if m == nil {
		return
	}
	m.issued.Inc()
}

func (m *ActivationMetrics) IncCheck(operation, result string) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(normalizeLabel(operation), normalizeLabel(result)).Inc()
}

func (m *ActivationMetrics) IncNotification(channel, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(channel), normalizeLabel(result)).Inc()
}

// SetCodes publishes the latest per-state code counts.
func (m *ActivationMetrics) SetCodes(unused, used, expired int) {
	if m == nil {
		return
	}
	m.codes.WithLabelValues("unused").Set(float64(unused))
	m.codes.WithLabelValues("used").Set(float64(used))
	m.codes.WithLabelValues("expired").Set(float64(expired))
}
