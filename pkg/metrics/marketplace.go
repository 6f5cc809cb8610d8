package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcome labels shared by the marketplace counters.
const (
	OutcomeProcessed        = "processed"
	OutcomeDuplicate        = "duplicate"
	OutcomeIgnored          = "ignored"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeFailed           = "failed"

	OutcomeClaimed      = "claimed"
	OutcomeAlreadyTaken = "already_taken"
	OutcomeNotFound     = "not_found"
)

// WebhookMetrics counts payment webhook deliveries by event and outcome.
type WebhookMetrics struct {
	events *prometheus.CounterVec
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "propscout_paystack_webhook_events_total",
		Help: "Paystack webhook deliveries by event and outcome.",
	}, []string{"event", "outcome"})
	reg.MustRegister(events)
	return &WebhookMetrics{events: events}
}

func (w *WebhookMetrics) Inc(event, outcome string) {
	if w == nil || w.events == nil {
		return
	}
	w.events.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

// ClaimMetrics counts job claim attempts by outcome.
type ClaimMetrics struct {
	claims *prometheus.CounterVec
}

func NewClaimMetrics(reg prometheus.Registerer) *ClaimMetrics {
	if reg == nil {
		return &ClaimMetrics{}
	}
	claims := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "propscout_visit_claims_total",
		Help: "Scout claim attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(claims)
	return &ClaimMetrics{claims: claims}
}

func (c *ClaimMetrics) Inc(outcome string) {
	if c == nil || c.claims == nil {
		return
	}
	c.claims.WithLabelValues(normalizeLabel(outcome)).Inc()
}
