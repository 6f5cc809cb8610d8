package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWebhookMetricsCountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)
	m.Inc("charge.success", OutcomeProcessed)
	m.Inc("charge.success", OutcomeDuplicate)
	m.Inc("charge.success", OutcomeDuplicate)
	m.Inc("", OutcomeInvalidSignature)

	if got := testutil.ToFloat64(m.events.WithLabelValues("charge.success", OutcomeDuplicate)); got != 2 {
		t.Fatalf("expected 2 duplicates, got %f", got)
	}
	if got := testutil.ToFloat64(m.events.WithLabelValues("unknown", OutcomeInvalidSignature)); got != 1 {
		t.Fatalf("expected empty event label to normalize, got %f", got)
	}
}

func TestClaimMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClaimMetrics(reg)
	m.Inc(OutcomeClaimed)
	m.Inc(OutcomeAlreadyTaken)
	m.Inc(OutcomeAlreadyTaken)

	if got := testutil.ToFloat64(m.claims.WithLabelValues(OutcomeAlreadyTaken)); got != 2 {
		t.Fatalf("expected 2 already_taken, got %f", got)
	}
	if n := testutil.CollectAndCount(m.claims); n != 2 {
		t.Fatalf("expected 2 series, got %d", n)
	}

	var nilMetrics *ClaimMetrics
	nilMetrics.Inc(OutcomeClaimed)
}
