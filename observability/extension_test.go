package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xraph/bazaar/id"
	"github.com/xraph/bazaar/observability"
	"github.com/xraph/bazaar/quota"
)

func TestMetricsThroughPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	factory := observability.NewPrometheusFactory(reg)
	m := observability.NewMetricsExtension(factory)
	ctx := context.Background()
	user := uuid.New()

	draws := []quota.Draw{
		{TransactionID: id.NewPaymentID(), Units: 2},
		{TransactionID: id.NewAddonPaymentID(), Units: 3},
	}
	_ = m.OnQuotaConsumed(ctx, user, quota.BudgetAds, draws)
	_ = m.OnQuotaExceeded(ctx, user, quota.BudgetAds, 10, 0)
	_ = m.OnQuotaExceeded(ctx, user, quota.BudgetPromote, 1, 0)
	_ = m.OnSweepCompleted(ctx, 0, 5*time.Millisecond)

	values := gather(t, reg)
	if got := values["bazaar_quota_consumed_units"]; got != 5 {
		t.Errorf("consumed units: got %v, want 5", got)
	}
	if got := values["bazaar_quota_exceeded"]; got != 2 {
		t.Errorf("exceeded: got %v, want 2", got)
	}
	if got := values["bazaar_expiry_sweep_latency_ms"]; got != 1 {
		t.Errorf("sweep observations: got %v, want 1", got)
	}

	if factory.Counter("bazaar.quota.exceeded") != m.QuotaExceeded {
		t.Error("factory should return the registered counter for a known name")
	}
}

// gather returns counter values and histogram sample counts by name.
func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				out[mf.GetName()] += metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				out[mf.GetName()] += float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}
