package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/pricing"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Record(t *testing.T) {
	c := NewCollector(nil)
	ctx := context.Background()

	require.NoError(t, c.Record(ctx, &domain.EvaluationResult{
		Mode: domain.ModeBudget,
		Budget: &domain.BudgetStatus{
			ActualSpend:    decimal.RequireFromString("420.5"),
			HourlyCost:     decimal.RequireFromString("1.25"),
			ProjectedTotal: decimal.RequireFromString("900"),
			BudgetPercent:  decimal.RequireFromString("90"),
			Action:         domain.ActionAlert,
		},
	}))
	require.NoError(t, c.Record(ctx, &domain.EvaluationResult{
		Mode:   domain.ModeRules,
		DryRun: true,
		Rules: []domain.RuleEvaluation{
			{RuleID: "api", Projection: domain.Projection{ProjectedCost: decimal.RequireFromString("6"), Breach: true}},
			{RuleID: "db", Projection: domain.Projection{ProjectedCost: decimal.RequireFromString("1")}},
		},
	}))

	assert.Equal(t, 420.5, testutil.ToFloat64(c.actualSpend))
	assert.Equal(t, 90.0, testutil.ToFloat64(c.budgetPercent))
	assert.Equal(t, 1.25, testutil.ToFloat64(c.hourlyCost))
	assert.Equal(t, 900.0, testutil.ToFloat64(c.projectedTotal.WithLabelValues("budget")))
	assert.Equal(t, 7.0, testutil.ToFloat64(c.projectedTotal.WithLabelValues("rules")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.evaluations.WithLabelValues("budget", "alert", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.evaluations.WithLabelValues("rules", "alert", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ruleBreaches.WithLabelValues("api")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.ruleBreaches.WithLabelValues("db")))
}

func TestCollector_Observers(t *testing.T) {
	c := NewCollector(nil)

	c.ObservePriceLookup(pricing.OutcomeHit)
	c.ObservePriceLookup(pricing.OutcomeHit)
	c.ObservePriceLookup(pricing.OutcomeFallback)
	c.ObserveRemediation(domain.ActionStopEC2, domain.StatusStopped)
	c.ObserveRemediation(domain.ActionStopEC2, domain.StatusError)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.priceLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.priceLookups.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.remediations.WithLabelValues("stop_ec2", "stopped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.remediations.WithLabelValues("stop_ec2", "error")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(nil)
	c.ObservePriceLookup(pricing.OutcomeMiss)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `cost_guardian_price_lookups_total{outcome="miss"} 1`)
}
