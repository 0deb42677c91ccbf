package metrics

import (
	"context"
	"net/http"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/guardian"
	"github.com/de-tools/cost-guardian/pkg/services/pricing"
	"github.com/de-tools/cost-guardian/pkg/services/remediation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "cost_guardian"

var (
	_ guardian.Sink        = (*Collector)(nil)
	_ pricing.Observer     = (*Collector)(nil)
	_ remediation.Observer = (*Collector)(nil)
)

// Collector owns a private registry with the guardian's metrics.
//
// Metrics:
//   - cost_guardian_projected_total_usd: last projected period total by mode
//   - cost_guardian_actual_spend_usd: last billed spend
//   - cost_guardian_budget_percent: last projected share of the budget
//   - cost_guardian_hourly_cost_usd: last hourly burn of running resources
//   - cost_guardian_evaluations_total: evaluations by mode, action and dry run
//   - cost_guardian_rule_breaches_total: breached rules by rule id
//   - cost_guardian_remediation_items_total: remediation items by action and status
//   - cost_guardian_price_lookups_total: price resolutions by outcome
type Collector struct {
	registry *prometheus.Registry

	projectedTotal *prometheus.GaugeVec
	actualSpend    prometheus.Gauge
	budgetPercent  prometheus.Gauge
	hourlyCost     prometheus.Gauge
	evaluations    *prometheus.CounterVec
	ruleBreaches   *prometheus.CounterVec
	remediations   *prometheus.CounterVec
	priceLookups   *prometheus.CounterVec
}

// NewCollector registers every metric on registry, or on a fresh one when
// registry is nil.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		projectedTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "projected_total_usd",
			Help:      "Projected cost of the last evaluation in USD",
		}, []string{"mode"}),
		actualSpend: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "actual_spend_usd",
			Help:      "Billed spend for the current period in USD",
		}),
		budgetPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "budget_percent",
			Help:      "Projected period total as a percentage of the budget",
		}),
		hourlyCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "hourly_cost_usd",
			Help:      "Hourly cost of running resources in USD",
		}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "evaluations_total",
			Help:      "Completed evaluations by mode and action",
		}, []string{"mode", "action", "dry_run"}),
		ruleBreaches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rule_breaches_total",
			Help:      "Rule projections above their threshold",
		}, []string{"rule_id"}),
		remediations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "remediation_items_total",
			Help:      "Remediation item results by action and status",
		}, []string{"action", "status"}),
		priceLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "price_lookups_total",
			Help:      "Price resolutions by outcome",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		c.projectedTotal,
		c.actualSpend,
		c.budgetPercent,
		c.hourlyCost,
		c.evaluations,
		c.ruleBreaches,
		c.remediations,
		c.priceLookups,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler exposes the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Record updates gauges and counters from a completed evaluation.
func (c *Collector) Record(_ context.Context, result *domain.EvaluationResult) error {
	c.evaluations.WithLabelValues(
		string(result.Mode),
		string(result.Action()),
		boolLabel(result.DryRun),
	).Inc()
	c.projectedTotal.WithLabelValues(string(result.Mode)).Set(result.ProjectedTotal().InexactFloat64())

	if b := result.Budget; b != nil {
		c.actualSpend.Set(b.ActualSpend.InexactFloat64())
		c.budgetPercent.Set(b.BudgetPercent.InexactFloat64())
		c.hourlyCost.Set(b.HourlyCost.InexactFloat64())
	}
	for _, id := range result.BreachedRules() {
		c.ruleBreaches.WithLabelValues(id).Inc()
	}
	return nil
}

func (c *Collector) ObservePriceLookup(outcome string) {
	c.priceLookups.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObserveRemediation(action domain.ActionID, status domain.ItemStatus) {
	c.remediations.WithLabelValues(string(action), string(status)).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
