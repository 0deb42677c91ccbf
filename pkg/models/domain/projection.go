package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Projection is the outcome of projecting one rule forward. It carries the
// samples or resources it was computed from so remediation can act on the
// same set.
type Projection struct {
	RuleID        string               `json:"rule_id"`
	Model         PricingModel         `json:"pricing_model"`
	Region        string               `json:"region,omitempty"`
	MetricValue   decimal.Decimal      `json:"metric_value"`
	RatePerSecond decimal.Decimal      `json:"rate_per_second"`
	HourlyCost    decimal.Decimal      `json:"hourly_cost"`
	ProjectedCost decimal.Decimal      `json:"projected_cost"`
	Threshold     decimal.Decimal      `json:"threshold"`
	Breach        bool                 `json:"breach"`
	Timestamp     time.Time            `json:"timestamp"`
	Samples       []MetricSample       `json:"samples,omitempty"`
	Resources     []ResourceDescriptor `json:"resources,omitempty"`
}

// ResourceIDs returns the ids of carried resources of the given kind.
func (p Projection) ResourceIDs(kind ResourceKind) []string {
	var ids []string
	for _, r := range p.Resources {
		if r.Kind == kind {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// ResourcesOf returns the carried resources of the given kind.
func (p Projection) ResourcesOf(kind ResourceKind) []ResourceDescriptor {
	var out []ResourceDescriptor
	for _, r := range p.Resources {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}
