package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingModel selects the projection formula for a rule.
type PricingModel string

const (
	PricingPerUnit PricingModel = "per_unit"
	PricingHourly  PricingModel = "hourly"
)

func ParsePricingModel(s string) (PricingModel, error) {
	switch PricingModel(s) {
	case "", PricingPerUnit:
		return PricingPerUnit, nil
	case PricingHourly:
		return PricingHourly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPricingModel, s)
}

// Rule is a named cost guard. Rules are built once from configuration and are
// read-only afterwards.
type Rule struct {
	ID                 string
	Namespace          string
	MetricName         string
	Dimensions         []Dimension
	LookbackSeconds    int64
	ProjectionSeconds  int64
	PricingModel       PricingModel
	UnitCost           *decimal.Decimal
	FallbackHourlyCost *decimal.Decimal
	Threshold          decimal.Decimal
	Action             ActionID
	Params             RemediationParams
	Statistic          Statistic
	PeriodSeconds      int32
	InstanceFilter     InstanceFilter
	Region             string
}

// TargetKind maps an hourly rule namespace onto the resource kind it prices.
func (r Rule) TargetKind() (ResourceKind, bool) {
	switch r.Namespace {
	case "AWS/EC2":
		return KindComputeInstance, true
	case "AWS/RDS":
		return KindManagedDatabase, true
	case "AWS/ECS":
		return KindContainerService, true
	case "AWS/AppRunner":
		return KindPlatformService, true
	}
	return "", false
}

// Validate checks the structural invariants of a rule.
func (r Rule) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("rule id is required")
	case r.LookbackSeconds <= 0:
		return fmt.Errorf("lookback_seconds must be > 0, got %d", r.LookbackSeconds)
	case r.ProjectionSeconds <= 0:
		return fmt.Errorf("projection_seconds must be > 0, got %d", r.ProjectionSeconds)
	case r.Threshold.IsNegative():
		return fmt.Errorf("threshold must be >= 0, got %s", r.Threshold)
	case !r.Statistic.Valid():
		return fmt.Errorf("unknown statistic %q", r.Statistic)
	case r.PeriodSeconds <= 0:
		return fmt.Errorf("period must be > 0, got %d", r.PeriodSeconds)
	}

	switch r.PricingModel {
	case PricingPerUnit:
		if r.UnitCost == nil {
			return fmt.Errorf("per_unit pricing requires unit_cost")
		}
		if r.UnitCost.IsNegative() {
			return fmt.Errorf("unit_cost must be >= 0, got %s", r.UnitCost)
		}
	case PricingHourly:
		if _, ok := r.TargetKind(); !ok {
			return fmt.Errorf("hourly pricing is not supported for namespace %q", r.Namespace)
		}
		if r.FallbackHourlyCost != nil && r.FallbackHourlyCost.IsNegative() {
			return fmt.Errorf("fallback_hourly_cost must be >= 0, got %s", r.FallbackHourlyCost)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPricingModel, r.PricingModel)
	}

	if !r.Action.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, r.Action)
	}
	return r.Params.Validate(r.Action)
}
