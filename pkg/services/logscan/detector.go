package logscan

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/shopspring/decimal"
)

const DefaultLookbackMinutes = 5

// Rule prices occurrences of a log pattern.
type Rule struct {
	ID                string
	Region            string
	LogGroup          string
	Pattern           string
	LookbackMinutes   int
	CostPerOccurrence decimal.Decimal
	Threshold         decimal.Decimal
	Action            domain.ActionID
	Params            domain.RemediationParams
}

func (r Rule) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("log rule id is required")
	case r.LogGroup == "":
		return fmt.Errorf("log_group is required")
	case r.Pattern == "":
		return fmt.Errorf("pattern is required")
	case r.LookbackMinutes <= 0:
		return fmt.Errorf("lookback_minutes must be > 0, got %d", r.LookbackMinutes)
	case r.CostPerOccurrence.IsNegative():
		return fmt.Errorf("cost_per_occurrence must be >= 0, got %s", r.CostPerOccurrence)
	case r.Threshold.IsNegative():
		return fmt.Errorf("threshold must be >= 0, got %s", r.Threshold)
	}
	if _, err := regexp.Compile(r.Pattern); err != nil {
		return fmt.Errorf("invalid pattern %q: %w", r.Pattern, err)
	}
	if !r.Action.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownAction, r.Action)
	}
	return r.Params.Validate(r.Action)
}

// Detector counts pattern matches and projects their cost.
type Detector struct {
	logs cost.LogQuerier
	now  func() time.Time
}

func NewDetector(logs cost.LogQuerier) *Detector {
	return &Detector{logs: logs, now: time.Now}
}

func (d *Detector) WithClock(now func() time.Time) *Detector {
	cp := *d
	cp.now = now
	return &cp
}

// Evaluate projects count * cost_per_occurrence. A failed query yields a
// zero-cost projection along with the error.
func (d *Detector) Evaluate(ctx context.Context, rule Rule) (domain.Projection, error) {
	end := d.now().UTC()
	start := end.Add(-time.Duration(rule.LookbackMinutes) * time.Minute)

	proj := domain.Projection{
		RuleID:        rule.ID,
		Model:         domain.PricingPerUnit,
		Region:        rule.Region,
		MetricValue:   decimal.Zero,
		RatePerSecond: decimal.Zero,
		HourlyCost:    decimal.Zero,
		ProjectedCost: decimal.Zero,
		Threshold:     rule.Threshold,
		Timestamp:     end,
	}

	count, err := d.logs.CountMatches(ctx, rule.Region, rule.LogGroup, rule.Pattern, start, end)
	if err != nil {
		return proj, fmt.Errorf("failed to query %s: %w", rule.LogGroup, err)
	}

	occurrences := decimal.NewFromInt(count)
	projected := occurrences.Mul(rule.CostPerOccurrence)
	proj.MetricValue = occurrences
	proj.RatePerSecond = occurrences.Div(decimal.NewFromInt(int64(rule.LookbackMinutes) * 60))
	proj.ProjectedCost = projected
	proj.Breach = projected.GreaterThan(rule.Threshold)
	return proj, nil
}
