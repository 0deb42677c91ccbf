package decision

import (
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// DefaultAlertThresholds and DefaultAutoStopThreshold are budget percentages.
var DefaultAlertThresholds = []int{50, 75, 90}

const DefaultAutoStopThreshold = 100

type Input struct {
	BudgetPercent     decimal.Decimal
	ActualSpend       decimal.Decimal
	Budget            decimal.Decimal
	AlertThresholds   []int
	AutoStopThreshold int
	Spikes            []domain.RateSpike
}

type Decision struct {
	Action         domain.Action
	Breached       []int
	ActualExceeded bool
}

// Decide resolves the account action. Actual overspend wins over any
// projection and reports every configured threshold as breached. Spikes only
// promote an otherwise ok result.
func Decide(in Input) Decision {
	d := resolve(in)
	if d.Action == domain.ActionOK && len(in.Spikes) > 0 {
		d.Action = domain.ActionSpikeAlert
	}
	return d
}

func resolve(in Input) Decision {
	if in.ActualSpend.GreaterThan(in.Budget) {
		all := make([]int, len(in.AlertThresholds))
		copy(all, in.AlertThresholds)
		return Decision{Action: domain.ActionStopAll, Breached: all, ActualExceeded: true}
	}

	breached := []int{}
	for _, t := range in.AlertThresholds {
		if in.BudgetPercent.GreaterThanOrEqual(decimal.NewFromInt(int64(t))) {
			breached = append(breached, t)
		}
	}

	switch {
	case in.BudgetPercent.GreaterThanOrEqual(decimal.NewFromInt(int64(in.AutoStopThreshold))):
		return Decision{Action: domain.ActionStopAll, Breached: breached}
	case len(breached) > 0:
		return Decision{Action: domain.ActionAlert, Breached: breached}
	default:
		return Decision{Action: domain.ActionOK, Breached: breached}
	}
}
