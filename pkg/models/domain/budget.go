package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the account-wide decision for one evaluation.
type Action string

const (
	ActionOK         Action = "ok"
	ActionAlert      Action = "alert"
	ActionSpikeAlert Action = "spike_alert"
	ActionStopAll    Action = "stop_all"
)

// Severity orders actions: ok < spike_alert < alert < stop_all.
func (a Action) Severity() int {
	switch a {
	case ActionOK:
		return 0
	case ActionSpikeAlert:
		return 1
	case ActionAlert:
		return 2
	case ActionStopAll:
		return 3
	}
	return -1
}

// RateSpike is emitted when a short-window rate exceeds the baseline by the
// configured ratio.
type RateSpike struct {
	ResourceID         string          `json:"resource_id"`
	Region             string          `json:"region"`
	CurrentRate        decimal.Decimal `json:"current_rate"`
	BaselineRate       decimal.Decimal `json:"baseline_rate"`
	Ratio              decimal.Decimal `json:"ratio"`
	ProjectedDailyCost decimal.Decimal `json:"projected_daily_cost"`
}

// BudgetStatus is the account-wide snapshot of one budget check.
type BudgetStatus struct {
	ActualSpend        decimal.Decimal `json:"actual_spend"`
	HourlyCost         decimal.Decimal `json:"hourly_cost"`
	ProjectedTotal     decimal.Decimal `json:"projected_total"`
	Budget             decimal.Decimal `json:"budget"`
	BudgetPercent      decimal.Decimal `json:"budget_percent"`
	RemainingHours     int64           `json:"remaining_hours"`
	PeriodStart        time.Time       `json:"period_start"`
	PeriodEnd          time.Time       `json:"period_end"`
	Resources          ResourceSet     `json:"resources"`
	Action             Action          `json:"action"`
	ThresholdsBreached []int           `json:"thresholds_breached"`
	Spikes             []RateSpike     `json:"spikes"`
	ActualExceeded     bool            `json:"actual_exceeded"`
	BillingAvailable   bool            `json:"billing_available"`
	CheckedAt          time.Time       `json:"checked_at"`
}
