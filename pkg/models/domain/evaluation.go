package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EvaluationMode distinguishes the account-wide budget check from rule
// evaluation.
type EvaluationMode string

const (
	ModeBudget EvaluationMode = "budget"
	ModeRules  EvaluationMode = "rules"
)

// Notification is a message sent, or in dry runs one that would be sent.
type Notification struct {
	Channel   string `json:"channel"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	MessageID string `json:"message_id,omitempty"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

// RuleEvaluation pairs a rule's projection with the remediation it triggered.
type RuleEvaluation struct {
	RuleID      string              `json:"rule_id"`
	Projection  Projection          `json:"projection"`
	Remediation *RemediationOutcome `json:"remediation,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// EvaluationResult is the output of one guardian pass.
type EvaluationResult struct {
	RunID        string              `json:"run_id"`
	Mode         EvaluationMode      `json:"mode"`
	DryRun       bool                `json:"dry_run"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   time.Time           `json:"finished_at"`
	Budget       *BudgetStatus       `json:"budget,omitempty"`
	Remediation  *RemediationOutcome `json:"remediation,omitempty"`
	Rules        []RuleEvaluation    `json:"rules,omitempty"`
	Notification *Notification       `json:"notification,omitempty"`
}

// Action returns the headline action of the result. For rule evaluations it
// is alert when any rule breached.
func (r EvaluationResult) Action() Action {
	if r.Budget != nil {
		return r.Budget.Action
	}
	for _, re := range r.Rules {
		if re.Projection.Breach {
			return ActionAlert
		}
	}
	return ActionOK
}

// ProjectedTotal returns the budget projection, or the sum of rule
// projections.
func (r EvaluationResult) ProjectedTotal() decimal.Decimal {
	if r.Budget != nil {
		return r.Budget.ProjectedTotal
	}
	total := decimal.Zero
	for _, re := range r.Rules {
		total = total.Add(re.Projection.ProjectedCost)
	}
	return total
}

// BreachedRules lists the ids of rules whose projection breached.
func (r EvaluationResult) BreachedRules() []string {
	var ids []string
	for _, re := range r.Rules {
		if re.Projection.Breach {
			ids = append(ids, re.RuleID)
		}
	}
	return ids
}
