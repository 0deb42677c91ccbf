package store

import "time"

// EvaluationRecord is one row of the evaluation history. Money columns hold
// decimal strings.
type EvaluationRecord struct {
	RunID          string
	Mode           string
	Action         string
	DryRun         bool
	ProjectedTotal string
	ActualSpend    string
	BudgetPercent  string
	BreachedRules  []string
	StartedAt      time.Time
	FinishedAt     time.Time
	Payload        []byte
}
