package api

import (
	"encoding/json"
	"time"
)

type EvaluationSummary struct {
	RunID          string    `json:"run_id"`
	Mode           string    `json:"mode"`
	Action         string    `json:"action"`
	DryRun         bool      `json:"dry_run"`
	ProjectedTotal string    `json:"projected_total"`
	ActualSpend    string    `json:"actual_spend,omitempty"`
	BudgetPercent  string    `json:"budget_percent,omitempty"`
	BreachedRules  []string  `json:"breached_rules,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// EvaluationResponse carries the summary and the full result document.
type EvaluationResponse struct {
	Summary EvaluationSummary `json:"summary"`
	Result  json.RawMessage   `json:"result"`
}

type StatusResponse struct {
	Jobs []JobStatus `json:"jobs"`
}

type JobStatus struct {
	Name      string             `json:"name"`
	Last      *EvaluationSummary `json:"last,omitempty"`
	LastError string             `json:"last_error,omitempty"`
	Skipped   int64              `json:"skipped_ticks"`
}

type HistoryResponse struct {
	Evaluations []EvaluationSummary `json:"evaluations"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
