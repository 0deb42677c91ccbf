package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/de-tools/cost-guardian/pkg/models/api"
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/models/store"
)

func MapEvaluationDomainToStore(r *domain.EvaluationResult) (store.EvaluationRecord, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return store.EvaluationRecord{}, fmt.Errorf("marshal evaluation: %w", err)
	}

	rec := store.EvaluationRecord{
		RunID:          r.RunID,
		Mode:           string(r.Mode),
		Action:         string(r.Action()),
		DryRun:         r.DryRun,
		ProjectedTotal: r.ProjectedTotal().String(),
		BreachedRules:  r.BreachedRules(),
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Payload:        payload,
	}
	if r.Budget != nil {
		rec.ActualSpend = r.Budget.ActualSpend.String()
		rec.BudgetPercent = r.Budget.BudgetPercent.StringFixed(1)
	}
	return rec, nil
}

func MapStoreEvaluationToApi(rec store.EvaluationRecord) api.EvaluationSummary {
	return api.EvaluationSummary{
		RunID:          rec.RunID,
		Mode:           rec.Mode,
		Action:         rec.Action,
		DryRun:         rec.DryRun,
		ProjectedTotal: rec.ProjectedTotal,
		ActualSpend:    rec.ActualSpend,
		BudgetPercent:  rec.BudgetPercent,
		BreachedRules:  rec.BreachedRules,
		StartedAt:      rec.StartedAt,
		FinishedAt:     rec.FinishedAt,
	}
}

func MapEvaluationDomainToApi(r *domain.EvaluationResult) (api.EvaluationResponse, error) {
	rec, err := MapEvaluationDomainToStore(r)
	if err != nil {
		return api.EvaluationResponse{}, err
	}
	return api.EvaluationResponse{
		Summary: MapStoreEvaluationToApi(rec),
		Result:  rec.Payload,
	}, nil
}
