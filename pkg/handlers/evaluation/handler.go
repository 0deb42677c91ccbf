package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/de-tools/cost-guardian/pkg/adapters"
	"github.com/de-tools/cost-guardian/pkg/models/api"
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/models/store"
	"github.com/de-tools/cost-guardian/pkg/services/guardian"
	"github.com/de-tools/cost-guardian/pkg/services/workflow"
	"github.com/de-tools/cost-guardian/pkg/store/history"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type HistoryReader interface {
	List(ctx context.Context, limit int) ([]store.EvaluationRecord, error)
	Get(ctx context.Context, runID string) (*store.EvaluationRecord, error)
}

type Handler struct {
	runners    []*workflow.Runner
	evaluators map[domain.EvaluationMode]guardian.Evaluator
	history    HistoryReader
}

// NewHandler serves scheduled job status, on-demand evaluations by mode, and
// the evaluation history. history may be nil.
func NewHandler(
	runners []*workflow.Runner,
	evaluators map[domain.EvaluationMode]guardian.Evaluator,
	history HistoryReader,
) *Handler {
	return &Handler{
		runners:    runners,
		evaluators: evaluators,
		history:    history,
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	response := api.StatusResponse{Jobs: make([]api.JobStatus, 0, len(h.runners))}
	for _, runner := range h.runners {
		last, err := runner.Last()
		job := api.JobStatus{Name: runner.Name(), Skipped: runner.Skipped()}
		if last != nil {
			rec, mapErr := adapters.MapEvaluationDomainToStore(last)
			if mapErr == nil {
				summary := adapters.MapStoreEvaluationToApi(rec)
				job.Last = &summary
			}
		}
		if err != nil {
			job.LastError = err.Error()
		}
		response.Jobs = append(response.Jobs, job)
	}
	writeJSON(w, r, http.StatusOK, response)
}

// Evaluate runs one pass on demand. Query: mode (budget|rules, default
// budget) and dry_run (default true).
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	mode := domain.EvaluationMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = domain.ModeBudget
	}
	evaluator, ok := h.evaluators[mode]
	if !ok {
		writeError(w, r, http.StatusBadRequest, "unknown or unconfigured mode: "+string(mode))
		return
	}

	dryRun := true
	if raw := r.URL.Query().Get("dry_run"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid 'dry_run' value, expected true or false")
			return
		}
		dryRun = v
	}

	result, err := evaluator.Evaluate(ctx, dryRun)
	if err != nil {
		logger.Error().Err(err).Str("mode", string(mode)).Msg("evaluation failed")
		writeError(w, r, http.StatusInternalServerError, "evaluation failed")
		return
	}

	response, err := adapters.MapEvaluationDomainToApi(result)
	if err != nil {
		logger.Error().Err(err).Msg("failed to map evaluation")
		writeError(w, r, http.StatusInternalServerError, "failed to encode evaluation")
		return
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, r, http.StatusNotFound, "history is disabled")
		return
	}

	limit := history.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, r, http.StatusBadRequest, "invalid 'limit' value, expected a positive integer")
			return
		}
		limit = v
	}

	records, err := h.history.List(r.Context(), limit)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to list history")
		writeError(w, r, http.StatusInternalServerError, "failed to list history")
		return
	}

	response := api.HistoryResponse{Evaluations: make([]api.EvaluationSummary, 0, len(records))}
	for _, rec := range records {
		response.Evaluations = append(response.Evaluations, adapters.MapStoreEvaluationToApi(rec))
	}
	writeJSON(w, r, http.StatusOK, response)
}

func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, r, http.StatusNotFound, "history is disabled")
		return
	}
	runID := chi.URLParam(r, "runID")

	rec, err := h.history.Get(r.Context(), runID)
	switch {
	case errors.Is(err, history.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "evaluation not found: "+runID)
		return
	case err != nil:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("run_id", runID).Msg("failed to get evaluation")
		writeError(w, r, http.StatusInternalServerError, "failed to get evaluation")
		return
	}

	writeJSON(w, r, http.StatusOK, api.EvaluationResponse{
		Summary: adapters.MapStoreEvaluationToApi(*rec),
		Result:  rec.Payload,
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, api.ErrorResponse{Error: msg})
}
