package guardian

import (
	"context"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/spike"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Evaluator runs one guardian pass. With dryRun no actuator or notifier is
// called; the result describes what would have been done.
type Evaluator interface {
	Evaluate(ctx context.Context, dryRun bool) (*domain.EvaluationResult, error)
}

// Remediator executes remediation for rules and account-wide stops.
type Remediator interface {
	Execute(ctx context.Context, action domain.ActionID, params domain.RemediationParams, projection domain.Projection) (domain.RemediationOutcome, error)
	Plan(ctx context.Context, action domain.ActionID, params domain.RemediationParams, projection domain.Projection) (domain.RemediationOutcome, error)
	StopAll(ctx context.Context, resources domain.ResourceSet, dryRun bool) domain.RemediationOutcome
}

// HourlyCoster prices the current burn of a resource set.
type HourlyCoster interface {
	HourlyCost(ctx context.Context, resources domain.ResourceSet) decimal.Decimal
}

type SpikeDetector interface {
	Detect(ctx context.Context, functions []domain.ResourceDescriptor) []domain.RateSpike
}

var _ SpikeDetector = (*spike.Detector)(nil)

// Sink receives every completed evaluation.
type Sink interface {
	Record(ctx context.Context, result *domain.EvaluationResult) error
}

type recorded struct {
	next  Evaluator
	sinks []Sink
}

// WithSinks wraps ev so each successful result is passed to sinks. Sink
// failures are logged and never fail the evaluation.
func WithSinks(ev Evaluator, sinks ...Sink) Evaluator {
	return &recorded{next: ev, sinks: sinks}
}

func (r *recorded) Evaluate(ctx context.Context, dryRun bool) (*domain.EvaluationResult, error) {
	result, err := r.next.Evaluate(ctx, dryRun)
	if err != nil {
		return nil, err
	}
	for _, s := range r.sinks {
		if err := s.Record(ctx, result); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("run_id", result.RunID).Msg("failed to record evaluation")
		}
	}
	return result, nil
}

func newRunID() string {
	return uuid.NewString()
}
