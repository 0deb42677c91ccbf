package guardian

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/logscan"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var _ Evaluator = (*RuleEngine)(nil)

type RuleProjector interface {
	Project(ctx context.Context, rule domain.Rule) (domain.Projection, error)
}

type LogEvaluator interface {
	Evaluate(ctx context.Context, rule logscan.Rule) (domain.Projection, error)
}

// RuleEngine evaluates metric and log rules independently of the account
// budget.
type RuleEngine struct {
	rules       []domain.Rule
	logRules    []logscan.Rule
	projector   RuleProjector
	logs        LogEvaluator
	router      Remediator
	concurrency int
	now         func() time.Time
	newID       func() string
}

func NewRuleEngine(
	rules []domain.Rule,
	logRules []logscan.Rule,
	projector RuleProjector,
	logs LogEvaluator,
	router Remediator,
	concurrency int,
) (*RuleEngine, error) {
	if len(rules) > 0 && projector == nil {
		return nil, fmt.Errorf("metric rules need a projector")
	}
	if len(logRules) > 0 && logs == nil {
		return nil, fmt.Errorf("log rules need a log evaluator")
	}
	if router == nil {
		return nil, fmt.Errorf("router is required")
	}

	seen := make(map[string]struct{}, len(rules)+len(logRules))
	check := func(id string) error {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate rule id: %s", id)
		}
		seen[id] = struct{}{}
		return nil
	}
	for _, r := range rules {
		if err := check(r.ID); err != nil {
			return nil, err
		}
	}
	for _, r := range logRules {
		if err := check(r.ID); err != nil {
			return nil, err
		}
	}

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &RuleEngine{
		rules:       rules,
		logRules:    logRules,
		projector:   projector,
		logs:        logs,
		router:      router,
		concurrency: concurrency,
		now:         time.Now,
		newID:       newRunID,
	}, nil
}

func (e *RuleEngine) WithClock(now func() time.Time) *RuleEngine {
	e.now = now
	return e
}

func (e *RuleEngine) WithIDs(newID func() string) *RuleEngine {
	e.newID = newID
	return e
}

// Len is the number of configured rules of both kinds.
func (e *RuleEngine) Len() int {
	return len(e.rules) + len(e.logRules)
}

// Evaluate projects every rule concurrently and remediates breaches in rule
// order, metric rules first. In dry runs breaches are planned, not executed.
func (e *RuleEngine) Evaluate(ctx context.Context, dryRun bool) (*domain.EvaluationResult, error) {
	result := &domain.EvaluationResult{
		RunID:     e.newID(),
		Mode:      domain.ModeRules,
		DryRun:    dryRun,
		StartedAt: e.now().UTC(),
	}

	type pending struct {
		id     string
		action domain.ActionID
		params domain.RemediationParams
		proj   domain.Projection
		err    error
	}
	evals := make([]pending, e.Len())

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.concurrency)
	for i, rule := range e.rules {
		evals[i] = pending{id: rule.ID, action: rule.Action, params: rule.Params}
		eg.Go(func() error {
			evals[i].proj, evals[i].err = e.projector.Project(egCtx, rule)
			return nil
		})
	}
	for j, rule := range e.logRules {
		i := len(e.rules) + j
		evals[i] = pending{id: rule.ID, action: rule.Action, params: rule.Params}
		eg.Go(func() error {
			evals[i].proj, evals[i].err = e.logs.Evaluate(egCtx, rule)
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("rule evaluation aborted: %w", err)
	}

	logger := zerolog.Ctx(ctx).With().Str("run_id", result.RunID).Logger()
	result.Rules = make([]domain.RuleEvaluation, 0, len(evals))
	for _, ev := range evals {
		re := domain.RuleEvaluation{RuleID: ev.id, Projection: ev.proj}
		if ev.err != nil {
			logger.Warn().Err(ev.err).Str("rule", ev.id).Msg("rule projection degraded")
			re.Error = ev.err.Error()
		}

		if ev.proj.Breach {
			logger.Info().
				Str("rule", ev.id).
				Str("projected", ev.proj.ProjectedCost.StringFixed(4)).
				Str("threshold", ev.proj.Threshold.String()).
				Msg("rule breached")

			var out domain.RemediationOutcome
			var err error
			if dryRun {
				out, err = e.router.Plan(ctx, ev.action, ev.params, ev.proj)
			} else {
				out, err = e.router.Execute(ctx, ev.action, ev.params, ev.proj)
			}
			if err != nil {
				logger.Error().Err(err).Str("rule", ev.id).Msg("remediation failed")
				if re.Error == "" {
					re.Error = err.Error()
				}
			}
			re.Remediation = &out
		}
		result.Rules = append(result.Rules, re)
	}

	result.FinishedAt = e.now().UTC()
	return result, nil
}
