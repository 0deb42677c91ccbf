package guardian

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/de-tools/cost-guardian/pkg/services/decision"
	"github.com/de-tools/cost-guardian/pkg/services/projection"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 8

var _ Evaluator = (*Guardian)(nil)

// Config is the account-wide budget policy.
type Config struct {
	Regions           []string
	Budget            decimal.Decimal
	AlertThresholds   []int
	AutoStopThreshold int
	PeriodStart       string
	PeriodEnd         string
	AlertChannel      string
	// ExcludeFunctions are dropped from discovery; the guardian's own
	// function belongs here.
	ExcludeFunctions []string
	Concurrency      int
}

// Dependencies are the collaborators of a Guardian. Notifier and Account may
// be nil.
type Dependencies struct {
	Billing   cost.BillingSource
	Inventory cost.Inventory
	Coster    HourlyCoster
	Spikes    SpikeDetector
	Router    Remediator
	Notifier  cost.Notifier
	Account   cost.AccountDescriber
}

// Guardian checks account spend against the budget and remediates.
type Guardian struct {
	cfg     Config
	deps    Dependencies
	exclude map[string]struct{}
	now     func() time.Time
	newID   func() string

	accountOnce sync.Once
	account     domain.AccountInfo
}

func New(cfg Config, deps Dependencies) (*Guardian, error) {
	if len(cfg.Regions) == 0 {
		return nil, fmt.Errorf("at least one region must be configured")
	}
	if deps.Billing == nil || deps.Inventory == nil || deps.Coster == nil || deps.Spikes == nil || deps.Router == nil {
		return nil, fmt.Errorf("billing, inventory, coster, spike detector and router are required")
	}
	if _, err := projection.ParsePeriod(cfg.PeriodStart, cfg.PeriodEnd, time.Now()); err != nil {
		return nil, err
	}
	if cfg.AlertThresholds == nil {
		cfg.AlertThresholds = decision.DefaultAlertThresholds
	}
	if cfg.AutoStopThreshold <= 0 {
		cfg.AutoStopThreshold = decision.DefaultAutoStopThreshold
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	exclude := make(map[string]struct{}, len(cfg.ExcludeFunctions))
	for _, fn := range cfg.ExcludeFunctions {
		exclude[fn] = struct{}{}
	}

	return &Guardian{
		cfg:     cfg,
		deps:    deps,
		exclude: exclude,
		now:     time.Now,
		newID:   newRunID,
	}, nil
}

// WithClock overrides the time source.
func (g *Guardian) WithClock(now func() time.Time) *Guardian {
	g.now = now
	return g
}

// WithIDs overrides run id generation.
func (g *Guardian) WithIDs(newID func() string) *Guardian {
	g.newID = newID
	return g
}

// CheckBudget computes the current budget status without side effects.
func (g *Guardian) CheckBudget(ctx context.Context) (domain.BudgetStatus, error) {
	logger := zerolog.Ctx(ctx)
	now := g.now().UTC()

	period, err := projection.ParsePeriod(g.cfg.PeriodStart, g.cfg.PeriodEnd, now)
	if err != nil {
		return domain.BudgetStatus{}, err
	}

	billingAvailable := true
	actual, err := g.deps.Billing.GetSpend(ctx, period.Start, now)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to get actual spend, continuing with zero")
		actual = decimal.Zero
		billingAvailable = false
	}

	resources := g.discover(ctx)
	hourly := g.deps.Coster.HourlyCost(ctx, resources)
	spikes := g.deps.Spikes.Detect(ctx, resources[domain.KindServerlessFunction])

	if err := ctx.Err(); err != nil {
		return domain.BudgetStatus{}, fmt.Errorf("budget check aborted: %w", err)
	}

	remaining := period.RemainingHours(now)
	projected := projection.ProjectBudget(actual, hourly, g.cfg.Budget, remaining)
	d := decision.Decide(decision.Input{
		BudgetPercent:     projected.BudgetPercent,
		ActualSpend:       actual,
		Budget:            g.cfg.Budget,
		AlertThresholds:   g.cfg.AlertThresholds,
		AutoStopThreshold: g.cfg.AutoStopThreshold,
		Spikes:            spikes,
	})

	if spikes == nil {
		spikes = []domain.RateSpike{}
	}
	return domain.BudgetStatus{
		ActualSpend:        actual,
		HourlyCost:         hourly,
		ProjectedTotal:     projected.ProjectedTotal,
		Budget:             g.cfg.Budget,
		BudgetPercent:      projected.BudgetPercent,
		RemainingHours:     remaining,
		PeriodStart:        period.Start,
		PeriodEnd:          period.End,
		Resources:          resources,
		Action:             d.Action,
		ThresholdsBreached: d.Breached,
		Spikes:             spikes,
		ActualExceeded:     d.ActualExceeded,
		BillingAvailable:   billingAvailable,
		CheckedAt:          now,
	}, nil
}

// discover lists every supported kind in every region concurrently.
// Failed listings are logged and contribute nothing.
func (g *Guardian) discover(ctx context.Context) domain.ResourceSet {
	type task struct {
		region string
		kind   domain.ResourceKind
	}
	var tasks []task
	for _, region := range g.cfg.Regions {
		for _, kind := range g.deps.Inventory.SupportedKinds() {
			tasks = append(tasks, task{region: region, kind: kind})
		}
	}

	found := make([][]domain.ResourceDescriptor, len(tasks))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Concurrency)
	for i, t := range tasks {
		eg.Go(func() error {
			resources, err := g.deps.Inventory.ListResources(egCtx, t.region, t.kind, domain.InstanceFilter{})
			if err != nil {
				zerolog.Ctx(egCtx).Warn().
					Err(err).
					Str("region", t.region).
					Str("kind", string(t.kind)).
					Msg("resource discovery failed")
				return nil
			}
			found[i] = resources
			return nil
		})
	}
	_ = eg.Wait()

	set := domain.NewResourceSet()
	for i, t := range tasks {
		for _, r := range found[i] {
			if t.kind == domain.KindServerlessFunction {
				if _, skip := g.exclude[r.ID]; skip {
					continue
				}
			}
			set[t.kind] = append(set[t.kind], r)
		}
	}
	return set
}

// Evaluate checks the budget and acts on the decision.
func (g *Guardian) Evaluate(ctx context.Context, dryRun bool) (*domain.EvaluationResult, error) {
	started := g.now().UTC()
	status, err := g.CheckBudget(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.EvaluationResult{
		RunID:     g.newID(),
		Mode:      domain.ModeBudget,
		DryRun:    dryRun,
		StartedAt: started,
		Budget:    &status,
	}

	logger := zerolog.Ctx(ctx).With().Str("run_id", result.RunID).Logger()
	logger.Info().
		Str("actual", status.ActualSpend.StringFixed(2)).
		Str("projected", status.ProjectedTotal.StringFixed(2)).
		Str("percent", status.BudgetPercent.StringFixed(1)).
		Str("action", string(status.Action)).
		Bool("dry_run", dryRun).
		Msg("budget check complete")

	switch status.Action {
	case domain.ActionStopAll:
		out := g.deps.Router.StopAll(ctx, status.Resources, dryRun)
		result.Remediation = &out
		if out.AnyChanged() {
			result.Notification = g.notify(ctx, status, &out, dryRun)
		} else {
			logger.Info().Msg("nothing changed by stop, alert suppressed")
		}
	case domain.ActionAlert, domain.ActionSpikeAlert:
		result.Notification = g.notify(ctx, status, nil, dryRun)
	}

	result.FinishedAt = g.now().UTC()
	return result, nil
}

// Run is Evaluate under the name used by the CLI.
func (g *Guardian) Run(ctx context.Context, dryRun bool) (*domain.EvaluationResult, error) {
	return g.Evaluate(ctx, dryRun)
}

// StopAll discovers resources and stops them regardless of budget.
func (g *Guardian) StopAll(ctx context.Context, dryRun bool) domain.RemediationOutcome {
	return g.deps.Router.StopAll(ctx, g.discover(ctx), dryRun)
}

func (g *Guardian) notify(
	ctx context.Context,
	status domain.BudgetStatus,
	outcome *domain.RemediationOutcome,
	dryRun bool,
) *domain.Notification {
	subject, body := FormatAlert(g.accountInfo(ctx), status, outcome, dryRun)
	n := &domain.Notification{Channel: g.cfg.AlertChannel, Subject: subject, Body: body}

	if dryRun || g.cfg.AlertChannel == "" || g.deps.Notifier == nil {
		return n
	}

	id, err := g.deps.Notifier.Notify(ctx, g.cfg.AlertChannel, subject, body)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("channel", g.cfg.AlertChannel).Msg("failed to send alert")
		n.Error = err.Error()
		return n
	}
	n.MessageID = id
	n.Sent = true
	return n
}

func (g *Guardian) accountInfo(ctx context.Context) domain.AccountInfo {
	g.accountOnce.Do(func() {
		if g.deps.Account == nil {
			return
		}
		info, err := g.deps.Account.DescribeAccount(ctx)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to describe account")
		}
		g.account = info
	})
	return g.account
}
