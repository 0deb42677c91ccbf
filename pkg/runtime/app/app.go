package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/config"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	awscost "github.com/de-tools/cost-guardian/pkg/services/cost/aws"
	"github.com/de-tools/cost-guardian/pkg/services/guardian"
	"github.com/de-tools/cost-guardian/pkg/services/logscan"
	"github.com/de-tools/cost-guardian/pkg/services/pricing"
	"github.com/de-tools/cost-guardian/pkg/services/projection"
	"github.com/de-tools/cost-guardian/pkg/services/remediation"
	"github.com/de-tools/cost-guardian/pkg/services/spike"
	"github.com/de-tools/cost-guardian/pkg/store/history"
	"github.com/de-tools/cost-guardian/pkg/store/sqlite"
	"github.com/de-tools/cost-guardian/pkg/telemetry/metrics"
	"github.com/rs/zerolog"
)

// BudgetGuard is the account-wide budget check.
type BudgetGuard interface {
	guardian.Evaluator
	CheckBudget(ctx context.Context) (domain.BudgetStatus, error)
	StopAll(ctx context.Context, dryRun bool) domain.RemediationOutcome
}

var _ BudgetGuard = (*guardian.Guardian)(nil)

// App is the wired guardian. Rules and History are nil unless requested.
type App struct {
	Settings *config.Settings
	Budget   BudgetGuard
	Rules    guardian.Evaluator
	History  history.Store
	Metrics  *metrics.Collector
	Account  cost.AccountDescriber

	closers []io.Closer
}

type Options struct {
	WithRules   bool
	WithHistory bool
}

// Factory builds an App; commands take one so tests can substitute it.
type Factory func(ctx context.Context, settings *config.Settings, opts Options) (*App, error)

// Build wires every collaborator against AWS.
func Build(ctx context.Context, settings *config.Settings, opts Options) (*App, error) {
	services, err := awscost.ServicesFactory(ctx, settings.Profile, settings.CallTimeout)
	if err != nil {
		return nil, err
	}
	return Wire(ctx, settings, services, opts)
}

// Wire assembles the App on already built services.
func Wire(ctx context.Context, settings *config.Settings, services *awscost.Services, opts Options) (*App, error) {
	collector := metrics.NewCollector(nil)
	excluded := settings.Excluded()
	defaultRegion := settings.Regions[0]

	catalog := pricing.NewCatalog(services.Prices, pricing.NewCache(), pricing.WithObserver(collector))
	projector := projection.NewProjector(
		services.Metrics,
		services.Inventory,
		catalog,
		projection.WithLambdaLookbackHours(settings.LookbackHours),
		projection.WithConcurrency(settings.Concurrency),
	)
	spikes := spike.NewDetector(services.Metrics, spike.Config{
		WindowMinutes: settings.SpikeWindowMinutes,
		BaselineHours: settings.BaselineHours,
		Threshold:     settings.SpikeThreshold,
		Exclude:       excluded,
		Concurrency:   settings.Concurrency,
	})
	router, err := remediation.NewRouter(
		services.Actuator,
		services.Notifier,
		remediation.WithDefaultRegion(defaultRegion),
		remediation.WithProtectedFunctions(excluded...),
		remediation.WithObserver(collector),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create remediation router: %w", err)
	}

	budget, err := guardian.New(guardian.Config{
		Regions:           settings.Regions,
		Budget:            settings.Budget,
		AlertThresholds:   settings.AlertThresholds,
		AutoStopThreshold: settings.AutoStopThreshold,
		PeriodStart:       settings.PeriodStart,
		PeriodEnd:         settings.PeriodEnd,
		AlertChannel:      settings.SNSTopicARN,
		ExcludeFunctions:  excluded,
		Concurrency:       settings.Concurrency,
	}, guardian.Dependencies{
		Billing:   services.Billing,
		Inventory: services.Inventory,
		Coster:    projector,
		Spikes:    spikes,
		Router:    router,
		Notifier:  services.Notifier,
		Account:   services.Account,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create guardian: %w", err)
	}

	a := &App{
		Settings: settings,
		Budget:   budget,
		Metrics:  collector,
		Account:  services.Account,
	}

	if opts.WithRules {
		loader := config.NewRuleLoader(services.SSM, services.S3, settings.CallTimeout)
		set, err := loader.Load(ctx, settings.RuleSource, defaultRegion)
		if err != nil {
			return nil, err
		}
		engine, err := guardian.NewRuleEngine(
			set.Rules,
			set.LogRules,
			projector,
			logscan.NewDetector(services.Logs),
			router,
			settings.Concurrency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create rule engine: %w", err)
		}
		zerolog.Ctx(ctx).Info().Int("rules", engine.Len()).Msg("Rule engine ready")
		a.Rules = engine
	}

	if opts.WithHistory && settings.HistoryDB != "" {
		db, err := sqlite.NewDB(ctx, sqlite.Settings{DbPath: settings.HistoryDB})
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		store, err := history.NewStore(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.History = store
		a.closers = append(a.closers, db)
	}
	return a, nil
}

// Evaluators returns the configured evaluators by mode, each reporting to
// the metrics collector and the history store.
func (a *App) Evaluators() map[domain.EvaluationMode]guardian.Evaluator {
	sinks := []guardian.Sink{a.Metrics}
	if a.History != nil {
		sinks = append(sinks, a.History)
	}

	out := map[domain.EvaluationMode]guardian.Evaluator{
		domain.ModeBudget: guardian.WithSinks(a.Budget, sinks...),
	}
	if a.Rules != nil {
		out[domain.ModeRules] = guardian.WithSinks(a.Rules, sinks...)
	}
	return out
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// NewLogger builds the root logger at level.
func NewLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
