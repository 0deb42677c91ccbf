package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/de-tools/cost-guardian/pkg/services/pricing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLambdaLookbackHours = 24
	DefaultConcurrency         = 8
)

var secondsPerHour = decimal.NewFromInt(3600)

// PriceResolver resolves a price for a descriptor, never failing.
type PriceResolver interface {
	PriceFor(ctx context.Context, r domain.ResourceDescriptor, fallback *decimal.Decimal) decimal.Decimal
}

type Option func(*Projector)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Projector) {
		p.now = now
	}
}

func WithLambdaLookbackHours(hours int) Option {
	return func(p *Projector) {
		if hours > 0 {
			p.lambdaLookbackHours = hours
		}
	}
}

func WithConcurrency(n int) Option {
	return func(p *Projector) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// Projector turns metric samples and running resources into cost
// projections.
type Projector struct {
	metrics             cost.MetricsSource
	inventory           cost.Inventory
	prices              PriceResolver
	now                 func() time.Time
	lambdaLookbackHours int
	concurrency         int
}

func NewProjector(metrics cost.MetricsSource, inventory cost.Inventory, prices PriceResolver, opts ...Option) *Projector {
	p := &Projector{
		metrics:             metrics,
		inventory:           inventory,
		prices:              prices,
		now:                 time.Now,
		lambdaLookbackHours: DefaultLambdaLookbackHours,
		concurrency:         DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Project evaluates rule. When a collaborator fails the returned projection
// is zero-cost and non-breaching, and the error describes the failure.
func (p *Projector) Project(ctx context.Context, rule domain.Rule) (domain.Projection, error) {
	switch rule.PricingModel {
	case domain.PricingPerUnit:
		return p.projectPerUnit(ctx, rule)
	case domain.PricingHourly:
		return p.projectHourly(ctx, rule)
	default:
		return p.empty(rule), fmt.Errorf("%w: %q", domain.ErrUnknownPricingModel, rule.PricingModel)
	}
}

func (p *Projector) projectPerUnit(ctx context.Context, rule domain.Rule) (domain.Projection, error) {
	end := p.now().UTC()
	samples, err := p.metrics.GetMetric(ctx, domain.MetricQuery{
		Region:     rule.Region,
		Namespace:  rule.Namespace,
		Name:       rule.MetricName,
		Dimensions: rule.Dimensions,
		Start:      end.Add(-time.Duration(rule.LookbackSeconds) * time.Second),
		End:        end,
		Period:     time.Duration(rule.PeriodSeconds) * time.Second,
		Statistic:  rule.Statistic,
	})
	if err != nil {
		return p.empty(rule), fmt.Errorf("failed to fetch %s/%s: %w", rule.Namespace, rule.MetricName, err)
	}
	if len(samples) == 0 {
		return p.empty(rule), nil
	}

	domain.SortSamples(samples)
	total := domain.SumSamples(samples)
	rate := total.Div(decimal.NewFromInt(rule.LookbackSeconds))
	units := rate.Mul(decimal.NewFromInt(rule.ProjectionSeconds))
	projected := units.Mul(*rule.UnitCost)

	proj := p.empty(rule)
	proj.MetricValue = total
	proj.RatePerSecond = rate
	proj.ProjectedCost = projected
	proj.Breach = projected.GreaterThan(rule.Threshold)
	proj.Samples = samples
	return proj, nil
}

func (p *Projector) projectHourly(ctx context.Context, rule domain.Rule) (domain.Projection, error) {
	kind, ok := rule.TargetKind()
	if !ok {
		return p.empty(rule), fmt.Errorf("hourly pricing is not supported for namespace %q", rule.Namespace)
	}

	resources, err := p.inventory.ListResources(ctx, rule.Region, kind, rule.InstanceFilter)
	if err != nil {
		return p.empty(rule), fmt.Errorf("failed to list resources for rule %s: %w", rule.ID, err)
	}

	hourly := decimal.Zero
	for _, r := range resources {
		hourly = hourly.Add(p.prices.PriceFor(ctx, r, rule.FallbackHourlyCost))
	}
	hours := decimal.NewFromInt(rule.ProjectionSeconds).Div(secondsPerHour)
	projected := hourly.Mul(hours)

	proj := p.empty(rule)
	proj.MetricValue = decimal.NewFromInt(int64(len(resources)))
	proj.RatePerSecond = hourly.Div(secondsPerHour)
	proj.HourlyCost = hourly
	proj.ProjectedCost = projected
	proj.Breach = projected.GreaterThan(rule.Threshold)
	proj.Resources = resources
	return proj, nil
}

func (p *Projector) empty(rule domain.Rule) domain.Projection {
	return domain.Projection{
		RuleID:        rule.ID,
		Model:         rule.PricingModel,
		Region:        rule.Region,
		MetricValue:   decimal.Zero,
		RatePerSecond: decimal.Zero,
		HourlyCost:    decimal.Zero,
		ProjectedCost: decimal.Zero,
		Threshold:     rule.Threshold,
		Timestamp:     p.now().UTC(),
	}
}

// HourlyCost sums the current hourly burn of every resource. Serverless
// functions are priced from recent usage; metric failures count as zero.
func (p *Projector) HourlyCost(ctx context.Context, resources domain.ResourceSet) decimal.Decimal {
	var all []domain.ResourceDescriptor
	for _, kind := range domain.ResourceKinds {
		all = append(all, resources[kind]...)
	}

	costs := make([]decimal.Decimal, len(all))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, r := range all {
		g.Go(func() error {
			if r.Kind == domain.KindServerlessFunction {
				costs[i] = p.lambdaHourlyCost(gctx, r)
			} else {
				costs[i] = p.prices.PriceFor(gctx, r, nil)
			}
			return nil
		})
	}
	_ = g.Wait()

	total := decimal.Zero
	for _, c := range costs {
		total = total.Add(c)
	}
	return total
}

func (p *Projector) lambdaHourlyCost(ctx context.Context, fn domain.ResourceDescriptor) decimal.Decimal {
	end := p.now().UTC()
	lookback := time.Duration(p.lambdaLookbackHours) * time.Hour
	query := func(metric string) (decimal.Decimal, error) {
		samples, err := p.metrics.GetMetric(ctx, domain.MetricQuery{
			Region:     fn.Region,
			Namespace:  "AWS/Lambda",
			Name:       metric,
			Dimensions: []domain.Dimension{{Name: "FunctionName", Value: fn.ID}},
			Start:      end.Add(-lookback),
			End:        end,
			Period:     lookback,
			Statistic:  domain.StatisticSum,
		})
		if err != nil {
			return decimal.Zero, err
		}
		return domain.SumSamples(samples), nil
	}

	logger := zerolog.Ctx(ctx).With().Str("function", fn.ID).Str("region", fn.Region).Logger()

	invocations, err := query("Invocations")
	if err != nil {
		logger.Warn().Err(err).Msg("failed to fetch lambda invocations")
		return decimal.Zero
	}
	if invocations.IsZero() {
		return decimal.Zero
	}
	durationMS, err := query("Duration")
	if err != nil {
		logger.Warn().Err(err).Msg("failed to fetch lambda duration")
		return decimal.Zero
	}

	hours := decimal.NewFromInt(int64(p.lambdaLookbackHours))
	invocationsPerHour := invocations.Div(hours)
	secondsPerHourUsed := durationMS.Div(hours).Div(decimal.NewFromInt(1000))
	memoryGB := decimal.NewFromInt32(fn.MemoryMB()).Div(decimal.NewFromInt(1024))
	gbSeconds := secondsPerHourUsed.Mul(memoryGB)

	return invocationsPerHour.Mul(pricing.LambdaRequestPrice).Add(gbSeconds.Mul(pricing.LambdaGBSecondPrice))
}

// BudgetProjection extends actual spend by hourly burn over the remaining
// hours of the period.
type BudgetProjection struct {
	ProjectedTotal decimal.Decimal
	BudgetPercent  decimal.Decimal
	RemainingHours int64
}

// ProjectBudget computes projected = actual + hourly * remaining and its
// share of budget in percent (zero when budget is zero).
func ProjectBudget(actual, hourly, budget decimal.Decimal, remainingHours int64) BudgetProjection {
	projected := actual.Add(hourly.Mul(decimal.NewFromInt(remainingHours)))
	percent := decimal.Zero
	if budget.IsPositive() {
		percent = projected.Div(budget).Mul(decimal.NewFromInt(100))
	}
	return BudgetProjection{
		ProjectedTotal: projected,
		BudgetPercent:  percent,
		RemainingHours: remainingHours,
	}
}
