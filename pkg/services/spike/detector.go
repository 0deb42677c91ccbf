package spike

import (
	"context"
	"sort"
	"time"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/de-tools/cost-guardian/pkg/services/pricing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultWindowMinutes = 5
	DefaultBaselineHours = 168
	DefaultThreshold     = 10
	DefaultConcurrency   = 8
)

// SentinelRatio flags a function with no baseline activity that is now
// being invoked.
var SentinelRatio = decimal.NewFromInt(999)

// assumedDurationSeconds is the per-invocation duration used to price a
// spike. Real durations are not sampled here, so this overestimates.
var assumedDurationSeconds = decimal.NewFromInt(1)

type Config struct {
	WindowMinutes int
	BaselineHours int
	Threshold     decimal.Decimal
	Exclude       []string
	Concurrency   int
}

func (c Config) withDefaults() Config {
	if c.WindowMinutes <= 0 {
		c.WindowMinutes = DefaultWindowMinutes
	}
	if c.BaselineHours <= 0 {
		c.BaselineHours = DefaultBaselineHours
	}
	if !c.Threshold.IsPositive() {
		c.Threshold = decimal.NewFromInt(DefaultThreshold)
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	return c
}

// Detector compares each function's recent invocation rate against its
// long-run baseline.
type Detector struct {
	metrics cost.MetricsSource
	cfg     Config
	exclude map[string]struct{}
	now     func() time.Time
}

func NewDetector(metrics cost.MetricsSource, cfg Config) *Detector {
	cfg = cfg.withDefaults()
	exclude := make(map[string]struct{}, len(cfg.Exclude))
	for _, name := range cfg.Exclude {
		exclude[name] = struct{}{}
	}
	return &Detector{
		metrics: metrics,
		cfg:     cfg,
		exclude: exclude,
		now:     time.Now,
	}
}

// WithClock returns a copy of d using now as its time source.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	cp := *d
	cp.now = now
	return &cp
}

// Detect scans functions concurrently and returns spikes ordered by region
// and function name. Per-function failures yield no spike for it.
func (d *Detector) Detect(ctx context.Context, functions []domain.ResourceDescriptor) []domain.RateSpike {
	results := make([]*domain.RateSpike, len(functions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	for i, fn := range functions {
		if fn.Kind != domain.KindServerlessFunction {
			continue
		}
		if _, skip := d.exclude[fn.ID]; skip {
			continue
		}
		g.Go(func() error {
			spike, err := d.Check(gctx, fn)
			if err != nil {
				zerolog.Ctx(gctx).Warn().
					Err(err).
					Str("function", fn.ID).
					Str("region", fn.Region).
					Msg("spike check failed")
				return nil
			}
			results[i] = spike
			return nil
		})
	}
	_ = g.Wait()

	var spikes []domain.RateSpike
	for _, s := range results {
		if s != nil {
			spikes = append(spikes, *s)
		}
	}
	sort.Slice(spikes, func(i, j int) bool {
		if spikes[i].Region != spikes[j].Region {
			return spikes[i].Region < spikes[j].Region
		}
		return spikes[i].ResourceID < spikes[j].ResourceID
	})
	return spikes
}

// Check evaluates one function. It returns nil when there is no spike.
func (d *Detector) Check(ctx context.Context, fn domain.ResourceDescriptor) (*domain.RateSpike, error) {
	now := d.now().UTC()
	window := time.Duration(d.cfg.WindowMinutes) * time.Minute
	baseline := time.Duration(d.cfg.BaselineHours) * time.Hour

	current, err := d.invocations(ctx, fn, now, window)
	if err != nil {
		return nil, err
	}
	historic, err := d.invocations(ctx, fn, now, baseline)
	if err != nil {
		return nil, err
	}

	currentRate := current.Div(decimal.NewFromInt(int64(d.cfg.WindowMinutes)))
	baselineRate := historic.Div(decimal.NewFromInt(int64(d.cfg.BaselineHours) * 60))

	ratio, ok := Ratio(currentRate, baselineRate)
	if !ok || ratio.LessThan(d.cfg.Threshold) {
		return nil, nil
	}

	return &domain.RateSpike{
		ResourceID:         fn.ID,
		Region:             fn.Region,
		CurrentRate:        currentRate,
		BaselineRate:       baselineRate,
		Ratio:              ratio,
		ProjectedDailyCost: ProjectedDailyCost(currentRate, fn.MemoryMB()),
	}, nil
}

// Ratio compares current with baseline. It reports false when both are zero.
func Ratio(current, baseline decimal.Decimal) (decimal.Decimal, bool) {
	switch {
	case baseline.IsPositive():
		return current.Div(baseline), true
	case current.IsPositive():
		return SentinelRatio, true
	default:
		return decimal.Zero, false
	}
}

// ProjectedDailyCost extrapolates a per-minute invocation rate to a full day
// at the assumed duration.
func ProjectedDailyCost(ratePerMinute decimal.Decimal, memoryMB int32) decimal.Decimal {
	perDay := ratePerMinute.Mul(decimal.NewFromInt(60 * 24))
	memoryGB := decimal.NewFromInt32(memoryMB).Div(decimal.NewFromInt(1024))
	gbSeconds := assumedDurationSeconds.Mul(memoryGB).Mul(perDay)
	return perDay.Mul(pricing.LambdaRequestPrice).Add(gbSeconds.Mul(pricing.LambdaGBSecondPrice))
}

func (d *Detector) invocations(ctx context.Context, fn domain.ResourceDescriptor, end time.Time, window time.Duration) (decimal.Decimal, error) {
	samples, err := d.metrics.GetMetric(ctx, domain.MetricQuery{
		Region:     fn.Region,
		Namespace:  "AWS/Lambda",
		Name:       "Invocations",
		Dimensions: []domain.Dimension{{Name: "FunctionName", Value: fn.ID}},
		Start:      end.Add(-window),
		End:        end,
		Period:     window,
		Statistic:  domain.StatisticSum,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return domain.SumSamples(samples), nil
}
