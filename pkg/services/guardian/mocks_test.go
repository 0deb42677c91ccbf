package guardian

import (
	"context"
	"time"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/logscan"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockBilling struct {
	mock.Mock
}

func (m *mockBilling) GetSpend(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockInventory struct {
	mock.Mock
	kinds []domain.ResourceKind
}

func (m *mockInventory) ListResources(
	ctx context.Context,
	region string,
	kind domain.ResourceKind,
	filter domain.InstanceFilter,
) ([]domain.ResourceDescriptor, error) {
	args := m.Called(ctx, region, kind, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ResourceDescriptor), args.Error(1)
}

func (m *mockInventory) SupportedKinds() []domain.ResourceKind {
	return m.kinds
}

type fixedCoster struct {
	hourly decimal.Decimal
}

func (f fixedCoster) HourlyCost(context.Context, domain.ResourceSet) decimal.Decimal {
	return f.hourly
}

type mockSpikes struct {
	mock.Mock
}

func (m *mockSpikes) Detect(ctx context.Context, functions []domain.ResourceDescriptor) []domain.RateSpike {
	args := m.Called(ctx, functions)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.RateSpike)
}

type mockRouter struct {
	mock.Mock
}

func (m *mockRouter) Execute(
	ctx context.Context,
	action domain.ActionID,
	params domain.RemediationParams,
	projection domain.Projection,
) (domain.RemediationOutcome, error) {
	args := m.Called(ctx, action, params, projection)
	return args.Get(0).(domain.RemediationOutcome), args.Error(1)
}

func (m *mockRouter) Plan(
	ctx context.Context,
	action domain.ActionID,
	params domain.RemediationParams,
	projection domain.Projection,
) (domain.RemediationOutcome, error) {
	args := m.Called(ctx, action, params, projection)
	return args.Get(0).(domain.RemediationOutcome), args.Error(1)
}

func (m *mockRouter) StopAll(ctx context.Context, resources domain.ResourceSet, dryRun bool) domain.RemediationOutcome {
	return m.Called(ctx, resources, dryRun).Get(0).(domain.RemediationOutcome)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, channel, subject, body string) (string, error) {
	args := m.Called(ctx, channel, subject, body)
	return args.String(0), args.Error(1)
}

type staticAccount domain.AccountInfo

func (a staticAccount) DescribeAccount(context.Context) (domain.AccountInfo, error) {
	return domain.AccountInfo(a), nil
}

type stubProjector map[string]projected

type projected struct {
	proj domain.Projection
	err  error
}

func (s stubProjector) Project(_ context.Context, rule domain.Rule) (domain.Projection, error) {
	p := s[rule.ID]
	return p.proj, p.err
}

type stubLogs map[string]projected

func (s stubLogs) Evaluate(_ context.Context, rule logscan.Rule) (domain.Projection, error) {
	p := s[rule.ID]
	return p.proj, p.err
}

type recordingSink struct {
	results []*domain.EvaluationResult
	err     error
}

func (r *recordingSink) Record(_ context.Context, result *domain.EvaluationResult) error {
	r.results = append(r.results, result)
	return r.err
}
