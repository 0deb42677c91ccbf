package commands

import (
	"context"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/stretchr/testify/mock"
)

type mockBudget struct {
	mock.Mock
}

func (m *mockBudget) Evaluate(_ context.Context, dryRun bool) (*domain.EvaluationResult, error) {
	args := m.Called(dryRun)
	if r := args.Get(0); r != nil {
		return r.(*domain.EvaluationResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockBudget) CheckBudget(_ context.Context) (domain.BudgetStatus, error) {
	args := m.Called()
	return args.Get(0).(domain.BudgetStatus), args.Error(1)
}

func (m *mockBudget) StopAll(_ context.Context, dryRun bool) domain.RemediationOutcome {
	args := m.Called(dryRun)
	return args.Get(0).(domain.RemediationOutcome)
}

type mockEvaluator struct {
	mock.Mock
}

func (m *mockEvaluator) Evaluate(_ context.Context, dryRun bool) (*domain.EvaluationResult, error) {
	args := m.Called(dryRun)
	if r := args.Get(0); r != nil {
		return r.(*domain.EvaluationResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingReporter keeps what each command reported.
type recordingReporter struct {
	statuses    []domain.BudgetStatus
	verbose     bool
	evaluations []*domain.EvaluationResult
	outcomes    []domain.RemediationOutcome
	profiles    []domain.ConfigProfile
}

func (r *recordingReporter) Status(status domain.BudgetStatus, verbose bool) error {
	r.statuses = append(r.statuses, status)
	r.verbose = verbose
	return nil
}

func (r *recordingReporter) Evaluation(result *domain.EvaluationResult) error {
	r.evaluations = append(r.evaluations, result)
	return nil
}

func (r *recordingReporter) Outcome(outcome domain.RemediationOutcome) error {
	r.outcomes = append(r.outcomes, outcome)
	return nil
}

func (r *recordingReporter) Profiles(profiles []domain.ConfigProfile) error {
	r.profiles = profiles
	return nil
}
