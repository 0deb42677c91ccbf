package remediation

import (
	"context"

	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/stretchr/testify/mock"
)

type mockActuator struct {
	mock.Mock
}

func (m *mockActuator) StopInstances(ctx context.Context, region string, ids []string) error {
	return m.Called(ctx, region, ids).Error(0)
}

func (m *mockActuator) StopDatabase(ctx context.Context, region, id string) error {
	return m.Called(ctx, region, id).Error(0)
}

func (m *mockActuator) GetFunctionConcurrency(ctx context.Context, region, function string) (*int32, error) {
	args := m.Called(ctx, region, function)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int32), args.Error(1)
}

func (m *mockActuator) PutFunctionConcurrency(ctx context.Context, region, function string, concurrency int32) error {
	return m.Called(ctx, region, function, concurrency).Error(0)
}

func (m *mockActuator) RegisterScalableTarget(ctx context.Context, region string, target cost.ScalableTarget) error {
	return m.Called(ctx, region, target).Error(0)
}

func (m *mockActuator) StartExecution(ctx context.Context, region, stateMachineARN, input string) (string, error) {
	args := m.Called(ctx, region, stateMachineARN, input)
	return args.String(0), args.Error(1)
}

func (m *mockActuator) PauseService(ctx context.Context, region, serviceARN string) error {
	return m.Called(ctx, region, serviceARN).Error(0)
}

func (m *mockActuator) ScaleService(ctx context.Context, region, cluster, service string, desired int32) error {
	return m.Called(ctx, region, cluster, service, desired).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, channel, subject, body string) (string, error) {
	args := m.Called(ctx, channel, subject, body)
	return args.String(0), args.Error(1)
}
