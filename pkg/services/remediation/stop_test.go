package remediation

import (
	"context"
	"errors"
	"testing"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func runningSet() domain.ResourceSet {
	set := domain.NewResourceSet()
	set[domain.KindComputeInstance] = []domain.ResourceDescriptor{
		domain.NewInstance("i-1", "t3.micro", "us-east-1", domain.InstanceAttributes{}),
	}
	set[domain.KindManagedDatabase] = []domain.ResourceDescriptor{
		domain.NewDatabase("db-1", "db.t3.micro", "mysql", "us-east-1"),
	}
	set[domain.KindServerlessFunction] = []domain.ResourceDescriptor{
		domain.NewFunction("api", "us-east-1", 128),
		domain.NewFunction("already", "us-east-1", 128),
		domain.NewFunction("cost-guardian", "us-east-1", 128),
	}
	set[domain.KindPlatformService] = []domain.ResourceDescriptor{
		domain.NewPlatformService("web", "us-east-1", domain.PlatformAttributes{ServiceARN: "arn:apprunner:web"}),
	}
	set[domain.KindContainerService] = []domain.ResourceDescriptor{
		domain.NewContainerService("worker", "us-east-1", domain.ContainerAttributes{
			Cluster:    "prod",
			ServiceARN: "arn:ecs:worker",
		}),
	}
	return set
}

func TestRouter_StopAll(t *testing.T) {
	a := new(mockActuator)
	a.On("StopInstances", mock.Anything, "us-east-1", []string{"i-1"}).Return(nil).Once()
	a.On("StopDatabase", mock.Anything, "us-east-1", "db-1").Return(errors.New("not available")).Once()
	a.On("GetFunctionConcurrency", mock.Anything, "us-east-1", "api").Return(nil, errors.New("ResourceNotFound")).Once()
	a.On("GetFunctionConcurrency", mock.Anything, "us-east-1", "already").Return(int32Ptr(0), nil).Once()
	a.On("PutFunctionConcurrency", mock.Anything, "us-east-1", "api", int32(0)).Return(nil).Once()
	a.On("PauseService", mock.Anything, "us-east-1", "arn:apprunner:web").Return(nil).Once()
	a.On("ScaleService", mock.Anything, "us-east-1", "prod", "worker", int32(0)).Return(nil).Once()

	r := newRouter(t, a, new(mockNotifier), WithProtectedFunctions("cost-guardian"))
	out := r.StopAll(context.Background(), runningSet(), false)

	byID := make(map[string]domain.ItemStatus)
	for _, it := range out.Items {
		byID[it.ID] = it.Status
	}
	assert.Equal(t, map[string]domain.ItemStatus{
		"i-1":               domain.StatusStopped,
		"db-1":              domain.StatusError,
		"api":               domain.StatusThrottled,
		"already":           domain.StatusAlreadyThrottled,
		"arn:apprunner:web": domain.StatusPaused,
		"arn:ecs:worker":    domain.StatusScaledDown,
	}, byID)
	assert.True(t, out.AnyChanged())
	assert.Equal(t, StopAllAction, out.Action)
	a.AssertExpectations(t)
}

func TestRouter_StopAll_DryRun(t *testing.T) {
	a := new(mockActuator)
	a.On("GetFunctionConcurrency", mock.Anything, "us-east-1", mock.Anything).Return(nil, nil)

	r := newRouter(t, a, new(mockNotifier), WithProtectedFunctions("cost-guardian"))
	out := r.StopAll(context.Background(), runningSet(), true)

	require.Len(t, out.Items, 6)
	for _, it := range out.Items {
		assert.Equal(t, domain.StatusDryRun, it.Status, it.ID)
	}
	assert.True(t, out.DryRun)
	a.AssertNotCalled(t, "StopInstances", mock.Anything, mock.Anything, mock.Anything)
	a.AssertNotCalled(t, "PutFunctionConcurrency", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_StopAll_OnlyAlreadyThrottled(t *testing.T) {
	set := domain.NewResourceSet()
	set[domain.KindServerlessFunction] = []domain.ResourceDescriptor{domain.NewFunction("already", "us-east-1", 128)}

	a := new(mockActuator)
	a.On("GetFunctionConcurrency", mock.Anything, "us-east-1", "already").Return(int32Ptr(0), nil)

	r := newRouter(t, a, new(mockNotifier))
	out := r.StopAll(context.Background(), set, false)

	assert.False(t, out.AnyChanged())
}
