package cost

import (
	"context"
	"time"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// BillingSource reports actual spend for a period.
type BillingSource interface {
	GetSpend(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
}

// Analyzer discovers running resources of one kind in one region.
type Analyzer interface {
	GetResourceKind() domain.ResourceKind
	Discover(ctx context.Context, region string, filter domain.InstanceFilter) ([]domain.ResourceDescriptor, error)
}

// Inventory lists running resources across every supported kind.
type Inventory interface {
	ListResources(
		ctx context.Context,
		region string,
		kind domain.ResourceKind,
		filter domain.InstanceFilter,
	) ([]domain.ResourceDescriptor, error)
	// SupportedKinds returns kinds in discovery order.
	SupportedKinds() []domain.ResourceKind
}

// PriceSource resolves a list price for a descriptor. Failures are reported
// in the result, not as an error.
type PriceSource interface {
	Lookup(ctx context.Context, resource domain.ResourceDescriptor) LookupResult
}

type MetricsSource interface {
	GetMetric(ctx context.Context, query domain.MetricQuery) ([]domain.MetricSample, error)
}

// ScalableTarget describes an Application Auto Scaling capacity change.
type ScalableTarget struct {
	ServiceNamespace  string
	ResourceID        string
	ScalableDimension string
	MinCapacity       int32
	MaxCapacity       int32
}

// Actuator applies remediation to individual resources.
type Actuator interface {
	StopInstances(ctx context.Context, region string, ids []string) error
	StopDatabase(ctx context.Context, region, id string) error
	GetFunctionConcurrency(ctx context.Context, region, function string) (*int32, error)
	PutFunctionConcurrency(ctx context.Context, region, function string, concurrency int32) error
	RegisterScalableTarget(ctx context.Context, region string, target ScalableTarget) error
	StartExecution(ctx context.Context, region, stateMachineARN, input string) (string, error)
	PauseService(ctx context.Context, region, serviceARN string) error
	ScaleService(ctx context.Context, region, cluster, service string, desired int32) error
}

// Notifier delivers a message to a channel and returns its message id.
type Notifier interface {
	Notify(ctx context.Context, channel, subject, body string) (string, error)
}

// LogQuerier counts log events matching a pattern.
type LogQuerier interface {
	CountMatches(ctx context.Context, region, logGroup, pattern string, start, end time.Time) (int64, error)
}

type AccountDescriber interface {
	DescribeAccount(ctx context.Context) (domain.AccountInfo, error)
}
