package pricing

import (
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// Static list prices used when the pricing source cannot answer.
var (
	DefaultInstanceHourly = decimal.RequireFromString("0.10")
	DefaultDatabaseHourly = decimal.RequireFromString("0.15")
	LambdaRequestPrice    = decimal.RequireFromString("0.0000002")
	LambdaGBSecondPrice   = decimal.RequireFromString("0.0000166667")
	FargateVCPUHourly     = decimal.RequireFromString("0.04048")
	FargateGBHourly       = decimal.RequireFromString("0.004445")
	AppRunnerVCPUHourly   = decimal.RequireFromString("0.064")
	AppRunnerGBHourly     = decimal.RequireFromString("0.007")
	cpuUnitsPerVCPU       = decimal.NewFromInt(1024)
	megabytesPerGigabyte  = decimal.NewFromInt(1024)
)

// DefaultPrice returns the static price for a descriptor's kind.
func DefaultPrice(r domain.ResourceDescriptor) decimal.Decimal {
	switch r.Kind {
	case domain.KindComputeInstance:
		return DefaultInstanceHourly
	case domain.KindManagedDatabase:
		return DefaultDatabaseHourly
	case domain.KindServerlessFunction:
		return LambdaRequestPrice
	case domain.KindContainerService:
		return ContainerHourly(r)
	case domain.KindPlatformService:
		return PlatformHourly(r)
	default:
		return decimal.Zero
	}
}

// ContainerHourly prices a Fargate service: vCPU and memory rates times the
// number of running tasks.
func ContainerHourly(r domain.ResourceDescriptor) decimal.Decimal {
	attrs := r.Attributes.Container
	if attrs == nil {
		return decimal.Zero
	}
	cpu, mem := attrs.CPUUnits, attrs.MemoryMB
	vcpu := decimal.NewFromInt32(cpu).Div(cpuUnitsPerVCPU)
	gb := decimal.NewFromInt32(mem).Div(megabytesPerGigabyte)
	perTask := vcpu.Mul(FargateVCPUHourly).Add(gb.Mul(FargateGBHourly))
	return perTask.Mul(decimal.NewFromInt32(attrs.RunningCount))
}

// PlatformHourly prices an App Runner service from its provisioned vCPU and
// memory.
func PlatformHourly(r domain.ResourceDescriptor) decimal.Decimal {
	attrs := r.Attributes.Platform
	if attrs == nil {
		return decimal.Zero
	}
	vcpu := decimal.NewFromInt32(attrs.CPUUnits).Div(cpuUnitsPerVCPU)
	gb := decimal.NewFromInt32(attrs.MemoryMB).Div(megabytesPerGigabyte)
	return vcpu.Mul(AppRunnerVCPUHourly).Add(gb.Mul(AppRunnerGBHourly))
}
