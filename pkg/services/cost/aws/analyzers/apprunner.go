package analyzers

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apprunner"
	"github.com/aws/aws-sdk-go-v2/service/apprunner/types"
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/shopspring/decimal"
)

type AppRunnerAPI interface {
	ListServices(ctx context.Context, params *apprunner.ListServicesInput, optFns ...func(*apprunner.Options)) (*apprunner.ListServicesOutput, error)
	DescribeService(
		ctx context.Context,
		params *apprunner.DescribeServiceInput,
		optFns ...func(*apprunner.Options),
	) (*apprunner.DescribeServiceOutput, error)
}

type appRunnerAnalyzer struct {
	client func(region string) AppRunnerAPI
}

var _ cost.Analyzer = (*appRunnerAnalyzer)(nil)

func NewAppRunnerAnalyzer(client func(region string) AppRunnerAPI) cost.Analyzer {
	return &appRunnerAnalyzer{client: client}
}

func (a *appRunnerAnalyzer) GetResourceKind() domain.ResourceKind {
	return domain.KindPlatformService
}

// Discover lists running App Runner services with their instance size.
func (a *appRunnerAnalyzer) Discover(ctx context.Context, region string, _ domain.InstanceFilter) ([]domain.ResourceDescriptor, error) {
	client := a.client(region)

	var services []domain.ResourceDescriptor
	paginator := apprunner.NewListServicesPaginator(client, &apprunner.ListServicesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list App Runner services: %w", err)
		}
		for _, summary := range page.ServiceSummaryList {
			if summary.Status != types.ServiceStatusRunning {
				continue
			}
			resp, err := client.DescribeService(ctx, &apprunner.DescribeServiceInput{ServiceArn: summary.ServiceArn})
			if err != nil {
				return nil, fmt.Errorf("failed to describe %s: %w", aws.ToString(summary.ServiceArn), err)
			}

			attrs := domain.PlatformAttributes{ServiceARN: aws.ToString(summary.ServiceArn)}
			if resp.Service != nil && resp.Service.InstanceConfiguration != nil {
				attrs.CPUUnits = parseCPU(aws.ToString(resp.Service.InstanceConfiguration.Cpu))
				attrs.MemoryMB = parseMemory(aws.ToString(resp.Service.InstanceConfiguration.Memory))
			}
			services = append(services, domain.NewPlatformService(aws.ToString(summary.ServiceName), region, attrs))
		}
	}
	return services, nil
}

// parseCPU accepts "1024" or "1 vCPU" and returns CPU units.
func parseCPU(s string) int32 {
	s = strings.TrimSpace(s)
	if v, ok := strings.CutSuffix(s, "vCPU"); ok {
		return scaledUnits(strings.TrimSpace(v))
	}
	return parseUnits(s)
}

// parseMemory accepts "2048" or "2 GB" and returns MB.
func parseMemory(s string) int32 {
	s = strings.TrimSpace(s)
	if v, ok := strings.CutSuffix(s, "GB"); ok {
		return scaledUnits(strings.TrimSpace(v))
	}
	return parseUnits(s)
}

// scaledUnits converts a possibly fractional count like "0.25" to 1024ths.
func scaledUnits(s string) int32 {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return int32(v.Mul(decimal.NewFromInt(1024)).IntPart())
}
