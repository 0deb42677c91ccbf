package analyzers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
)

// DescribeServices accepts at most this many services per call.
const describeServicesBatch = 10

type ECSAPI interface {
	ListClusters(ctx context.Context, params *ecs.ListClustersInput, optFns ...func(*ecs.Options)) (*ecs.ListClustersOutput, error)
	ListServices(ctx context.Context, params *ecs.ListServicesInput, optFns ...func(*ecs.Options)) (*ecs.ListServicesOutput, error)
	DescribeServices(ctx context.Context, params *ecs.DescribeServicesInput, optFns ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error)
	DescribeTaskDefinition(
		ctx context.Context,
		params *ecs.DescribeTaskDefinitionInput,
		optFns ...func(*ecs.Options),
	) (*ecs.DescribeTaskDefinitionOutput, error)
}

type ecsAnalyzer struct {
	client func(region string) ECSAPI
}

var _ cost.Analyzer = (*ecsAnalyzer)(nil)

func NewECSAnalyzer(client func(region string) ECSAPI) cost.Analyzer {
	return &ecsAnalyzer{client: client}
}

func (a *ecsAnalyzer) GetResourceKind() domain.ResourceKind {
	return domain.KindContainerService
}

// Discover lists Fargate services with running tasks across every cluster.
func (a *ecsAnalyzer) Discover(ctx context.Context, region string, _ domain.InstanceFilter) ([]domain.ResourceDescriptor, error) {
	client := a.client(region)

	var clusters []string
	clusterPages := ecs.NewListClustersPaginator(client, &ecs.ListClustersInput{})
	for clusterPages.HasMorePages() {
		page, err := clusterPages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list ECS clusters: %w", err)
		}
		clusters = append(clusters, page.ClusterArns...)
	}

	var services []domain.ResourceDescriptor
	taskSizes := make(map[string][2]int32)
	for _, cluster := range clusters {
		var arns []string
		servicePages := ecs.NewListServicesPaginator(client, &ecs.ListServicesInput{
			Cluster:    aws.String(cluster),
			LaunchType: types.LaunchTypeFargate,
		})
		for servicePages.HasMorePages() {
			page, err := servicePages.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to list services of %s: %w", cluster, err)
			}
			arns = append(arns, page.ServiceArns...)
		}

		for start := 0; start < len(arns); start += describeServicesBatch {
			end := min(start+describeServicesBatch, len(arns))
			resp, err := client.DescribeServices(ctx, &ecs.DescribeServicesInput{
				Cluster:  aws.String(cluster),
				Services: arns[start:end],
			})
			if err != nil {
				return nil, fmt.Errorf("failed to describe services of %s: %w", cluster, err)
			}

			for _, svc := range resp.Services {
				if svc.RunningCount == 0 {
					continue
				}
				taskDef := aws.ToString(svc.TaskDefinition)
				size, ok := taskSizes[taskDef]
				if !ok {
					size, err = a.taskSize(ctx, client, taskDef)
					if err != nil {
						return nil, err
					}
					taskSizes[taskDef] = size
				}
				services = append(services, domain.NewContainerService(aws.ToString(svc.ServiceName), region, domain.ContainerAttributes{
					Cluster:        cluster,
					ServiceARN:     aws.ToString(svc.ServiceArn),
					TaskDefinition: taskDef,
					RunningCount:   svc.RunningCount,
					CPUUnits:       size[0],
					MemoryMB:       size[1],
				}))
			}
		}
	}
	return services, nil
}

// taskSize returns the CPU units and memory of a task definition.
func (a *ecsAnalyzer) taskSize(ctx context.Context, client ECSAPI, taskDef string) ([2]int32, error) {
	resp, err := client.DescribeTaskDefinition(ctx, &ecs.DescribeTaskDefinitionInput{TaskDefinition: aws.String(taskDef)})
	if err != nil {
		return [2]int32{}, fmt.Errorf("failed to describe task definition %s: %w", taskDef, err)
	}
	if resp.TaskDefinition == nil {
		return [2]int32{}, nil
	}
	return [2]int32{
		parseUnits(aws.ToString(resp.TaskDefinition.Cpu)),
		parseUnits(aws.ToString(resp.TaskDefinition.Memory)),
	}, nil
}

func parseUnits(s string) int32 {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}
