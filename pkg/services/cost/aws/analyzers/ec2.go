package analyzers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
)

type EC2API interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

type ec2Analyzer struct {
	client func(region string) EC2API
}

var _ cost.Analyzer = (*ec2Analyzer)(nil)

func NewEC2Analyzer(client func(region string) EC2API) cost.Analyzer {
	return &ec2Analyzer{client: client}
}

func (a *ec2Analyzer) GetResourceKind() domain.ResourceKind {
	return domain.KindComputeInstance
}

// Discover lists running instances, narrowed by any extra EC2 filters.
func (a *ec2Analyzer) Discover(ctx context.Context, region string, filter domain.InstanceFilter) ([]domain.ResourceDescriptor, error) {
	filters := []types.Filter{
		{
			Name:   aws.String("instance-state-name"),
			Values: []string{"running"},
		},
	}
	for _, f := range filter.EC2Filters {
		filters = append(filters, types.Filter{Name: aws.String(f.Name), Values: f.Values})
	}

	var instances []domain.ResourceDescriptor
	paginator := ec2.NewDescribeInstancesPaginator(a.client(region), &ec2.DescribeInstancesInput{Filters: filters})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe EC2 instances: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				if instance.InstanceId == nil || instance.InstanceType == "" {
					continue
				}

				tags := make(map[string]string, len(instance.Tags))
				for _, tag := range instance.Tags {
					tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
				}

				r := domain.NewInstance(aws.ToString(instance.InstanceId), string(instance.InstanceType), region, domain.InstanceAttributes{
					LaunchTime: aws.ToTime(instance.LaunchTime),
					Tags:       tags,
				})
				if name, ok := tags["Name"]; ok && name != "" {
					r.Name = name
				}
				instances = append(instances, r)
			}
		}
	}
	return instances, nil
}
