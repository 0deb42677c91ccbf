package analyzers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
)

type RDSAPI interface {
	DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

type rdsAnalyzer struct {
	client func(region string) RDSAPI
}

var _ cost.Analyzer = (*rdsAnalyzer)(nil)

func NewRDSAnalyzer(client func(region string) RDSAPI) cost.Analyzer {
	return &rdsAnalyzer{client: client}
}

func (a *rdsAnalyzer) GetResourceKind() domain.ResourceKind {
	return domain.KindManagedDatabase
}

// Discover lists available databases whose engine passes the filter.
func (a *rdsAnalyzer) Discover(ctx context.Context, region string, filter domain.InstanceFilter) ([]domain.ResourceDescriptor, error) {
	var databases []domain.ResourceDescriptor
	paginator := rds.NewDescribeDBInstancesPaginator(a.client(region), &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe RDS instances: %w", err)
		}
		for _, instance := range page.DBInstances {
			if aws.ToString(instance.DBInstanceStatus) != "available" {
				continue
			}
			id := aws.ToString(instance.DBInstanceIdentifier)
			class := aws.ToString(instance.DBInstanceClass)
			engine := aws.ToString(instance.Engine)
			if id == "" || class == "" || engine == "" || !filter.MatchesEngine(engine) {
				continue
			}
			databases = append(databases, domain.NewDatabase(id, class, engine, region))
		}
	}
	return databases, nil
}
