package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/stretchr/testify/mock"
)

type mockCostExplorer struct{ mock.Mock }

func (m *mockCostExplorer) GetCostAndUsage(
	ctx context.Context,
	in *costexplorer.GetCostAndUsageInput,
	_ ...func(*costexplorer.Options),
) (*costexplorer.GetCostAndUsageOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*costexplorer.GetCostAndUsageOutput), args.Error(1)
}

type mockCloudWatch struct{ mock.Mock }

func (m *mockCloudWatch) GetMetricStatistics(
	ctx context.Context,
	in *cloudwatch.GetMetricStatisticsInput,
	_ ...func(*cloudwatch.Options),
) (*cloudwatch.GetMetricStatisticsOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cloudwatch.GetMetricStatisticsOutput), args.Error(1)
}

type mockLogs struct{ mock.Mock }

func (m *mockLogs) StartQuery(
	ctx context.Context,
	in *cloudwatchlogs.StartQueryInput,
	_ ...func(*cloudwatchlogs.Options),
) (*cloudwatchlogs.StartQueryOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cloudwatchlogs.StartQueryOutput), args.Error(1)
}

func (m *mockLogs) GetQueryResults(
	ctx context.Context,
	in *cloudwatchlogs.GetQueryResultsInput,
	_ ...func(*cloudwatchlogs.Options),
) (*cloudwatchlogs.GetQueryResultsOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cloudwatchlogs.GetQueryResultsOutput), args.Error(1)
}

func (m *mockLogs) StopQuery(
	ctx context.Context,
	in *cloudwatchlogs.StopQueryInput,
	_ ...func(*cloudwatchlogs.Options),
) (*cloudwatchlogs.StopQueryOutput, error) {
	args := m.Called(ctx, in)
	return &cloudwatchlogs.StopQueryOutput{}, args.Error(0)
}

type mockPricing struct{ mock.Mock }

func (m *mockPricing) GetProducts(
	ctx context.Context,
	in *pricing.GetProductsInput,
	_ ...func(*pricing.Options),
) (*pricing.GetProductsOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.GetProductsOutput), args.Error(1)
}

type mockEC2 struct{ mock.Mock }

func (m *mockEC2) StopInstances(ctx context.Context, in *ec2.StopInstancesInput, _ ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	args := m.Called(ctx, in)
	return &ec2.StopInstancesOutput{}, args.Error(0)
}

type mockLambda struct{ mock.Mock }

func (m *mockLambda) GetFunctionConcurrency(
	ctx context.Context,
	in *lambda.GetFunctionConcurrencyInput,
	_ ...func(*lambda.Options),
) (*lambda.GetFunctionConcurrencyOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lambda.GetFunctionConcurrencyOutput), args.Error(1)
}

func (m *mockLambda) PutFunctionConcurrency(
	ctx context.Context,
	in *lambda.PutFunctionConcurrencyInput,
	_ ...func(*lambda.Options),
) (*lambda.PutFunctionConcurrencyOutput, error) {
	args := m.Called(ctx, in)
	return &lambda.PutFunctionConcurrencyOutput{}, args.Error(0)
}

type mockSNS struct{ mock.Mock }

func (m *mockSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

type mockSTS struct{ mock.Mock }

func (m *mockSTS) GetCallerIdentity(
	ctx context.Context,
	in *sts.GetCallerIdentityInput,
	_ ...func(*sts.Options),
) (*sts.GetCallerIdentityOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sts.GetCallerIdentityOutput), args.Error(1)
}

type mockIAM struct{ mock.Mock }

func (m *mockIAM) ListAccountAliases(
	ctx context.Context,
	in *iam.ListAccountAliasesInput,
	_ ...func(*iam.Options),
) (*iam.ListAccountAliasesOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*iam.ListAccountAliasesOutput), args.Error(1)
}

type mockOrgs struct{ mock.Mock }

func (m *mockOrgs) DescribeOrganization(
	ctx context.Context,
	in *organizations.DescribeOrganizationInput,
	_ ...func(*organizations.Options),
) (*organizations.DescribeOrganizationOutput, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organizations.DescribeOrganizationOutput), args.Error(1)
}
