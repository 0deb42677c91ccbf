package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBilling_GetSpend_SumsPages(t *testing.T) {
	// Given
	ce := new(mockCostExplorer)
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	ce.On("GetCostAndUsage", mock.Anything, mock.MatchedBy(func(in *costexplorer.GetCostAndUsageInput) bool {
		return in.NextPageToken == nil &&
			awssdk.ToString(in.TimePeriod.Start) == "2026-10-01" &&
			awssdk.ToString(in.TimePeriod.End) == "2026-10-17" &&
			in.Granularity == cetypes.GranularityMonthly
	})).Return(&costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []cetypes.ResultByTime{
			{Total: map[string]cetypes.MetricValue{"UnblendedCost": {Amount: awssdk.String("12.345")}}},
		},
		NextPageToken: awssdk.String("next"),
	}, nil).Once()
	ce.On("GetCostAndUsage", mock.Anything, mock.MatchedBy(func(in *costexplorer.GetCostAndUsageInput) bool {
		return awssdk.ToString(in.NextPageToken) == "next"
	})).Return(&costexplorer.GetCostAndUsageOutput{
		ResultsByTime: []cetypes.ResultByTime{
			{Total: map[string]cetypes.MetricValue{"UnblendedCost": {Amount: awssdk.String("0.655")}}},
			{Total: map[string]cetypes.MetricValue{}},
		},
	}, nil).Once()

	// When
	spend, err := NewBillingSource(ce, time.Second).GetSpend(context.Background(), start, end)

	// Then
	require.NoError(t, err)
	assert.Equal(t, "13", spend.String())
	ce.AssertExpectations(t)
}

func TestBilling_GetSpend_Error(t *testing.T) {
	ce := new(mockCostExplorer)
	ce.On("GetCostAndUsage", mock.Anything, mock.Anything).Return(nil, errors.New("AccessDenied")).Once()

	spend, err := NewBillingSource(ce, time.Second).GetSpend(context.Background(), time.Now(), time.Now())

	assert.Error(t, err)
	assert.True(t, spend.IsZero())
}

func TestMetrics_GetMetric(t *testing.T) {
	cw := new(mockCloudWatch)
	t0 := time.Date(2026, 10, 16, 11, 0, 0, 0, time.UTC)
	cw.On("GetMetricStatistics", mock.Anything, mock.MatchedBy(func(in *cloudwatch.GetMetricStatisticsInput) bool {
		return awssdk.ToInt32(in.Period) == 300 &&
			len(in.Dimensions) == 1 &&
			awssdk.ToString(in.Dimensions[0].Value) == "api" &&
			in.Statistics[0] == cwtypes.StatisticSum
	})).Return(&cloudwatch.GetMetricStatisticsOutput{
		Datapoints: []cwtypes.Datapoint{
			{Timestamp: awssdk.Time(t0.Add(5 * time.Minute)), Sum: awssdk.Float64(7)},
			{Timestamp: awssdk.Time(t0), Sum: awssdk.Float64(3)},
			{Timestamp: awssdk.Time(t0), Average: awssdk.Float64(1)},
		},
	}, nil).Once()

	src := NewMetricsSource(func(string) CloudWatchAPI { return cw }, time.Second)
	samples, err := src.GetMetric(context.Background(), domain.MetricQuery{
		Region:     "us-east-1",
		Namespace:  "AWS/Lambda",
		Name:       "Invocations",
		Dimensions: []domain.Dimension{{Name: "FunctionName", Value: "api"}},
		Start:      t0,
		End:        t0.Add(10 * time.Minute),
		Period:     5 * time.Minute,
		Statistic:  domain.StatisticSum,
	})

	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, t0, samples[0].Timestamp)
	assert.Equal(t, "3", samples[0].Value.String())
	assert.Equal(t, "7", samples[1].Value.String())
}

func TestMetrics_GetMetric_RejectsSubSecondPeriod(t *testing.T) {
	src := NewMetricsSource(func(string) CloudWatchAPI { return new(mockCloudWatch) }, time.Second)

	_, err := src.GetMetric(context.Background(), domain.MetricQuery{Period: time.Millisecond})

	assert.Error(t, err)
}

const ec2Product = `{
  "product": {"attributes": {"instanceType": "t3.micro"}},
  "terms": {"OnDemand": {"X.JRTCKXETXF": {"priceDimensions": {
    "X.JRTCKXETXF.6YS6EN2CT7": {"unit": "Hrs", "pricePerUnit": {"USD": "0.0104000000"}}
  }}}}
}`

func TestPriceList_Lookup(t *testing.T) {
	tests := []struct {
		name      string
		resource  domain.ResourceDescriptor
		response  *pricing.GetProductsOutput
		err       error
		wantOK    bool
		wantPrice string
	}{
		{
			name:      "ec2 on-demand price",
			resource:  domain.NewInstance("i-1", "t3.micro", "eu-west-1", domain.InstanceAttributes{}),
			response:  &pricing.GetProductsOutput{PriceList: []string{ec2Product}},
			wantOK:    true,
			wantPrice: "0.0104",
		},
		{
			name:     "no product",
			resource: domain.NewDatabase("db", "db.t3.micro", "postgres", "us-east-1"),
			response: &pricing.GetProductsOutput{},
		},
		{
			name:     "api failure",
			resource: domain.NewInstance("i-1", "t3.micro", "us-east-1", domain.InstanceAttributes{}),
			err:      errors.New("ThrottlingException"),
		},
		{
			name:     "malformed document",
			resource: domain.NewInstance("i-1", "t3.micro", "us-east-1", domain.InstanceAttributes{}),
			response: &pricing.GetProductsOutput{PriceList: []string{"{"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockPricing)
			if tt.err != nil {
				client.On("GetProducts", mock.Anything, mock.Anything).Return(nil, tt.err).Once()
			} else {
				client.On("GetProducts", mock.Anything, mock.Anything).Return(tt.response, nil).Once()
			}

			res := NewPriceSource(client, time.Second).Lookup(context.Background(), tt.resource)

			assert.Equal(t, tt.wantOK, res.OK())
			if tt.wantOK {
				assert.Equal(t, tt.wantPrice, res.Price.String())
			} else {
				assert.NotEmpty(t, res.Failure.Error())
			}
		})
	}
}

func TestPriceList_Lookup_FiltersDatabaseEngine(t *testing.T) {
	client := new(mockPricing)
	client.On("GetProducts", mock.Anything, mock.MatchedBy(func(in *pricing.GetProductsInput) bool {
		values := map[string]string{}
		for _, f := range in.Filters {
			values[awssdk.ToString(f.Field)] = awssdk.ToString(f.Value)
		}
		return awssdk.ToString(in.ServiceCode) == "AmazonRDS" &&
			values["databaseEngine"] == "PostgreSQL" &&
			values["location"] == "EU (Frankfurt)" &&
			values["instanceType"] == "db.r5.large"
	})).Return(&pricing.GetProductsOutput{}, nil).Once()

	NewPriceSource(client, time.Second).Lookup(context.Background(),
		domain.NewDatabase("db", "db.r5.large", "postgres", "eu-central-1"))

	client.AssertExpectations(t)
}

func TestPriceList_Lookup_UsagePricedKindsNeverCallAPI(t *testing.T) {
	client := new(mockPricing)

	res := NewPriceSource(client, time.Second).Lookup(context.Background(), domain.NewFunction("api", "us-east-1", 128))

	assert.False(t, res.OK())
	client.AssertNotCalled(t, "GetProducts", mock.Anything, mock.Anything)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "US West (Oregon)", Location("us-west-2"))
	assert.Equal(t, "US East (N. Virginia)", Location("mars-north-1"))
}

func TestInsightsQuerier_CountMatches(t *testing.T) {
	tests := []struct {
		name    string
		polls   []*cloudwatchlogs.GetQueryResultsOutput
		want    int64
		wantErr bool
	}{
		{
			name: "completes after running",
			polls: []*cloudwatchlogs.GetQueryResultsOutput{
				{Status: logtypes.QueryStatusRunning},
				{Status: logtypes.QueryStatusComplete, Results: [][]logtypes.ResultField{{
					{Field: awssdk.String("count"), Value: awssdk.String("42")},
				}}},
			},
			want: 42,
		},
		{
			name:  "no rows counts zero",
			polls: []*cloudwatchlogs.GetQueryResultsOutput{{Status: logtypes.QueryStatusComplete}},
		},
		{
			name:    "failed query",
			polls:   []*cloudwatchlogs.GetQueryResultsOutput{{Status: logtypes.QueryStatusFailed}},
			wantErr: true,
		},
		{
			name: "never completes",
			polls: []*cloudwatchlogs.GetQueryResultsOutput{
				{Status: logtypes.QueryStatusRunning},
				{Status: logtypes.QueryStatusRunning},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := new(mockLogs)
			logs.On("StartQuery", mock.Anything, mock.MatchedBy(func(in *cloudwatchlogs.StartQueryInput) bool {
				return awssdk.ToString(in.LogGroupName) == "/aws/lambda/api" &&
					awssdk.ToString(in.QueryString) == countQuery("Task timed out")
			})).Return(&cloudwatchlogs.StartQueryOutput{QueryId: awssdk.String("q-1")}, nil).Once()
			for _, p := range tt.polls {
				logs.On("GetQueryResults", mock.Anything, mock.Anything).Return(p, nil).Once()
			}
			logs.On("StopQuery", mock.Anything, mock.Anything).Return(nil).Maybe()

			q := NewInsightsQuerier(func(string) LogsAPI { return logs }, time.Second).
				WithPolling(time.Millisecond, 2)
			end := time.Now()
			n, err := q.CountMatches(context.Background(), "us-east-1", "/aws/lambda/api", "Task timed out", end.Add(-5*time.Minute), end)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestActuator_StopInstancesAndConcurrency(t *testing.T) {
	ec2Client := new(mockEC2)
	lambdaClient := new(mockLambda)
	ec2Client.On("StopInstances", mock.Anything, &ec2.StopInstancesInput{InstanceIds: []string{"i-1", "i-2"}}).
		Return(nil).Once()
	lambdaClient.On("GetFunctionConcurrency", mock.Anything, mock.Anything).
		Return(&lambda.GetFunctionConcurrencyOutput{}, nil).Once()
	lambdaClient.On("PutFunctionConcurrency", mock.Anything, mock.MatchedBy(func(in *lambda.PutFunctionConcurrencyInput) bool {
		return awssdk.ToString(in.FunctionName) == "api" && awssdk.ToInt32(in.ReservedConcurrentExecutions) == 0
	})).Return(&smithy.GenericAPIError{Code: "ResourceNotFoundException"}).Once()

	a := NewActuator(ActuatorClients{
		EC2:    func(string) EC2StopAPI { return ec2Client },
		Lambda: func(string) LambdaConcurrencyAPI { return lambdaClient },
	}, time.Second)

	require.NoError(t, a.StopInstances(context.Background(), "us-east-1", []string{"i-1", "i-2"}))

	current, err := a.GetFunctionConcurrency(context.Background(), "us-east-1", "api")
	require.NoError(t, err)
	assert.Nil(t, current)

	err = a.PutFunctionConcurrency(context.Background(), "us-east-1", "api", 0)
	var apiErr smithy.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ResourceNotFoundException", apiErr.ErrorCode())
}

func TestNotifier_UsesTopicRegion(t *testing.T) {
	client := new(mockSNS)
	client.On("Publish", mock.Anything, &sns.PublishInput{
		TopicArn: awssdk.String("arn:aws:sns:eu-west-1:123456789012:alerts"),
		Subject:  awssdk.String("subject"),
		Message:  awssdk.String("body"),
	}).Return(&sns.PublishOutput{MessageId: awssdk.String("m-1")}, nil).Once()

	var region string
	n := NewNotifier(func(r string) SNSAPI { region = r; return client }, "us-east-1", time.Second)
	id, err := n.Notify(context.Background(), "arn:aws:sns:eu-west-1:123456789012:alerts", "subject", "body")

	require.NoError(t, err)
	assert.Equal(t, "m-1", id)
	assert.Equal(t, "eu-west-1", region)
}

func TestAccountDescriber(t *testing.T) {
	stsClient, iamClient, orgs := new(mockSTS), new(mockIAM), new(mockOrgs)
	stsClient.On("GetCallerIdentity", mock.Anything, mock.Anything).
		Return(&sts.GetCallerIdentityOutput{Account: awssdk.String("123456789012")}, nil)
	iamClient.On("ListAccountAliases", mock.Anything, mock.Anything).
		Return(&iam.ListAccountAliasesOutput{AccountAliases: []string{"prod"}}, nil)
	orgs.On("DescribeOrganization", mock.Anything, mock.Anything).
		Return(&organizations.DescribeOrganizationOutput{Organization: &orgtypes.Organization{
			Id:              awssdk.String("o-abc"),
			MasterAccountId: awssdk.String("999999999999"),
		}}, nil).Once()

	d := NewAccountDescriber(stsClient, iamClient, orgs, time.Second)
	info, err := d.DescribeAccount(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.AccountInfo{
		AccountID:           "123456789012",
		Alias:               "prod",
		OrganizationID:      "o-abc",
		ManagementAccountID: "999999999999",
	}, info)

	orgs.On("DescribeOrganization", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "AWSOrganizationsNotInUseException"}).Once()
	info, err = d.DescribeAccount(context.Background())
	require.NoError(t, err)
	assert.Empty(t, info.OrganizationID)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "Throttling", errorCode(&smithy.GenericAPIError{Code: "Throttling"}))
	assert.Equal(t, "", errorCode(errors.New("dial tcp: timeout")))
	assert.True(t, isCode(&smithy.GenericAPIError{Code: "A"}, "B", "A"))
	assert.False(t, isCode(errors.New("x"), ""))
}
