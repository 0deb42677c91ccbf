package aws

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/shopspring/decimal"
)

type CloudWatchAPI interface {
	GetMetricStatistics(
		ctx context.Context,
		params *cloudwatch.GetMetricStatisticsInput,
		optFns ...func(*cloudwatch.Options),
	) (*cloudwatch.GetMetricStatisticsOutput, error)
}

type metrics struct {
	client  func(region string) CloudWatchAPI
	timeout timeout
}

var _ cost.MetricsSource = (*metrics)(nil)

func NewMetricsSource(client func(region string) CloudWatchAPI, callTimeout time.Duration) cost.MetricsSource {
	return &metrics{client: client, timeout: timeout(callTimeout)}
}

// GetMetric returns datapoints sorted by timestamp.
func (m *metrics) GetMetric(ctx context.Context, q domain.MetricQuery) ([]domain.MetricSample, error) {
	period := int32(q.Period / time.Second)
	if period < 1 {
		return nil, fmt.Errorf("metric period must be at least one second, got %s", q.Period)
	}

	dims := make([]types.Dimension, 0, len(q.Dimensions))
	for _, d := range q.Dimensions {
		dims = append(dims, types.Dimension{Name: awssdk.String(d.Name), Value: awssdk.String(d.Value)})
	}

	callCtx, cancel := m.timeout.bound(ctx)
	defer cancel()
	resp, err := m.client(q.Region).GetMetricStatistics(callCtx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  awssdk.String(q.Namespace),
		MetricName: awssdk.String(q.Name),
		Dimensions: dims,
		StartTime:  awssdk.Time(q.Start),
		EndTime:    awssdk.Time(q.End),
		Period:     awssdk.Int32(period),
		Statistics: []types.Statistic{types.Statistic(q.Statistic)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s statistics: %w", q.Namespace, q.Name, err)
	}

	samples := make([]domain.MetricSample, 0, len(resp.Datapoints))
	for _, dp := range resp.Datapoints {
		value, ok := datapointValue(dp, q.Statistic)
		if !ok {
			continue
		}
		samples = append(samples, domain.MetricSample{
			Timestamp: awssdk.ToTime(dp.Timestamp),
			Value:     value,
			Statistic: q.Statistic,
		})
	}
	domain.SortSamples(samples)
	return samples, nil
}

func datapointValue(dp types.Datapoint, stat domain.Statistic) (decimal.Decimal, bool) {
	var v *float64
	switch stat {
	case domain.StatisticSum:
		v = dp.Sum
	case domain.StatisticAverage:
		v = dp.Average
	case domain.StatisticMaximum:
		v = dp.Maximum
	case domain.StatisticMinimum:
		v = dp.Minimum
	case domain.StatisticSampleCount:
		v = dp.SampleCount
	}
	if v == nil {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(*v), true
}
