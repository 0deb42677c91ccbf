package aws

import (
	"context"
	"fmt"
	"strconv"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/rs/zerolog"
)

const (
	DefaultQueryPollInterval = time.Second
	DefaultQueryMaxPolls     = 30
)

type LogsAPI interface {
	StartQuery(
		ctx context.Context,
		params *cloudwatchlogs.StartQueryInput,
		optFns ...func(*cloudwatchlogs.Options),
	) (*cloudwatchlogs.StartQueryOutput, error)
	GetQueryResults(
		ctx context.Context,
		params *cloudwatchlogs.GetQueryResultsInput,
		optFns ...func(*cloudwatchlogs.Options),
	) (*cloudwatchlogs.GetQueryResultsOutput, error)
	StopQuery(
		ctx context.Context,
		params *cloudwatchlogs.StopQueryInput,
		optFns ...func(*cloudwatchlogs.Options),
	) (*cloudwatchlogs.StopQueryOutput, error)
}

type InsightsQuerier struct {
	client       func(region string) LogsAPI
	timeout      timeout
	pollInterval time.Duration
	maxPolls     int
}

var _ cost.LogQuerier = (*InsightsQuerier)(nil)

func NewInsightsQuerier(client func(region string) LogsAPI, callTimeout time.Duration) *InsightsQuerier {
	return &InsightsQuerier{
		client:       client,
		timeout:      timeout(callTimeout),
		pollInterval: DefaultQueryPollInterval,
		maxPolls:     DefaultQueryMaxPolls,
	}
}

// WithPolling overrides how often and how many times query results are polled.
func (q *InsightsQuerier) WithPolling(interval time.Duration, maxPolls int) *InsightsQuerier {
	q.pollInterval = interval
	q.maxPolls = maxPolls
	return q
}

func countQuery(pattern string) string {
	return fmt.Sprintf("fields @timestamp, @message | filter @message like /%s/ | stats count() as count", pattern)
}

// CountMatches runs a Logs Insights count over [start, end].
func (q *InsightsQuerier) CountMatches(
	ctx context.Context,
	region, logGroup, pattern string,
	start, end time.Time,
) (int64, error) {
	client := q.client(region)

	callCtx, cancel := q.timeout.bound(ctx)
	started, err := client.StartQuery(callCtx, &cloudwatchlogs.StartQueryInput{
		LogGroupName: awssdk.String(logGroup),
		StartTime:    awssdk.Int64(start.Unix()),
		EndTime:      awssdk.Int64(end.Unix()),
		QueryString:  awssdk.String(countQuery(pattern)),
	})
	cancel()
	if err != nil {
		return 0, fmt.Errorf("failed to start query on %s: %w", logGroup, err)
	}
	queryID := awssdk.ToString(started.QueryId)

	ticker := time.NewTicker(q.pollInterval)
	defer ticker.Stop()

	for poll := 0; poll < q.maxPolls; poll++ {
		callCtx, cancel := q.timeout.bound(ctx)
		res, err := client.GetQueryResults(callCtx, &cloudwatchlogs.GetQueryResultsInput{QueryId: started.QueryId})
		cancel()
		if err != nil {
			return 0, fmt.Errorf("failed to get results of query %s: %w", queryID, err)
		}

		switch res.Status {
		case types.QueryStatusComplete:
			return parseCount(res.Results)
		case types.QueryStatusFailed, types.QueryStatusCancelled, types.QueryStatusTimeout:
			return 0, fmt.Errorf("query %s on %s ended with status %s", queryID, logGroup, res.Status)
		}

		select {
		case <-ctx.Done():
			q.stop(ctx, client, started.QueryId)
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}

	q.stop(ctx, client, started.QueryId)
	return 0, fmt.Errorf("query %s on %s did not complete after %d polls", queryID, logGroup, q.maxPolls)
}

func (q *InsightsQuerier) stop(ctx context.Context, client LogsAPI, queryID *string) {
	callCtx, cancel := q.timeout.bound(context.WithoutCancel(ctx))
	defer cancel()
	if _, err := client.StopQuery(callCtx, &cloudwatchlogs.StopQueryInput{QueryId: queryID}); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("query_id", awssdk.ToString(queryID)).Msg("failed to stop query")
	}
}

func parseCount(rows [][]types.ResultField) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for _, field := range rows[0] {
		if awssdk.ToString(field.Field) != "count" {
			continue
		}
		n, err := strconv.ParseInt(awssdk.ToString(field.Value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse count %q: %w", awssdk.ToString(field.Value), err)
		}
		return n, nil
	}
	return 0, nil
}
