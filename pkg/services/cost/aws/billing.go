package aws

import (
	"context"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/de-tools/cost-guardian/pkg/services/cost"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type CostExplorerAPI interface {
	GetCostAndUsage(
		ctx context.Context,
		params *costexplorer.GetCostAndUsageInput,
		optFns ...func(*costexplorer.Options),
	) (*costexplorer.GetCostAndUsageOutput, error)
}

type billing struct {
	client  CostExplorerAPI
	timeout timeout
}

var _ cost.BillingSource = (*billing)(nil)

func NewBillingSource(client CostExplorerAPI, callTimeout time.Duration) cost.BillingSource {
	return &billing{client: client, timeout: timeout(callTimeout)}
}

// GetSpend sums monthly unblended cost from start through the day of end.
func (b *billing) GetSpend(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	// Cost Explorer treats End as exclusive
	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &types.DateInterval{
			Start: awssdk.String(start.UTC().Format(dateLayout)),
			End:   awssdk.String(end.UTC().AddDate(0, 0, 1).Format(dateLayout)),
		},
		Granularity: types.GranularityMonthly,
		Metrics:     []string{"UnblendedCost"},
	}

	total := decimal.Zero
	for {
		callCtx, cancel := b.timeout.bound(ctx)
		result, err := b.client.GetCostAndUsage(callCtx, input)
		cancel()
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get cost and usage: %w", err)
		}

		for _, byTime := range result.ResultsByTime {
			metric, ok := byTime.Total["UnblendedCost"]
			if !ok || metric.Amount == nil {
				continue
			}
			amount, err := decimal.NewFromString(*metric.Amount)
			if err != nil {
				return decimal.Zero, fmt.Errorf("failed to parse amount %q: %w", *metric.Amount, err)
			}
			total = total.Add(amount)
		}

		if result.NextPageToken == nil {
			return total, nil
		}
		input.NextPageToken = result.NextPageToken
	}
}
