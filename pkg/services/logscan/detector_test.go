package logscan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLogs struct {
	mock.Mock
}

func (m *mockLogs) CountMatches(ctx context.Context, region, logGroup, pattern string, start, end time.Time) (int64, error) {
	args := m.Called(ctx, region, logGroup, pattern, start, end)
	return args.Get(0).(int64), args.Error(1)
}

var fixedNow = time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRulesFromPatterns(t *testing.T) {
	rules := RulesFromPatterns("/aws/lambda/api", dec("0.01"), dec("1"), domain.ActionNotifySNS,
		domain.RemediationParams{TopicARN: "arn:topic"}, 0)

	require.Len(t, rules, 8)
	want := map[string]string{
		"log-lambda_timeout":         "0.01",
		"log-lambda_memory_exceeded": "0.01",
		"log-retry_exhausted":        "0.03",
		"log-throttling":             "0.005",
		"log-cold_start":             "0.002",
		"log-dynamodb_throttle":      "0.005",
		"log-s3_slow_request":        "0.003",
		"log-connection_timeout":     "0.008",
	}
	for _, r := range rules {
		assert.True(t, dec(want[r.ID]).Equal(r.CostPerOccurrence), r.ID)
		assert.Equal(t, DefaultLookbackMinutes, r.LookbackMinutes)
		assert.NoError(t, r.Validate(), r.ID)
	}
}

func TestDetector_Evaluate(t *testing.T) {
	rule := Rule{
		ID:                "log-retry_exhausted",
		Region:            "us-east-1",
		LogGroup:          "/aws/lambda/api",
		Pattern:           `Retry limit exceeded|Max retries reached`,
		LookbackMinutes:   5,
		CostPerOccurrence: dec("0.03"),
		Threshold:         dec("1.50"),
		Action:            domain.ActionNotifySNS,
		Params:            domain.RemediationParams{TopicARN: "arn:topic"},
	}

	tests := []struct {
		name       string
		count      int64
		err        error
		wantCost   string
		wantBreach bool
		wantErr    bool
	}{
		{name: "below threshold", count: 10, wantCost: "0.3"},
		{name: "equal does not breach", count: 50, wantCost: "1.5"},
		{name: "breach", count: 51, wantCost: "1.53", wantBreach: true},
		{name: "query failure counts as zero", err: errors.New("timeout"), wantCost: "0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := new(mockLogs)
			logs.On("CountMatches", mock.Anything, "us-east-1", "/aws/lambda/api", rule.Pattern,
				fixedNow.Add(-5*time.Minute), fixedNow).Return(tt.count, tt.err)

			d := NewDetector(logs).WithClock(func() time.Time { return fixedNow })
			proj, err := d.Evaluate(context.Background(), rule)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.True(t, dec(tt.wantCost).Equal(proj.ProjectedCost), "cost %s", proj.ProjectedCost)
			assert.Equal(t, tt.wantBreach, proj.Breach)
		})
	}
}

func TestRule_Validate(t *testing.T) {
	valid := Rule{
		ID:                "r",
		LogGroup:          "/g",
		Pattern:           "x",
		LookbackMinutes:   5,
		CostPerOccurrence: dec("0.1"),
		Threshold:         dec("1"),
		Action:            domain.ActionNotifySNS,
		Params:            domain.RemediationParams{TopicARN: "arn"},
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.Pattern = "(["
	assert.Error(t, bad.Validate())

	bad = valid
	bad.Action = "explode"
	assert.ErrorIs(t, bad.Validate(), domain.ErrUnknownAction)

	bad = valid
	bad.Params = domain.RemediationParams{}
	assert.Error(t, bad.Validate())
}
