package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	s, err := LoadSettings("")
	require.NoError(t, err)

	assert.Equal(t, []string{"us-east-1"}, s.Regions)
	assert.Equal(t, "1000", s.Budget.String())
	assert.Equal(t, []int{50, 75, 90}, s.AlertThresholds)
	assert.Equal(t, 100, s.AutoStopThreshold)
	assert.Equal(t, 24, s.LookbackHours)
	assert.Equal(t, "10", s.SpikeThreshold.String())
	assert.Equal(t, 5, s.SpikeWindowMinutes)
	assert.Equal(t, 168, s.BaselineHours)
	assert.Equal(t, 20*time.Second, s.CallTimeout)
	assert.Equal(t, DefaultS3Key, s.RuleSource.S3Key)
	assert.False(t, s.DryRun)
}

func TestLoadSettings_Environment(t *testing.T) {
	t.Setenv("REGIONS", `["eu-west-1", "us-west-2"]`)
	t.Setenv("TOTAL_BUDGET", "250.50")
	t.Setenv("ALERT_THRESHOLDS", "60,80")
	t.Setenv("AUTO_STOP_THRESHOLD", "95")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "cost-guardian")
	t.Setenv("EXCLUDE_FUNCTIONS", "billing-export, cost-guardian")
	t.Setenv("CONFIG_SSM_PARAMETER", "/guardian/rules")

	s, err := LoadSettings("")
	require.NoError(t, err)

	assert.Equal(t, []string{"eu-west-1", "us-west-2"}, s.Regions)
	assert.Equal(t, "250.5", s.Budget.String())
	assert.Equal(t, []int{60, 80}, s.AlertThresholds)
	assert.Equal(t, 95, s.AutoStopThreshold)
	assert.True(t, s.DryRun)
	assert.Equal(t, []string{"cost-guardian", "billing-export"}, s.Excluded())
	assert.Equal(t, "/guardian/rules", s.RuleSource.SSMParameter)
}

func TestLoadSettings_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guardian.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
regions: [ap-southeast-2]
total_budget: 42.10
alert_thresholds: [25, 50]
sns_topic_arn: arn:aws:sns:ap-southeast-2:123456789012:alerts
`), 0o600))

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ap-southeast-2"}, s.Regions)
	assert.Equal(t, "42.1", s.Budget.String())
	assert.Equal(t, []int{25, 50}, s.AlertThresholds)
	assert.Equal(t, "arn:aws:sns:ap-southeast-2:123456789012:alerts", s.SNSTopicARN)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "malformed regions",
			env:  map[string]string{"REGIONS": `["us-east-1"`},
			want: "REGIONS",
		},
		{
			name: "negative budget",
			env:  map[string]string{"TOTAL_BUDGET": "-1"},
			want: "TOTAL_BUDGET",
		},
		{
			name: "non numeric threshold",
			env:  map[string]string{"ALERT_THRESHOLDS": "50,high"},
			want: "ALERT_THRESHOLDS",
		},
		{
			name: "negative alert threshold",
			env:  map[string]string{"ALERT_THRESHOLDS": "-5,50"},
			want: "ALERT_THRESHOLDS",
		},
		{
			name: "empty alert thresholds",
			env:  map[string]string{"ALERT_THRESHOLDS": "[]"},
			want: "at least one threshold is required",
		},
		{
			name: "zero spike threshold",
			env:  map[string]string{"LAMBDA_SPIKE_THRESHOLD": "0"},
			want: "LAMBDA_SPIKE_THRESHOLD",
		},
		{
			name: "negative spike threshold",
			env:  map[string]string{"LAMBDA_SPIKE_THRESHOLD": "-2.5"},
			want: "LAMBDA_SPIKE_THRESHOLD",
		},
		{
			name: "half open period",
			env:  map[string]string{"BUDGET_PERIOD_START": "2026-10-01"},
			want: "BUDGET_PERIOD_END",
		},
		{
			name: "zero auto stop",
			env:  map[string]string{"AUTO_STOP_THRESHOLD": "0"},
			want: "AUTO_STOP_THRESHOLD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadSettings("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadSettings_AlertThresholdsOrdered(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []int
	}{
		{name: "unsorted", raw: "90,50,75", want: []int{50, 75, 90}},
		{name: "duplicates", raw: "[75, 50, 75]", want: []int{50, 75}},
		{name: "zero allowed", raw: "0,100", want: []int{0, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ALERT_THRESHOLDS", tt.raw)
			s, err := LoadSettings("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.AlertThresholds)
		})
	}
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{name: "nil", raw: nil, want: nil},
		{name: "empty string", raw: "  ", want: nil},
		{name: "json", raw: `["a","b"]`, want: []string{"a", "b"}},
		{name: "json numbers", raw: "[50, 75.5]", want: []string{"50", "75.5"}},
		{name: "comma list", raw: "a, b,,c", want: []string{"a", "b", "c"}},
		{name: "yaml sequence", raw: []any{"a", 1}, want: []string{"a", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := stringList(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
