package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Settings are the process-wide guardian settings, read from the
// environment and an optional config file.
type Settings struct {
	Profile            string
	Regions            []string
	Budget             decimal.Decimal
	AlertThresholds    []int
	AutoStopThreshold  int
	SNSTopicARN        string
	LookbackHours      int
	SpikeThreshold     decimal.Decimal
	SpikeWindowMinutes int
	BaselineHours      int
	PeriodStart        string
	PeriodEnd          string
	SelfFunction       string
	ExcludeFunctions   []string
	DryRun             bool
	Schedule           string
	HistoryDB          string
	ServerHost         string
	ServerPort         int
	LogLevel           string
	CallTimeout        time.Duration
	Concurrency        int

	RuleSource RuleSource
}

// Excluded returns the functions discovery and throttling must skip,
// including the guardian's own function.
func (s *Settings) Excluded() []string {
	out := make([]string, 0, len(s.ExcludeFunctions)+1)
	if s.SelfFunction != "" {
		out = append(out, s.SelfFunction)
	}
	for _, fn := range s.ExcludeFunctions {
		if fn != "" && fn != s.SelfFunction {
			out = append(out, fn)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("aws_profile", "")
	v.SetDefault("regions", `["us-east-1"]`)
	v.SetDefault("total_budget", "1000")
	v.SetDefault("alert_thresholds", "[50, 75, 90]")
	v.SetDefault("auto_stop_threshold", 100)
	v.SetDefault("sns_topic_arn", "")
	v.SetDefault("lambda_lookback_hours", 24)
	v.SetDefault("lambda_spike_threshold", "10")
	v.SetDefault("lambda_spike_window_minutes", 5)
	v.SetDefault("lambda_baseline_hours", 168)
	v.SetDefault("budget_period_start", "")
	v.SetDefault("budget_period_end", "")
	v.SetDefault("aws_lambda_function_name", "")
	v.SetDefault("exclude_functions", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("schedule", "*/15 * * * *")
	v.SetDefault("history_db", "cost-guardian.db")
	v.SetDefault("server_host", "localhost")
	v.SetDefault("server_port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("call_timeout", "20s")
	v.SetDefault("concurrency", 8)
	v.SetDefault("cost_guardian_config", "")
	v.SetDefault("config_ssm_parameter", "")
	v.SetDefault("config_s3_bucket", "")
	v.SetDefault("config_s3_key", DefaultS3Key)
	v.SetDefault("rules_file", "")
}

// LoadSettings reads settings from the environment, overlaid on configFile
// when one is given.
func LoadSettings(configFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Settings, error) {
	var errs []error
	field := func(name string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", strings.ToUpper(name), err))
		}
	}

	s := &Settings{
		Profile:            v.GetString("aws_profile"),
		AutoStopThreshold:  v.GetInt("auto_stop_threshold"),
		SNSTopicARN:        v.GetString("sns_topic_arn"),
		LookbackHours:      v.GetInt("lambda_lookback_hours"),
		SpikeWindowMinutes: v.GetInt("lambda_spike_window_minutes"),
		BaselineHours:      v.GetInt("lambda_baseline_hours"),
		PeriodStart:        v.GetString("budget_period_start"),
		PeriodEnd:          v.GetString("budget_period_end"),
		SelfFunction:       v.GetString("aws_lambda_function_name"),
		DryRun:             v.GetBool("dry_run"),
		Schedule:           v.GetString("schedule"),
		HistoryDB:          v.GetString("history_db"),
		ServerHost:         v.GetString("server_host"),
		ServerPort:         v.GetInt("server_port"),
		LogLevel:           v.GetString("log_level"),
		Concurrency:        v.GetInt("concurrency"),
		RuleSource: RuleSource{
			Inline:       v.GetString("cost_guardian_config"),
			SSMParameter: v.GetString("config_ssm_parameter"),
			S3Bucket:     v.GetString("config_s3_bucket"),
			S3Key:        v.GetString("config_s3_key"),
			File:         v.GetString("rules_file"),
		},
	}

	var err error
	s.Regions, err = stringList(v.Get("regions"))
	field("regions", err)
	if err == nil && len(s.Regions) == 0 {
		field("regions", errors.New("at least one region is required"))
	}
	s.ExcludeFunctions, err = stringList(v.Get("exclude_functions"))
	field("exclude_functions", err)
	s.AlertThresholds, err = alertThresholds(v.Get("alert_thresholds"))
	field("alert_thresholds", err)

	s.Budget, err = decimal.NewFromString(v.GetString("total_budget"))
	field("total_budget", err)
	if err == nil && s.Budget.IsNegative() {
		field("total_budget", fmt.Errorf("must be >= 0, got %s", s.Budget))
	}
	s.SpikeThreshold, err = decimal.NewFromString(v.GetString("lambda_spike_threshold"))
	field("lambda_spike_threshold", err)
	if err == nil && !s.SpikeThreshold.IsPositive() {
		field("lambda_spike_threshold", fmt.Errorf("must be > 0, got %s", s.SpikeThreshold))
	}

	s.CallTimeout, err = time.ParseDuration(v.GetString("call_timeout"))
	field("call_timeout", err)

	if s.AutoStopThreshold <= 0 {
		field("auto_stop_threshold", fmt.Errorf("must be > 0, got %d", s.AutoStopThreshold))
	}
	if (s.PeriodStart == "") != (s.PeriodEnd == "") {
		field("budget_period_start", errors.New("BUDGET_PERIOD_START and BUDGET_PERIOD_END must be set together"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// alertThresholds parses the budget alert percentages and returns them
// ascending without duplicates. An explicitly empty list is rejected.
func alertThresholds(raw any) ([]int, error) {
	values, err := intList(raw)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, errors.New("at least one threshold is required")
	}
	for _, pct := range values {
		if pct < 0 {
			return nil, fmt.Errorf("must be >= 0, got %d", pct)
		}
	}
	slices.Sort(values)
	return slices.Compact(values), nil
}

// stringList accepts a YAML/JSON sequence, a JSON array string, or a comma
// separated string.
func stringList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		if strings.HasPrefix(v, "[") {
			var items []any
			dec := json.NewDecoder(strings.NewReader(v))
			dec.UseNumber()
			if err := dec.Decode(&items); err != nil {
				return nil, fmt.Errorf("invalid list %q: %w", v, err)
			}
			return stringList(items)
		}
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported list value %v", raw)
}

func intList(raw any) ([]int, error) {
	items, err := stringList(raw)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", item, err)
		}
		out = append(out, n)
	}
	return out, nil
}
