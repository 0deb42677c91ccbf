package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/services/logscan"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	defaultStatistic = domain.StatisticSum
	defaultPeriod    = 60
)

// ValidationError describes one invalid field of one rule.
type ValidationError struct {
	Rule   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("rule %q: %s", e.Rule, e.Reason)
	}
	return fmt.Sprintf("rule %q: %s: %s", e.Rule, e.Field, e.Reason)
}

// RuleSet is a validated rule document.
type RuleSet struct {
	Rules    []domain.Rule
	LogRules []logscan.Rule
}

func (rs *RuleSet) Empty() bool {
	return rs == nil || len(rs.Rules)+len(rs.LogRules) == 0
}

// money decodes a currency amount from either a YAML number or a string
// without going through float64.
type money struct {
	decimal.Decimal
}

func (m *money) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid amount %q", node.Line, node.Value)
	}
	m.Decimal = d
	return nil
}

func (m *money) ptr() *decimal.Decimal {
	if m == nil {
		return nil
	}
	d := m.Decimal
	return &d
}

type document struct {
	Rules       []ruleDoc    `yaml:"rules"`
	LogRules    []logRuleDoc `yaml:"log_rules"`
	LogPatterns []patternDoc `yaml:"log_patterns"`
}

type ruleDoc struct {
	ID                 string                   `yaml:"rule_id"`
	Namespace          string                   `yaml:"metric_namespace"`
	MetricName         string                   `yaml:"metric_name"`
	Dimensions         []domain.Dimension       `yaml:"dimensions"`
	LookbackSeconds    int64                    `yaml:"lookback_seconds"`
	ProjectionSeconds  int64                    `yaml:"projection_seconds"`
	UnitCost           *money                   `yaml:"unit_cost"`
	Threshold          *money                   `yaml:"threshold"`
	Action             string                   `yaml:"remediation_action"`
	Params             domain.RemediationParams `yaml:"remediation_params"`
	Statistic          string                   `yaml:"statistic"`
	Period             int32                    `yaml:"period"`
	PricingModel       string                   `yaml:"pricing_model"`
	FallbackHourlyCost *money                   `yaml:"fallback_hourly_cost"`
	InstanceFilter     struct {
		EC2Filters []domain.TagFilter `yaml:"ec2_filters"`
		RDSFilters struct {
			Engines []string `yaml:"engines"`
		} `yaml:"rds_filters"`
	} `yaml:"instance_filter"`
	Region string `yaml:"region"`
}

type logRuleDoc struct {
	ID                string                   `yaml:"rule_id"`
	LogGroup          string                   `yaml:"log_group"`
	Pattern           string                   `yaml:"pattern"`
	LookbackMinutes   int                      `yaml:"lookback_minutes"`
	CostPerOccurrence *money                   `yaml:"cost_per_occurrence"`
	Threshold         *money                   `yaml:"threshold"`
	Action            string                   `yaml:"remediation_action"`
	Params            domain.RemediationParams `yaml:"remediation_params"`
	Region            string                   `yaml:"region"`
}

// patternDoc expands into one log rule per built-in pattern. A rule_prefix
// keeps ids unique when several log groups use the catalog.
type patternDoc struct {
	LogGroup        string                   `yaml:"log_group"`
	BaseCost        *money                   `yaml:"base_cost"`
	Threshold       *money                   `yaml:"threshold"`
	Action          string                   `yaml:"remediation_action"`
	Params          domain.RemediationParams `yaml:"remediation_params"`
	LookbackMinutes int                      `yaml:"lookback_minutes"`
	Region          string                   `yaml:"region"`
	IDPrefix        string                   `yaml:"rule_prefix"`
}

// ParseRules decodes and validates a JSON or YAML rule document. Rules
// without a region are bound to defaultRegion. Any invalid rule rejects the
// whole document; the returned error joins every *ValidationError found.
func ParseRules(data []byte, defaultRegion string) (*RuleSet, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode rule document: %w", err)
	}

	var errs []error
	seen := make(map[string]struct{})
	unique := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			errs = append(errs, &ValidationError{Rule: id, Field: "rule_id", Reason: "duplicate rule id"})
		}
		seen[id] = struct{}{}
	}

	set := &RuleSet{}
	for i, rd := range doc.Rules {
		rule, err := rd.build(i, defaultRegion)
		if err != nil {
			errs = append(errs, err...)
			continue
		}
		unique(rule.ID)
		set.Rules = append(set.Rules, rule)
	}
	for i, ld := range doc.LogRules {
		rule, err := ld.build(i, defaultRegion)
		if err != nil {
			errs = append(errs, err...)
			continue
		}
		unique(rule.ID)
		set.LogRules = append(set.LogRules, rule)
	}
	for i, pd := range doc.LogPatterns {
		rules, err := pd.build(i, defaultRegion)
		if err != nil {
			errs = append(errs, err...)
			continue
		}
		for _, rule := range rules {
			unique(rule.ID)
		}
		set.LogRules = append(set.LogRules, rules...)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return set, nil
}

func ruleName(id string, kind string, i int) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("%s[%d]", kind, i)
}

func (rd ruleDoc) build(i int, defaultRegion string) (domain.Rule, []error) {
	name := ruleName(rd.ID, "rules", i)
	var errs []error
	invalid := func(field, reason string) {
		errs = append(errs, &ValidationError{Rule: name, Field: field, Reason: reason})
	}

	if rd.ID == "" {
		invalid("rule_id", "is required")
	}
	if rd.Namespace == "" {
		invalid("metric_namespace", "is required")
	}
	if rd.MetricName == "" {
		invalid("metric_name", "is required")
	}
	if rd.Threshold == nil {
		invalid("threshold", "is required")
	}
	action, err := domain.ParseActionID(rd.Action)
	if err != nil {
		invalid("remediation_action", err.Error())
	}
	model, err := domain.ParsePricingModel(rd.PricingModel)
	if err != nil {
		invalid("pricing_model", err.Error())
	}
	if len(errs) > 0 {
		return domain.Rule{}, errs
	}

	statistic := domain.Statistic(rd.Statistic)
	if statistic == "" {
		statistic = defaultStatistic
	}
	period := rd.Period
	if period == 0 {
		period = defaultPeriod
	}
	region := rd.Region
	if region == "" {
		region = defaultRegion
	}

	rule := domain.Rule{
		ID:                 rd.ID,
		Namespace:          rd.Namespace,
		MetricName:         rd.MetricName,
		Dimensions:         rd.Dimensions,
		LookbackSeconds:    rd.LookbackSeconds,
		ProjectionSeconds:  rd.ProjectionSeconds,
		PricingModel:       model,
		UnitCost:           rd.UnitCost.ptr(),
		FallbackHourlyCost: rd.FallbackHourlyCost.ptr(),
		Threshold:          rd.Threshold.Decimal,
		Action:             action,
		Params:             rd.Params,
		Statistic:          statistic,
		PeriodSeconds:      period,
		InstanceFilter: domain.InstanceFilter{
			EC2Filters: rd.InstanceFilter.EC2Filters,
			RDSEngines: rd.InstanceFilter.RDSFilters.Engines,
		},
		Region: region,
	}
	if err := rule.Validate(); err != nil {
		return domain.Rule{}, []error{&ValidationError{Rule: name, Reason: err.Error()}}
	}
	return rule, nil
}

func (ld logRuleDoc) build(i int, defaultRegion string) (logscan.Rule, []error) {
	name := ruleName(ld.ID, "log_rules", i)
	var errs []error
	invalid := func(field, reason string) {
		errs = append(errs, &ValidationError{Rule: name, Field: field, Reason: reason})
	}

	if ld.CostPerOccurrence == nil {
		invalid("cost_per_occurrence", "is required")
	}
	if ld.Threshold == nil {
		invalid("threshold", "is required")
	}
	action, err := domain.ParseActionID(ld.Action)
	if err != nil {
		invalid("remediation_action", err.Error())
	}
	if len(errs) > 0 {
		return logscan.Rule{}, errs
	}

	lookback := ld.LookbackMinutes
	if lookback == 0 {
		lookback = logscan.DefaultLookbackMinutes
	}
	region := ld.Region
	if region == "" {
		region = defaultRegion
	}

	rule := logscan.Rule{
		ID:                ld.ID,
		Region:            region,
		LogGroup:          ld.LogGroup,
		Pattern:           ld.Pattern,
		LookbackMinutes:   lookback,
		CostPerOccurrence: ld.CostPerOccurrence.Decimal,
		Threshold:         ld.Threshold.Decimal,
		Action:            action,
		Params:            ld.Params,
	}
	if err := rule.Validate(); err != nil {
		return logscan.Rule{}, []error{&ValidationError{Rule: name, Reason: err.Error()}}
	}
	return rule, nil
}

func (pd patternDoc) build(i int, defaultRegion string) ([]logscan.Rule, []error) {
	name := ruleName(pd.LogGroup, "log_patterns", i)
	var errs []error
	invalid := func(field, reason string) {
		errs = append(errs, &ValidationError{Rule: name, Field: field, Reason: reason})
	}

	if pd.LogGroup == "" {
		invalid("log_group", "is required")
	}
	if pd.BaseCost == nil {
		invalid("base_cost", "is required")
	}
	if pd.Threshold == nil {
		invalid("threshold", "is required")
	}
	action, err := domain.ParseActionID(pd.Action)
	if err != nil {
		invalid("remediation_action", err.Error())
	}
	if len(errs) > 0 {
		return nil, errs
	}

	region := pd.Region
	if region == "" {
		region = defaultRegion
	}
	rules := logscan.RulesFromPatterns(pd.LogGroup, pd.BaseCost.Decimal, pd.Threshold.Decimal, action, pd.Params, pd.LookbackMinutes)
	for j := range rules {
		rules[j].Region = region
		if pd.IDPrefix != "" {
			rules[j].ID = pd.IDPrefix + "-" + rules[j].ID
		}
		if err := rules[j].Validate(); err != nil {
			return nil, []error{&ValidationError{Rule: rules[j].ID, Reason: err.Error()}}
		}
	}
	return rules, nil
}
