package logscan

import (
	"fmt"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// Pattern is a log signature of a cost-impacting event. Multiplier scales
// the base cost of one occurrence.
type Pattern struct {
	Name        string
	Expr        string
	Description string
	Multiplier  decimal.Decimal
}

// Patterns is the built-in catalog, in rule generation order.
var Patterns = []Pattern{
	{
		Name:        "lambda_timeout",
		Expr:        `Task timed out after`,
		Description: "Lambda timeout, the full invocation is wasted",
		Multiplier:  decimal.RequireFromString("1.0"),
	},
	{
		Name:        "lambda_memory_exceeded",
		Expr:        `Runtime exited with error.*memory`,
		Description: "Lambda out of memory",
		Multiplier:  decimal.RequireFromString("1.0"),
	},
	{
		Name:        "retry_exhausted",
		Expr:        `Retry limit exceeded|Max retries reached`,
		Description: "Retries exhausted after repeated failures",
		Multiplier:  decimal.RequireFromString("3.0"),
	},
	{
		Name:        "throttling",
		Expr:        `ThrottlingException|Rate exceeded|Too Many Requests`,
		Description: "Throttled requests",
		Multiplier:  decimal.RequireFromString("0.5"),
	},
	{
		Name:        "cold_start",
		Expr:        `INIT_START|Cold start`,
		Description: "Cold start overhead",
		Multiplier:  decimal.RequireFromString("0.2"),
	},
	{
		Name:        "dynamodb_throttle",
		Expr:        `ProvisionedThroughputExceededException`,
		Description: "DynamoDB capacity exceeded",
		Multiplier:  decimal.RequireFromString("0.5"),
	},
	{
		Name:        "s3_slow_request",
		Expr:        `SlowDown|ServiceUnavailable.*S3`,
		Description: "S3 request rate throttling",
		Multiplier:  decimal.RequireFromString("0.3"),
	},
	{
		Name:        "connection_timeout",
		Expr:        `Connection timed out|connect ETIMEDOUT`,
		Description: "Network connection timeouts",
		Multiplier:  decimal.RequireFromString("0.8"),
	},
}

// RulesFromPatterns builds one rule per catalog pattern against logGroup.
// Rule ids are "log-<pattern name>".
func RulesFromPatterns(
	logGroup string,
	baseCost decimal.Decimal,
	threshold decimal.Decimal,
	action domain.ActionID,
	params domain.RemediationParams,
	lookbackMinutes int,
) []Rule {
	if lookbackMinutes <= 0 {
		lookbackMinutes = DefaultLookbackMinutes
	}
	rules := make([]Rule, 0, len(Patterns))
	for _, p := range Patterns {
		rules = append(rules, Rule{
			ID:                fmt.Sprintf("log-%s", p.Name),
			LogGroup:          logGroup,
			Pattern:           p.Expr,
			LookbackMinutes:   lookbackMinutes,
			CostPerOccurrence: baseCost.Mul(p.Multiplier),
			Threshold:         threshold,
			Action:            action,
			Params:            params,
		})
	}
	return rules
}
