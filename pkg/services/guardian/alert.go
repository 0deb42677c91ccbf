package guardian

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// MaxSubjectLength is the longest subject SNS accepts.
const MaxSubjectLength = 100

const alertTemplate = `AWS Cost Guardian Alert

{{.Account}}

Status: {{.StatusLine}}
Budget: ${{.Status.Budget}}
Actual Spend: ${{money .Status.ActualSpend}}
Projected Total: ${{money .Status.ProjectedTotal}}
Budget Used: {{.Status.BudgetPercent.StringFixed 1}}%
{{- if not .Status.BillingAvailable}}
(actual spend unavailable, projection assumes zero)
{{- end}}

Running Resources:
- EC2 Instances: {{count .Status.Resources "compute-instance"}}
- RDS Instances: {{count .Status.Resources "managed-database"}}
- Lambda Functions: {{count .Status.Resources "serverless-function"}}
- ECS Services: {{count .Status.Resources "container-service"}}
- App Runner Services: {{count .Status.Resources "platform-service"}}

Hourly Cost: ${{money .Status.HourlyCost}}
Hours Until Month End: {{.Status.RemainingHours}}

Thresholds Breached: {{join .Status.ThresholdsBreached}}%
{{- if .Status.Spikes}}

Invocation Spikes:
{{- range .Status.Spikes}}
- {{.ResourceID}} ({{.Region}}): {{.Ratio.StringFixed 1}}x baseline, ~${{money .ProjectedDailyCost}}/day
{{- end}}
{{- end}}
{{- if .Outcome}}

Remediation Executed:
- EC2 Stopped: {{stopped .Outcome "compute-instance"}}
- RDS Stopped: {{stopped .Outcome "managed-database"}}
- Lambda Throttled: {{stopped .Outcome "serverless-function"}}
- App Runner Paused: {{stopped .Outcome "platform-service"}}
- ECS Scaled Down: {{stopped .Outcome "container-service"}}
{{- with failed .Outcome}}
- Failed: {{.}}
{{- end}}
{{- end}}
`

var alertTmpl = template.Must(template.New("alert").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"count": func(s domain.ResourceSet, kind string) int { return s.Count(domain.ResourceKind(kind)) },
	"join":  joinInts,
	"stopped": func(o *domain.RemediationOutcome, kind string) int {
		n := 0
		for _, item := range o.Items {
			if string(item.Kind) == kind && item.Status.Changed() {
				n++
			}
		}
		return n
	},
	"failed": func(o *domain.RemediationOutcome) int { return len(o.Failed()) },
}).Parse(alertTemplate))

type alertView struct {
	Account    string
	StatusLine string
	Status     domain.BudgetStatus
	Outcome    *domain.RemediationOutcome
}

// FormatAlert renders the subject and body of a budget alert. Outcome is nil
// unless a stop was executed.
func FormatAlert(
	account domain.AccountInfo,
	status domain.BudgetStatus,
	outcome *domain.RemediationOutcome,
	dryRun bool,
) (string, string) {
	var buf bytes.Buffer
	view := alertView{
		Account:    account.Header(),
		StatusLine: statusLine(status, dryRun),
		Status:     status,
		Outcome:    outcome,
	}
	if err := alertTmpl.Execute(&buf, view); err != nil {
		fmt.Fprintf(&buf, "failed to render alert: %v", err)
	}
	return alertSubject(status, dryRun), buf.String()
}

func alertSubject(status domain.BudgetStatus, dryRun bool) string {
	prefix := ""
	if dryRun {
		prefix = "[DRY RUN] "
	}

	var subject string
	switch {
	case status.ActualExceeded:
		subject = fmt.Sprintf("%sBUDGET EXCEEDED: $%s spent > $%s budget",
			prefix, status.ActualSpend.StringFixed(2), status.Budget)
	case status.Action == domain.ActionSpikeAlert:
		subject = fmt.Sprintf("%sLambda Spike Alert: %d function(s) above baseline", prefix, len(status.Spikes))
	default:
		subject = fmt.Sprintf("%sBudget Alert: %s%% of $%s",
			prefix, status.BudgetPercent.StringFixed(0), status.Budget)
	}
	return truncate(subject, MaxSubjectLength)
}

func statusLine(status domain.BudgetStatus, dryRun bool) string {
	switch {
	case dryRun:
		return "DRY RUN - Actions that WOULD be taken (no changes made)"
	case status.ActualExceeded:
		return "ACTUAL SPEND EXCEEDED - Immediate remediation triggered"
	default:
		return strings.ToUpper(string(status.Action))
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
