package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/shopspring/decimal"
)

type TableConfig struct {
	NameWidth        int
	ValueWidth       int
	UnitWidth        int
	DescriptionWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:        32,
		ValueWidth:       16,
		UnitWidth:        12,
		DescriptionWidth: 48,
	}
}

// Reporter renders guardian results as text tables.
type Reporter struct {
	writer    io.Writer
	config    TableConfig
	templates *template.Template
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	r := &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
	r.templates = template.Must(template.New("reports").Funcs(r.funcs()).Parse(templates))
	return r
}

func (c *Reporter) funcs() template.FuncMap {
	return template.FuncMap{
		"formatRow": func(name string, value any, unit string, desc string) string {
			return fmt.Sprintf("| %-*s | %-*v | %-*s | %-*s |",
				c.config.NameWidth, clip(name, c.config.NameWidth),
				c.config.ValueWidth, value,
				c.config.UnitWidth, unit,
				c.config.DescriptionWidth, clip(desc, c.config.DescriptionWidth))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.UnitWidth+2),
				strings.Repeat("-", c.config.DescriptionWidth+2))
		},
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"rate":  func(d decimal.Decimal) string { return d.StringFixed(4) },
		"pct":   func(d decimal.Decimal) string { return d.StringFixed(1) },
		"upper": func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
		"kinds": func() []domain.ResourceKind { return domain.ResourceKinds },
		"ints": func(values []int) string {
			parts := make([]string, len(values))
			for i, v := range values {
				parts[i] = fmt.Sprintf("%d%%", v)
			}
			return strings.Join(parts, ", ")
		},
		"detail":     describe,
		"ruleResult": ruleResult,
		"statusView": func(s *domain.BudgetStatus, verbose bool) statusView {
			return statusView{Status: *s, Verbose: verbose}
		},
	}
}

const templates = `
{{define "status"}}
Budget Status ({{.Status.PeriodStart.Format "2006-01-02"}} to {{.Status.PeriodEnd.Format "2006-01-02"}})

Action: {{upper .Status.Action}}
Budget: ${{money .Status.Budget}}
Actual Spend: ${{money .Status.ActualSpend}}{{if not .Status.BillingAvailable}} (billing unavailable){{end}}
Hourly Cost: ${{rate .Status.HourlyCost}}
Projected Total: ${{money .Status.ProjectedTotal}} ({{pct .Status.BudgetPercent}}% of budget)
Hours Remaining: {{.Status.RemainingHours}}
{{- if .Status.ThresholdsBreached}}
Thresholds Breached: {{ints .Status.ThresholdsBreached}}{{end}}

{{separator}}
{{formatRow "Kind" "Running" "" ""}}
{{separator}}
{{range kinds}}{{formatRow (print .) (len (index $.Status.Resources .)) "" ""}}
{{end}}{{separator}}
{{- if .Status.Spikes}}

=== Invocation Spikes ===
{{separator}}
{{formatRow "Function" "Ratio" "Region" "Current / Baseline per min"}}
{{separator}}
{{range .Status.Spikes}}{{formatRow .ResourceID (printf "%sx" (pct .Ratio)) .Region (printf "%s / %s" (rate .CurrentRate) (rate .BaselineRate))}}
{{end}}{{separator}}
{{- end}}
{{- if .Verbose}}

=== Running Resources ===
{{separator}}
{{formatRow "ID" "Type" "Region" "Detail"}}
{{separator}}
{{range kinds}}{{range index $.Status.Resources .}}{{formatRow .ID .Type .Region (detail .)}}
{{end}}{{end}}{{separator}}
{{- end}}
{{end}}

{{define "evaluation"}}
Evaluation {{.RunID}} ({{.Mode}}{{if .DryRun}}, dry run{{end}})
{{- if .Budget}}
{{template "status" (statusView .Budget false)}}
{{- end}}
{{- if .Rules}}

=== Rules ===
{{separator}}
{{formatRow "Rule" "Projected" "Threshold" "Result"}}
{{separator}}
{{range .Rules}}{{formatRow .RuleID (money .Projection.ProjectedCost) (money .Projection.Threshold) (ruleResult .)}}
{{end}}{{separator}}
{{- end}}
{{- if .Remediation}}
{{template "outcome" .Remediation}}
{{- end}}
{{- if .Notification}}

=== Alert {{if .Notification.Sent}}(sent {{.Notification.MessageID}}){{else}}(not sent){{end}} ===
Subject: {{.Notification.Subject}}
{{.Notification.Body}}
{{- if .Notification.Error}}
Delivery failed: {{.Notification.Error}}{{end}}
{{- end}}
{{end}}

{{define "outcome"}}
=== Remediation: {{.Action}}{{if .DryRun}} (dry run){{end}} ===
{{separator}}
{{formatRow "Resource" "Status" "Region" "Error"}}
{{separator}}
{{range .Items}}{{formatRow .ID .Status .Region .Error}}
{{end}}{{separator}}
{{- if .Error}}
Error: {{.Error}}{{end}}
{{end}}

{{define "profiles"}}
{{separator}}
{{formatRow "Profile" "Type" "" "Region"}}
{{separator}}
{{range .}}{{formatRow .Name .Type "" .Region}}
{{end}}{{separator}}
{{end}}
`

type statusView struct {
	Status  domain.BudgetStatus
	Verbose bool
}

func (c *Reporter) Status(status domain.BudgetStatus, verbose bool) error {
	return c.execute("status", statusView{Status: status, Verbose: verbose})
}

func (c *Reporter) Evaluation(result *domain.EvaluationResult) error {
	return c.execute("evaluation", result)
}

func (c *Reporter) Outcome(outcome domain.RemediationOutcome) error {
	return c.execute("outcome", outcome)
}

func (c *Reporter) Profiles(profiles []domain.ConfigProfile) error {
	return c.execute("profiles", profiles)
}

func (c *Reporter) execute(name string, data any) error {
	if err := c.templates.ExecuteTemplate(c.writer, name, data); err != nil {
		return fmt.Errorf("failed to render %s report: %w", name, err)
	}
	return nil
}

func ruleResult(re domain.RuleEvaluation) string {
	switch {
	case re.Error != "":
		return "error: " + re.Error
	case re.Remediation != nil && re.Remediation.DryRun:
		return "breach, would " + string(re.Remediation.Action)
	case re.Remediation != nil:
		return "breach, " + string(re.Remediation.Action)
	case re.Projection.Breach:
		return "breach"
	}
	return "ok"
}

func describe(r domain.ResourceDescriptor) string {
	a := r.Attributes
	switch {
	case a.Instance != nil:
		return "launched " + a.Instance.LaunchTime.Format("2006-01-02 15:04")
	case a.Database != nil:
		return a.Database.Engine
	case a.Function != nil:
		return fmt.Sprintf("%d MB", a.Function.MemoryMB)
	case a.Container != nil:
		return fmt.Sprintf("%d tasks, %d CPU units, %d MB", a.Container.RunningCount, a.Container.CPUUnits, a.Container.MemoryMB)
	case a.Platform != nil:
		return fmt.Sprintf("%d CPU units, %d MB", a.Platform.CPUUnits, a.Platform.MemoryMB)
	}
	return r.Name
}

func clip(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "~"
}
