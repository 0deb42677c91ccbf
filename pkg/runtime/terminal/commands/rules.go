package commands

import (
	"fmt"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/runtime/app"
	"github.com/spf13/cobra"
)

func NewRulesCmd(globals *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Evaluate metric and log rules",
	}
	cmd.AddCommand(newRulesEvaluateCmd(globals))
	return cmd
}

type RulesEvaluateCmd struct {
	globals *Globals
	dryRun  bool
}

func newRulesEvaluateCmd(globals *Globals) *cobra.Command {
	rc := &RulesEvaluateCmd{globals: globals}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Project every rule and remediate breaches",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}
	cmd.Flags().BoolVar(&rc.dryRun, "dry-run", false, "Report remediations without applying them")
	return cmd
}

func (rc *RulesEvaluateCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, a, err := rc.globals.open(cmd, app.Options{WithRules: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ev, ok := a.Evaluators()[domain.ModeRules]
	if !ok {
		return fmt.Errorf("rule engine is not configured")
	}
	result, err := ev.Evaluate(ctx, rc.dryRun || a.Settings.DryRun)
	if err != nil {
		return fmt.Errorf("failed to evaluate rules: %w", err)
	}
	return rc.globals.Reporter.Evaluation(result)
}
