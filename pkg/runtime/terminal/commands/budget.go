package commands

import (
	"errors"
	"fmt"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/runtime/app"
	"github.com/spf13/cobra"
)

// ErrNotConfirmed is returned by stop without --confirm.
var ErrNotConfirmed = errors.New("stop not confirmed")

type StatusCmd struct {
	globals *Globals
	verbose bool
}

func NewStatusCmd(globals *Globals) *cobra.Command {
	sc := &StatusCmd{globals: globals}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check current budget status",
		Args:  cobra.NoArgs,
		RunE:  sc.run,
	}
	cmd.Flags().BoolVarP(&sc.verbose, "verbose", "v", false, "Show resource details")
	return cmd
}

func (sc *StatusCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, a, err := sc.globals.open(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	sc.globals.println("Checking budget across regions: %s", regionList(a.Settings.Regions))
	status, err := a.Budget.CheckBudget(ctx)
	if err != nil {
		return fmt.Errorf("failed to check budget: %w", err)
	}
	return sc.globals.Reporter.Status(status, sc.verbose)
}

type TestCmd struct {
	globals *Globals
}

func NewTestCmd(globals *Globals) *cobra.Command {
	tc := &TestCmd{globals: globals}
	return &cobra.Command{
		Use:   "test",
		Short: "Run a full budget evaluation without side effects",
		Args:  cobra.NoArgs,
		RunE:  tc.run,
	}
}

func (tc *TestCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, a, err := tc.globals.open(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	tc.globals.println("Testing budget guardian (dry run) in: %s", regionList(a.Settings.Regions))
	result, err := a.Evaluators()[domain.ModeBudget].Evaluate(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to evaluate budget: %w", err)
	}
	return tc.globals.Reporter.Evaluation(result)
}

type StopCmd struct {
	globals *Globals
	confirm bool
	dryRun  bool
}

func NewStopCmd(globals *Globals) *cobra.Command {
	sc := &StopCmd{globals: globals}
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop all running resources",
		Args:  cobra.NoArgs,
		RunE:  sc.run,
	}
	cmd.Flags().BoolVar(&sc.confirm, "confirm", false, "Confirm the stop action")
	cmd.Flags().BoolVar(&sc.dryRun, "dry-run", false, "Show what would be stopped")
	return cmd
}

func (sc *StopCmd) run(cmd *cobra.Command, _ []string) error {
	if !sc.confirm {
		sc.globals.println("This will stop ALL compute instances and databases, and throttle ALL functions!")
		sc.globals.println("Use --confirm to proceed.")
		return ErrNotConfirmed
	}

	ctx, a, err := sc.globals.open(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	dryRun := sc.dryRun || a.Settings.DryRun
	sc.globals.println("Discovering resources in: %s", regionList(a.Settings.Regions))
	outcome := a.Budget.StopAll(ctx, dryRun)
	if err := sc.globals.Reporter.Outcome(outcome); err != nil {
		return err
	}
	if failed := outcome.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d resources failed to stop", len(failed))
	}
	return nil
}
