package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/runtime/app"
	"github.com/de-tools/cost-guardian/pkg/server"
	"github.com/de-tools/cost-guardian/pkg/services/workflow"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type ServeCmd struct {
	globals  *Globals
	dryRun   bool
	runNow   bool
	schedule string
}

func NewServeCmd(globals *Globals) *cobra.Command {
	sc := &ServeCmd{globals: globals}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled evaluations and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  sc.run,
	}
	cmd.Flags().BoolVar(&sc.dryRun, "dry-run", false, "Never apply remediations or send alerts")
	cmd.Flags().BoolVar(&sc.runNow, "run-now", false, "Evaluate once before the first scheduled tick")
	cmd.Flags().StringVar(&sc.schedule, "schedule", "", "Cron schedule overriding SCHEDULE")
	return cmd
}

func (sc *ServeCmd) run(cmd *cobra.Command, _ []string) error {
	settings, err := sc.globals.Settings(cmd)
	if err != nil {
		return err
	}
	if sc.schedule != "" {
		settings.Schedule = sc.schedule
	}
	ctx, err := sc.globals.Context(cmd, settings)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := zerolog.Ctx(ctx)

	a, err := sc.globals.Factory(ctx, settings, app.Options{
		WithRules:   settings.RuleSource.Configured(),
		WithHistory: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize guardian: %w", err)
	}
	defer a.Close()

	evaluators := a.Evaluators()
	modes := make([]string, 0, len(evaluators))
	for mode := range evaluators {
		modes = append(modes, string(mode))
	}
	sort.Strings(modes)

	ctrl := workflow.NewController()
	runners := make([]*workflow.Runner, 0, len(modes))
	for _, mode := range modes {
		runner := workflow.NewRunner(mode, evaluators[domain.EvaluationMode(mode)], workflow.RunnerConfig{
			DryRun: sc.dryRun || settings.DryRun,
		})
		if err := ctrl.Schedule(ctx, settings.Schedule, runner); err != nil {
			return err
		}
		runners = append(runners, runner)
	}

	if sc.runNow {
		for _, runner := range runners {
			runner.Tick(ctx)
		}
	}

	ctrl.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		defer cancel()
		if err := ctrl.Stop(stopCtx); err != nil {
			logger.Warn().Err(err).Msg("scheduled evaluations did not finish")
		}
	}()

	webAPI := server.NewWebAPI(server.Config{
		Addr: net.JoinHostPort(settings.ServerHost, strconv.Itoa(settings.ServerPort)),
		Dependencies: server.Dependencies{
			Logger:     *logger,
			Runners:    runners,
			Evaluators: evaluators,
			History:    a.History,
			Metrics:    a.Metrics.Handler(),
		},
	})

	logger.Info().
		Strs("jobs", modes).
		Strs("regions", settings.Regions).
		Str("budget", settings.Budget.StringFixed(2)).
		Bool("dry_run", sc.dryRun || settings.DryRun).
		Msg("Cost guardian started")

	return webAPI.Start(ctx)
}
