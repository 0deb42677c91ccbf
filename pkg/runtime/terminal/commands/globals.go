package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/de-tools/cost-guardian/pkg/models/domain"
	"github.com/de-tools/cost-guardian/pkg/runtime/app"
	"github.com/de-tools/cost-guardian/pkg/services/config"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Reporter renders command results.
type Reporter interface {
	Status(status domain.BudgetStatus, verbose bool) error
	Evaluation(result *domain.EvaluationResult) error
	Outcome(outcome domain.RemediationOutcome) error
	Profiles(profiles []domain.ConfigProfile) error
}

// Globals carries the persistent flags shared by every command. Flag values
// override settings only when set on the command line.
type Globals struct {
	ConfigFile     string
	EnvFiles       []string
	Profile        string
	Regions        []string
	Budget         string
	LookbackHours  int
	SpikeThreshold string
	SpikeWindow    int
	LogLevel       string
	Output         string

	Factory  app.Factory
	Reporter Reporter
	Out      io.Writer
	LogOut   io.Writer
}

// Settings loads env files and settings, then applies flag overrides.
func (g *Globals) Settings(cmd *cobra.Command) (*config.Settings, error) {
	if err := config.LoadDotEnv(g.EnvFiles...); err != nil {
		return nil, err
	}

	settings, err := config.LoadSettings(g.ConfigFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("profile") {
		settings.Profile = g.Profile
	}
	if flags.Changed("regions") {
		if len(g.Regions) == 0 {
			return nil, fmt.Errorf("--regions must name at least one region")
		}
		settings.Regions = g.Regions
	}
	if flags.Changed("budget") {
		budget, err := decimal.NewFromString(g.Budget)
		if err != nil || budget.IsNegative() {
			return nil, fmt.Errorf("invalid --budget %q", g.Budget)
		}
		settings.Budget = budget
	}
	if flags.Changed("lambda-lookback") {
		settings.LookbackHours = g.LookbackHours
	}
	if flags.Changed("spike-threshold") {
		threshold, err := decimal.NewFromString(g.SpikeThreshold)
		if err != nil || !threshold.IsPositive() {
			return nil, fmt.Errorf("invalid --spike-threshold %q", g.SpikeThreshold)
		}
		settings.SpikeThreshold = threshold
	}
	if flags.Changed("spike-window") {
		settings.SpikeWindowMinutes = g.SpikeWindow
	}
	if flags.Changed("log-level") {
		settings.LogLevel = g.LogLevel
	}
	return settings, nil
}

// Context returns the command context carrying the root logger.
func (g *Globals) Context(cmd *cobra.Command, settings *config.Settings) (context.Context, error) {
	logOut := g.LogOut
	if logOut == nil {
		logOut = os.Stderr
	}
	logger, err := app.NewLogger(logOut, settings.LogLevel)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.WithContext(ctx), nil
}

// open loads settings and builds the app for a one-shot command.
func (g *Globals) open(cmd *cobra.Command, opts app.Options) (context.Context, *app.App, error) {
	settings, err := g.Settings(cmd)
	if err != nil {
		return nil, nil, err
	}
	ctx, err := g.Context(cmd, settings)
	if err != nil {
		return nil, nil, err
	}
	a, err := g.Factory(ctx, settings, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize guardian: %w", err)
	}
	return ctx, a, nil
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Globals) println(format string, args ...any) {
	fmt.Fprintf(g.out(), format+"\n", args...)
}

func regionList(regions []string) string {
	return strings.Join(regions, ", ")
}
