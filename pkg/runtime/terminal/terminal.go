package terminal

import (
	"fmt"
	"io"
	"os"

	"github.com/de-tools/cost-guardian/pkg/runtime/app"
	"github.com/de-tools/cost-guardian/pkg/runtime/terminal/commands"
	"github.com/de-tools/cost-guardian/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

const (
	OutputText = "text"
	OutputJSON = "json"
)

// CLI represents the command-line interface
type CLI struct {
	globals *commands.Globals
	rootCmd *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Factory app.Factory
	Output  io.Writer
	LogOut  io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	globals := newGlobals(opts)
	cli := &CLI{globals: globals}
	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

// Command exposes the root command for embedding and tests.
func (cli *CLI) Command() *cobra.Command {
	return cli.rootCmd
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cost-guardian",
		Short:         "Account budget protection: project spend, alert and stop resources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	BindGlobals(cmd, cli.globals)

	cmd.AddCommand(commands.NewStatusCmd(cli.globals))
	cmd.AddCommand(commands.NewTestCmd(cli.globals))
	cmd.AddCommand(commands.NewStopCmd(cli.globals))
	cmd.AddCommand(commands.NewRulesCmd(cli.globals))
	cmd.AddCommand(commands.NewServeCmd(cli.globals))
	cmd.AddCommand(commands.NewProfilesCmd(cli.globals))

	return cmd
}

// NewServerCmd returns a standalone serve command with the persistent flags
// bound, for the web binary.
func NewServerCmd(opts Options) *cobra.Command {
	globals := newGlobals(opts)
	cmd := commands.NewServeCmd(globals)
	cmd.Use = "web"
	cmd.SilenceUsage = true
	BindGlobals(cmd, globals)
	return cmd
}

func newGlobals(opts Options) *commands.Globals {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOut == nil {
		opts.LogOut = os.Stderr
	}
	if opts.Factory == nil {
		opts.Factory = app.Build
	}
	return &commands.Globals{
		Factory: opts.Factory,
		Out:     opts.Output,
		LogOut:  opts.LogOut,
	}
}

// BindGlobals registers the persistent flags on cmd and selects the
// reporter once they are parsed.
func BindGlobals(cmd *cobra.Command, g *commands.Globals) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.ConfigFile, "config", "c", "", "Path to a settings file (yaml, json or toml)")
	flags.StringSliceVar(&g.EnvFiles, "env-file", nil, "Env files to load before reading settings (default .env)")
	flags.StringVar(&g.Profile, "profile", "", "AWS profile to use")
	flags.StringSliceVar(&g.Regions, "regions", nil, "Comma-separated list of AWS regions")
	flags.StringVar(&g.Budget, "budget", "", "Total budget in USD")
	flags.IntVar(&g.LookbackHours, "lambda-lookback", 24, "Hours to look back for function usage metrics")
	flags.StringVar(&g.SpikeThreshold, "spike-threshold", "10", "Alert when a function rate is this many times its baseline")
	flags.IntVar(&g.SpikeWindow, "spike-window", 5, "Minutes of recent invocations checked for spikes")
	flags.StringVar(&g.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVarP(&g.Output, "output", "o", OutputText, "Output format (text or json)")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		switch g.Output {
		case OutputText:
			g.Reporter = export.NewReporter(g.Out)
		case OutputJSON:
			g.Reporter = NewReporter(g.Out)
		default:
			return fmt.Errorf("unsupported output format %q", g.Output)
		}
		return nil
	}
}
