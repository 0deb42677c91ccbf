package commands

import (
	"fmt"

	"github.com/de-tools/cost-guardian/pkg/services/config"
	"github.com/spf13/cobra"
)

type ProfilesCmd struct {
	globals *Globals
	path    string
}

func NewProfilesCmd(globals *Globals) *cobra.Command {
	pc := &ProfilesCmd{globals: globals}
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the AWS profiles available to the guardian",
		Args:  cobra.NoArgs,
		RunE:  pc.run,
	}
	cmd.Flags().StringVar(&pc.path, "aws-config", config.DefaultConfigPath(), "Path to the AWS shared config file")
	return cmd
}

func (pc *ProfilesCmd) run(cmd *cobra.Command, _ []string) error {
	registry, err := config.NewRegistry(pc.path)
	if err != nil {
		return fmt.Errorf("failed to read profiles: %w", err)
	}
	profiles, err := registry.GetProfiles(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	return pc.globals.Reporter.Profiles(profiles)
}
