package cli

import (
	"fmt"
	"strings"

	"device_controller/internal/scenario"

	"github.com/spf13/cobra"
)

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(_ *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario <" + strings.Join(scenario.Names(), "|") + ">",
		Short: "Replay a reference scenario on a manual clock",
		Long: `Replay a reference scenario against in-memory sensors and a manual
clock and print the transcript of every step.

Example:
  devicectl scenario thermostat
  devicectl scenario panel`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: scenario.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := scenario.Run(args[0], cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("run scenario: %w", err)
			}
			return nil
		},
	}
	return cmd
}
