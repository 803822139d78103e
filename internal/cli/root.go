package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigDir string
}

// NewRootCommand creates the root command for the device controller.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "devicectl",
		Short: "Guarded state machine controller",
		Long: `Runs a thermostat and an access panel as guarded state machines.

Sensor ticks, keypad input and lockout timers are serialized through each
device's inbox; transitions, rejections and notices are journaled to SQLite
and served over a read-only HTTP API.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config", "configs", "directory holding config.yml")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}
