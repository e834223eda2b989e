package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/sigos/internal/wire"
)

// HelpTextCmd returns the help-text command.
func HelpTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help-text",
		Short: "Print the telnet command vocabulary",
		Long:  "Print every command the daemon accepts, in dispatch order, as the help command would.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			wire.CommandAdapterWithOutput(cmd.OutOrStdout()).Help()
		},
	}
}
