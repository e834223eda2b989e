package cli

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/sigos/internal/wire"
)

// errCommandFailed is returned when the dispatched line was not a success.
// The handler output has already been printed.
var errCommandFailed = errors.New("command did not succeed")

// ExecCmd returns the exec command.
func ExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <words...>",
		Short: "Dispatch one command line in-process",
		Long: `Dispatch one command line against a fresh in-process registry and print
the handler output. Useful to check a configuration without a daemon.

Examples:
  sigos exec help
  sigos exec --status state lumen request on`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := NewContext()
			sourceFlag, _ := cmd.Flags().GetString("source")
			showStatus, _ := cmd.Flags().GetBool("status")

			src, err := netip.ParseAddr(sourceFlag)
			if err != nil {
				return fmt.Errorf("invalid --source: %w", err)
			}

			adapter := wire.CommandAdapterWithOutput(cmd.OutOrStdout())
			resp, err := adapter.Exec(ctx, strings.Join(args, " "), src)
			if err != nil {
				return err
			}

			if showStatus {
				fmt.Fprintln(cmd.OutOrStdout())
				if _, err := adapter.Status(ctx); err != nil {
					return err
				}
			}

			if !resp.Success {
				return errCommandFailed
			}
			return nil
		},
	}
	cmd.Flags().String("source", "127.0.0.1", "Requester address to act as")
	cmd.Flags().Bool("status", false, "Print the lumen state afterwards")
	return cmd
}
