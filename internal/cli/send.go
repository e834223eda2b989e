package cli

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/sigos/internal/adapters/telnet"
	"github.com/example/sigos/internal/wire"
)

// SendCmd returns the send command.
func SendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <words...>",
		Short: "Send one command line to a running daemon",
		Long: `Send one command line to a running sigos daemon over telnet and print
the reply.

Examples:
  sigos send state lumen print
  sigos send --addr 192.168.4.1:2323 state lumen request on`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			if addr == "" {
				addr = dialAddr(wire.Config().Listen)
			}

			client, err := telnet.Dial(addr, timeout)
			if err != nil {
				return err
			}
			defer client.Close()

			resp := client.Control(strings.Join(args, " "))
			if resp.Error != nil {
				return fmt.Errorf("failed to send command: %w", resp.Error)
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.Text())
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Daemon address (default: the configured listen address)")
	cmd.Flags().Duration("timeout", 5*time.Second, "Connect and reply timeout")
	return cmd
}

// dialAddr turns a listen address such as ":2323" into one that can be dialled.
func dialAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
