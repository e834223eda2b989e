package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/sigos/internal/wire"
)

// ServeCmd returns the serve command.
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the telnet command server",
		Long: `Run the telnet command server until interrupted.

Each connection is a requester identified by its IP address. Active
requests live in memory only and are gone after a restart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
				wire.Config().Listen = listen
			}

			ctx, stop := signal.NotifyContext(NewContext(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := wire.TelnetServer().ListenAndServe(ctx)
			wire.Logger().Printf("telnet server stopped")
			return err
		},
	}
	cmd.Flags().StringP("listen", "l", "", "Listen address (overrides config)")
	return cmd
}
