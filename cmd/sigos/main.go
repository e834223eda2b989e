package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/sigos/internal/cli"
	"github.com/example/sigos/internal/version"
	"github.com/example/sigos/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "sigos",
		Short:   "SigOS - semaphore command and control",
		Version: version.String(),
		Long: `SigOS runs the command processor of a model-railway semaphore.
Clients connect over telnet and request illumination states; the
highest-priority active request decides what the lamp shows.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.LoadConfig,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")

	// Add subcommands
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.ExecCmd())
	rootCmd.AddCommand(cli.SendCmd())
	rootCmd.AddCommand(cli.LogCmd())
	rootCmd.AddCommand(cli.HelpTextCmd())
	rootCmd.AddCommand(cli.ConfigCmd())

	err := rootCmd.Execute()
	wire.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
