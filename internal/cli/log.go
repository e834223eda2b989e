package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/example/sigos/internal/wire"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the illumination audit log",
	Long:  "View and prune the audit trail of lumen state changes kept in the SQLite database",
}

var logTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Show recent state changes",
	Long:  "Show recent audit entries, oldest first (default: the configured log_limit)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		limit, _ := cmd.Flags().GetInt("limit")

		if err := useDatabaseFlag(cmd); err != nil {
			return err
		}
		if limit <= 0 {
			limit = wire.Config().LogLimit
		}

		_, err := wire.EventAdapterWithOutput(cmd.OutOrStdout()).Tail(ctx, limit)
		return err
	},
}

var logPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old audit entries",
	Long:  "Delete all but the newest N audit entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := NewContext()
		keep, _ := cmd.Flags().GetInt("keep")

		if err := useDatabaseFlag(cmd); err != nil {
			return err
		}

		_, err := wire.EventAdapterWithOutput(cmd.OutOrStdout()).Prune(ctx, keep)
		return err
	},
}

// useDatabaseFlag points wire at --db. The log commands only make sense
// against a database; the in-memory log dies with its daemon.
func useDatabaseFlag(cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		wire.Config().DBPath = path
	}
	if wire.Config().DBPath == "" {
		return errors.New("no audit database configured: set db_path, SIGOS_DB_PATH or --db")
	}
	return nil
}

// LogCmd returns the log command with all subcommands attached.
func LogCmd() *cobra.Command {
	// log tail
	logTailCmd.Flags().IntP("limit", "n", 0, "Number of entries to show")
	logTailCmd.Flags().String("db", "", "Path to the SQLite database")

	// log prune
	logPruneCmd.Flags().Int("keep", 32, "Number of newest entries to keep")
	logPruneCmd.Flags().String("db", "", "Path to the SQLite database")

	logCmd.AddCommand(logTailCmd)
	logCmd.AddCommand(logPruneCmd)

	return logCmd
}
