// Package cli provides CLI commands for the sigos application.
package cli

import (
	gocontext "context"

	"github.com/spf13/cobra"

	"github.com/example/sigos/internal/config"
	"github.com/example/sigos/internal/ctxutil"
	"github.com/example/sigos/internal/wire"
)

// cliSession tags log lines written on behalf of a CLI invocation.
const cliSession = "cli"

// LoadConfig reads the --config file and SIGOS_* variables and hands the
// result to wire. It runs before every command via PersistentPreRunE.
func LoadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	wire.Configure(cfg)
	return nil
}

// NewContext creates a context.Background() with the CLI session embedded.
// CLI commands should use this instead of context.Background() directly.
func NewContext() gocontext.Context {
	return ctxutil.WithSessionID(gocontext.Background(), cliSession)
}
