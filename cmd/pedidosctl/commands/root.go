// Package commands implements pedidosctl, the operations CLI.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sg-pedidos/pedidos/internal/app"
)

// BackendFactory builds the backend once configuration is loaded.
type BackendFactory func(cfg *app.Config) Backend

type cli struct {
	factory    BackendFactory
	backend    Backend
	jsonOutput bool
}

// NewRootCmd builds the command tree. A nil factory connects to the
// configured Postgres and Redis.
func NewRootCmd(factory BackendFactory) *cobra.Command {
	c := &cli{factory: factory}
	root := &cobra.Command{
		Use:   "pedidosctl",
		Short: "Operations CLI for the pedidos backend",
		Long: `pedidosctl applies the schema, prints reports and ledger entries,
and inspects the background job queues. Configuration is read from the
same environment variables as the API server (PG_DSN, REDIS_ADDR, ...).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig()
			if err != nil {
				return err
			}
			if c.factory == nil {
				c.factory = func(cfg *app.Config) Backend { return newLiveBackend(cfg, app.NewLogger(cfg)) }
			}
			c.backend = c.factory(cfg)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.backend == nil {
				return nil
			}
			return c.backend.Close()
		},
	}
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "Output in JSON format")

	root.AddCommand(
		c.migrateCmd(),
		c.reportsCmd(),
		c.expensesCmd(),
		c.jobsCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd(nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (c *cli) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
