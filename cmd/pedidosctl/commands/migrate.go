package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema and procedures",
		Long: `Apply every embedded migration in order. Migrations are idempotent,
so running this against an up-to-date database is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			applied, err := c.backend.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.printJSON(cmd.OutOrStdout(), map[string]any{"applied": applied})
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}
