package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sg-pedidos/pedidos/jobs"
)

func (c *cli) jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show queue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			inspector, err := c.backend.Queues()
			if err != nil {
				return err
			}
			queues, err := jobs.Stats(inspector)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.printJSON(cmd.OutOrStdout(), queues)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "QUEUE\tPENDING\tACTIVE\tRETRY\tARCHIVED\tPROCESSED\tFAILED")
			for _, q := range queues {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n", q.Queue, q.Pending, q.Active, q.Retry, q.Archived, q.Processed, q.Failed)
			}
			return w.Flush()
		},
	}

	var payload jobs.ReportsWarmupPayload
	warmup := &cobra.Command{
		Use:   "warmup",
		Short: "Enqueue a reports cache warmup",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.backend.EnqueueWarmup(cmd.Context(), payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s %s\n", jobs.TaskReportsWarmup, id)
			return nil
		},
	}
	warmup.Flags().IntVar(&payload.Weeks, "weeks", 0, "Weeks for the weekly report (0 uses the default)")
	warmup.Flags().IntVar(&payload.Months, "months", 0, "Months for the monthly report (0 uses the default)")
	warmup.Flags().IntVar(&payload.Periods, "periods", 0, "Periods for the profit report (0 uses the default)")

	cmd.AddCommand(stats, warmup)
	return cmd
}
