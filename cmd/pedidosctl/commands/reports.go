package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sg-pedidos/pedidos/internal/reports"
)

func (c *cli) reportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Print sales and profit reports",
	}

	var weeks, months, periods int

	weekly := &cobra.Command{
		Use:   "weekly",
		Short: "Sales per week",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.backend.Reports(cmd.Context())
			if err != nil {
				return err
			}
			points, err := svc.SalesByWeek(cmd.Context(), weeks)
			if err != nil {
				return err
			}
			return c.printSales(cmd, points)
		},
	}
	weekly.Flags().IntVar(&weeks, "weeks", reports.DefaultWeeks, "Number of weeks")

	monthly := &cobra.Command{
		Use:   "monthly",
		Short: "Sales per month",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.backend.Reports(cmd.Context())
			if err != nil {
				return err
			}
			points, err := svc.SalesByMonth(cmd.Context(), months)
			if err != nil {
				return err
			}
			return c.printSales(cmd, points)
		},
	}
	monthly.Flags().IntVar(&months, "months", reports.DefaultMonths, "Number of months")

	profit := &cobra.Command{
		Use:   "profit",
		Short: "Revenue, expenses and profit per period",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.backend.Reports(cmd.Context())
			if err != nil {
				return err
			}
			points, err := svc.ProfitAndExpenses(cmd.Context(), periods)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.printJSON(cmd.OutOrStdout(), points)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "PERIOD\tREVENUE\tEXPENSES\tPROFIT\t")
			for _, p := range points {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", p.Period, p.Revenue.StringFixed(2), p.Expenses.StringFixed(2), p.Profit.StringFixed(2))
			}
			return w.Flush()
		},
	}
	profit.Flags().IntVar(&periods, "periods", reports.DefaultPeriods, "Number of periods")

	cmd.AddCommand(weekly, monthly, profit)
	return cmd
}

func (c *cli) printSales(cmd *cobra.Command, points []reports.SalesPoint) error {
	if c.jsonOutput {
		return c.printJSON(cmd.OutOrStdout(), points)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "PERIOD\tTOTAL\t")
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\t\n", p.Period, p.Total.StringFixed(2))
	}
	return w.Flush()
}
