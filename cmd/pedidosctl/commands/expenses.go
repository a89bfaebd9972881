package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sg-pedidos/pedidos/internal/expenses"
)

func (c *cli) expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Inspect the expense ledger",
	}

	var (
		reference string
		productID string
		orderID   string
		limit     int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries, newest first",
		Long: `List ledger entries, newest first.

Examples:
  pedidosctl expenses list --reference stock_add
  pedidosctl expenses list --order 9b2f6a52-4f43-4c61-9b4e-1f9a3b2c7d10 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := expenses.ListFilter{Reference: reference, Limit: limit}
			var err error
			if filter.ProductID, err = parseOptionalUUID("product", productID); err != nil {
				return err
			}
			if filter.OrderID, err = parseOptionalUUID("order", orderID); err != nil {
				return err
			}
			svc, err := c.backend.Expenses(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := svc.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return c.printJSON(cmd.OutOrStdout(), entries)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CREATED\tREFERENCE\tAMOUNT\tQTY\tDESCRIPTION")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					e.CreatedAt.Format("2006-01-02 15:04"), e.Reference, e.Amount.StringFixed(2), e.Meta.Qty, e.Description)
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&reference, "reference", "", "Filter by reference tag (stock_add, order_consumption)")
	list.Flags().StringVar(&productID, "product", "", "Filter by product id")
	list.Flags().StringVar(&orderID, "order", "", "Filter by order id")
	list.Flags().IntVar(&limit, "limit", 50, "Maximum entries")

	cmd.AddCommand(list)
	return cmd
}

func parseOptionalUUID(name, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &id, nil
}
