package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"paymoctl/paymo"
)

var (
	listInvoicesFilteredStatus   string
	listInvoicesFilteredLastWeek bool
)

var listInvoicesFilteredCmd = &cobra.Command{
	Use:   "list-invoices-filtered",
	Short: "List invoices filtered by status or recency",
	Long: `List invoices filtered by status, or restricted to the outstanding ones
from the last week.

With --last-week, only invoices sent or viewed in the last seven days that
are still unpaid are shown; --status is ignored in that mode.`,
	Example: `
  # Only sent invoices
  paymoctl list-invoices-filtered --status sent

  # Outstanding invoices from the last seven days
  paymoctl list-invoices-filtered --last-week
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		var invoices []paymo.Invoice
		if listInvoicesFilteredLastWeek {
			invoices, err = client.OutstandingInvoicesLastWeek(ctx, time.Now())
		} else {
			invoices, err = client.ListInvoices(ctx, 0, listInvoicesFilteredStatus)
		}
		if err != nil {
			return err
		}
		return printInvoiceTable(invoices)
	},
}

func init() {
	rootCmd.AddCommand(listInvoicesFilteredCmd)

	listInvoicesFilteredCmd.Flags().StringVar(&listInvoicesFilteredStatus, "status", "", "Invoice status filter (e.g. draft, sent, viewed, paid)")
	listInvoicesFilteredCmd.Flags().BoolVar(&listInvoicesFilteredLastWeek, "last-week", false, "Only unpaid invoices sent or viewed in the last seven days")
}
