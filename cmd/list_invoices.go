package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"paymoctl/paymo"
)

var listInvoicesClientID int64

var listInvoicesCmd = &cobra.Command{
	Use:   "list-invoices",
	Short: "List invoices",
	Long: `List invoices from the Paymo account, optionally restricted to one
client.`,
	Example: `
  # List all invoices
  paymoctl list-invoices

  # Invoices of one client
  paymoctl list-invoices --client-id 555
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		invoices, err := client.ListInvoices(ctx, listInvoicesClientID, "")
		if err != nil {
			return err
		}
		return printInvoiceTable(invoices)
	},
}

func printInvoiceTable(invoices []paymo.Invoice) error {
	writer := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNumber\tClient\tDate\tStatus\tTotal")
	for _, invoice := range invoices {
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s\t%s\t%.2f\n",
			invoice.ID,
			invoice.Number,
			invoice.ClientName,
			invoice.Date,
			invoice.Status,
			invoice.Total,
		)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	fmt.Printf("%d invoices\n", len(invoices))
	return nil
}

func init() {
	rootCmd.AddCommand(listInvoicesCmd)

	listInvoicesCmd.Flags().Int64Var(&listInvoicesClientID, "client-id", 0, "Restrict to one client")
}
