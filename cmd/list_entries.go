package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"paymoctl/exporter"
)

var (
	listEntriesStart     string
	listEntriesEnd       string
	listEntriesProjectID int64
)

var listEntriesCmd = &cobra.Command{
	Use:   "list-entries",
	Short: "List time entries with resolved task names",
	Long: `List time entries from the Paymo account, sorted chronologically and
enriched with task names.

Omit --start and --end to list the full history. Task name lookups are paced
to stay inside the provider rate limit, so large listings take a while.`,
	Example: `
  # List entries for January
  paymoctl list-entries --start 2024-01-01 --end 2024-01-31

  # Restrict to one project
  paymoctl list-entries --start 2024-01-01 --end 2024-01-31 --project-id 12345
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		entries, err := exporter.RangeEntries(ctx, client, listEntriesStart, listEntriesEnd, listEntriesProjectID)
		if err != nil {
			return err
		}
		rows := exporter.BuildRows(ctx, client, entries, nil, os.Stderr)

		writer := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "ID\tDate\tHours\tTask\tBilled\tDescription")
		totalHours := 0.0
		for _, row := range rows {
			date := row.Date
			if date == "" && row.StartTime != "" {
				date = row.StartTime
			}
			description := exporter.Truncate(row.Description, 50)
			billed := "no"
			if row.Billed {
				billed = "yes"
			}
			fmt.Fprintf(writer, "%d\t%s\t%.2f\t%s\t%s\t%s\n", row.EntryID, date, row.DurationHours, row.Task, billed, description)
			totalHours += row.DurationHours
		}
		if err := writer.Flush(); err != nil {
			return err
		}

		rangeLabel := "all time"
		if listEntriesStart != "" || listEntriesEnd != "" {
			rangeLabel = strings.TrimSpace(listEntriesStart + " to " + listEntriesEnd)
		}
		fmt.Printf("%d entries, %.2f hours (%s)\n", len(rows), totalHours, rangeLabel)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listEntriesCmd)

	listEntriesCmd.Flags().StringVar(&listEntriesStart, "start", "", "Start date (inclusive), format YYYY-MM-DD")
	listEntriesCmd.Flags().StringVar(&listEntriesEnd, "end", "", "End date (inclusive), format YYYY-MM-DD")
	listEntriesCmd.Flags().Int64Var(&listEntriesProjectID, "project-id", 0, "Restrict to one project")
}
