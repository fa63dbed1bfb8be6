package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"paymoctl/exporter"
)

var (
	exportStart     string
	exportEnd       string
	exportProjectID int64
	exportOutput    string
	exportFormat    string
)

var exportCmd = &cobra.Command{
	Use:   "export-timesheet",
	Short: "Export time entries in a date range to CSV/Excel",
	Long: `Export time entries from the Paymo account to a CSV or Excel file.

Entries are sorted chronologically and enriched with task names. The output
format can be selected explicitly via --format or inferred from the --output
extension.`,
	Example: `
  # Export January to CSV
  paymoctl export-timesheet --start 2024-01-01 --end 2024-01-31 --output january.csv

  # Export one project to Excel
  paymoctl export-timesheet --start 2024-01-01 --end 2024-01-31 --project-id 12345 --output january.xlsx

  # Force Excel format independent of extension
  paymoctl export-timesheet --start 2024-01-01 --end 2024-01-31 --format excel --output january.out
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}

		output := exportOutput
		if strings.TrimSpace(output) == "" {
			output = fmt.Sprintf("timesheet_%s_%s.csv", exportStart, exportEnd)
		}
		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = exporter.DetectFormat(output)
		}
		writer, err := exporter.WriterForFormat(format)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		entries, err := exporter.RangeEntries(ctx, client, exportStart, exportEnd, exportProjectID)
		if err != nil {
			return err
		}
		rows := exporter.BuildRows(ctx, client, entries, nil, os.Stderr)

		if err := writer.Write(output, rows); err != nil {
			return err
		}

		fmt.Printf("Export completed. Rows: %d, Format: %s, File: %s\n", len(rows), format, output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportStart, "start", "", "Start date (inclusive), format YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "End date (inclusive), format YYYY-MM-DD")
	exportCmd.Flags().Int64Var(&exportProjectID, "project-id", 0, "Restrict to one project")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: timesheet_<start>_<end>.csv)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")

	_ = exportCmd.MarkFlagRequired("start")
	_ = exportCmd.MarkFlagRequired("end")
}
