package cmd

import (
	"github.com/spf13/cobra"

	"paymoctl/config"
	"paymoctl/timesheet"
)

var previewCmd = &cobra.Command{
	Use:   "preview <timesheet.yaml>",
	Short: "Preview a YAML timesheet without touching the API",
	Long: `Parse a YAML timesheet, print the entries table, and total the hours.

No API calls are made, so matter resolution is skipped.`,
	Example: `
  # Preview a timesheet
  paymoctl preview january.yaml
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		sheet, err := timesheet.Load(args[0])
		if err != nil {
			return err
		}

		processor := timesheet.NewProcessor(nil, cfg)
		return processor.Preview(sheet)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
}
