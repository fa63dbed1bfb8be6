package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"paymoctl/timesheet"
)

var (
	submitDryRun bool
	submitYes    bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <timesheet.yaml>",
	Short: "Submit a YAML timesheet to Paymo",
	Long: `Parse a YAML timesheet, resolve its matter to a project/task pair, and
create the entries.

Matter resolution prefers the projects mapping from the config file; unmapped
matters fall back to a substring search over active projects. The command
tries one batched create first; if the batch fails it falls back to paced
per-entry creation, retrying once on rate limits.

Every entry is validated before anything is sent. One bad entry fails the
whole file.`,
	Example: `
  # Preview and confirm interactively
  paymoctl submit january.yaml

  # Validate and preview only, create nothing
  paymoctl submit january.yaml --dry-run

  # Skip the confirmation prompt
  paymoctl submit january.yaml --yes
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := loadClient()
		if err != nil {
			return err
		}

		sheet, err := timesheet.Load(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		processor := timesheet.NewProcessor(client, cfg)
		created, err := processor.Submit(ctx, sheet, timesheet.SubmitOptions{
			DryRun:      submitDryRun,
			AutoConfirm: submitYes,
		})
		if err != nil {
			return err
		}

		if !submitDryRun && len(created) < len(sheet.Entries) && len(created) > 0 {
			fmt.Printf("Warning: %d of %d entries were not created\n", len(sheet.Entries)-len(created), len(sheet.Entries))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "Validate and preview without creating entries")
	submitCmd.Flags().BoolVar(&submitYes, "yes", false, "Skip the confirmation prompt")
}
