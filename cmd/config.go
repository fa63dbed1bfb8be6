package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage paymoctl configuration file values.",
	Long: `Create and display the paymoctl configuration file.

The configuration stores the API credentials and matter mappings:
- api_key
- base_url
- timezone
- projects.<matter>.project_id / task_id`,
	Example: `
  # Create default config in $HOME/.paymoctl.yaml
  paymoctl config create

  # Show active config and source file
  paymoctl config show
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
