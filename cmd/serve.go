package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"paymoctl/toolserver"
)

const serveVersion = "1.0.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the stdio tool server for LLM assistants",
	Long: `Run a Model Context Protocol server over stdin/stdout.

The server exposes the CLI's operations as tools: listing projects, tasks,
entries, and invoices, creating entries, submitting YAML timesheets, and
exporting CSV/Excel files. Submissions through the tool server are
auto-confirmed; use the dry_run argument to validate first.

Diagnostics are written to stderr so the stdio protocol stream stays clean.`,
	Example: `
  # Run the tool server (stdio transport)
  paymoctl serve
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, client, err := loadClient()
		if err != nil {
			return err
		}

		server := toolserver.NewServer(client, cfg, serveVersion, os.Stderr)
		return server.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
