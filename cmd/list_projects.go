package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listProjectsIncludeInactive bool

var listProjectsCmd = &cobra.Command{
	Use:   "list-projects",
	Short: "List Paymo projects",
	Long: `List projects from the Paymo account.

By default only active projects are shown.`,
	Example: `
  # List active projects
  paymoctl list-projects

  # Include archived/inactive projects
  paymoctl list-projects --include-inactive
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		projects, err := client.ListProjects(ctx, !listProjectsIncludeInactive)
		if err != nil {
			return err
		}

		writer := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "ID\tName\tClient\tActive")
		for _, project := range projects {
			fmt.Fprintf(writer, "%d\t%s\t%s\t%t\n", project.ID, project.Name, project.ClientName, project.Active)
		}
		if err := writer.Flush(); err != nil {
			return err
		}

		fmt.Printf("%d projects\n", len(projects))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listProjectsCmd)

	listProjectsCmd.Flags().BoolVar(&listProjectsIncludeInactive, "include-inactive", false, "Include archived and inactive projects")
}
