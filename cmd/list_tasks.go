package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listTasksProjectID int64

var listTasksCmd = &cobra.Command{
	Use:   "list-tasks",
	Short: "List the tasks of a Paymo project",
	Example: `
  # List tasks of project 12345
  paymoctl list-tasks --project-id 12345
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		tasks, err := client.ListTasks(ctx, listTasksProjectID)
		if err != nil {
			return err
		}

		writer := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "ID\tName\tBillable")
		for _, task := range tasks {
			fmt.Fprintf(writer, "%d\t%s\t%t\n", task.ID, task.Name, task.Billable)
		}
		if err := writer.Flush(); err != nil {
			return err
		}

		fmt.Printf("%d tasks\n", len(tasks))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listTasksCmd)

	listTasksCmd.Flags().Int64Var(&listTasksProjectID, "project-id", 0, "Paymo project id")

	_ = listTasksCmd.MarkFlagRequired("project-id")
}
