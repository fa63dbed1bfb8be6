package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	createTaskProjectID   int64
	createTaskName        string
	createTaskNonBillable bool
)

var createTaskCmd = &cobra.Command{
	Use:   "create-task",
	Short: "Create a task in a Paymo project",
	Long: `Create a new task in an existing project.

Tasks are billable unless --non-billable is set.`,
	Example: `
  # Create a billable task
  paymoctl create-task --project-id 12345 --name "Legal Research"

  # Create a non-billable task
  paymoctl create-task --project-id 12345 --name "Internal" --non-billable
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, err := loadClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		task, err := client.CreateTask(ctx, createTaskProjectID, createTaskName, !createTaskNonBillable)
		if err != nil {
			return err
		}

		fmt.Printf("Created task: %s (ID: %d)\n", task.Name, task.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createTaskCmd)

	createTaskCmd.Flags().Int64Var(&createTaskProjectID, "project-id", 0, "Paymo project id")
	createTaskCmd.Flags().StringVar(&createTaskName, "name", "", "Task name")
	createTaskCmd.Flags().BoolVar(&createTaskNonBillable, "non-billable", false, "Create the task as non-billable")

	_ = createTaskCmd.MarkFlagRequired("project-id")
	_ = createTaskCmd.MarkFlagRequired("name")
}
