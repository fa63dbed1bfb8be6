package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var deleteYes bool

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete <entry-id> [entry-id...]",
	Short: "Delete time entries from Paymo",
	Long: `Destructive remote cleanup command.

Deletes the given time entries from the Paymo account. Before deletion, an
interactive security prompt requires typing exactly "Y" unless --yes is set.
Deletion cannot be undone.`,
	Example: `
  # Delete one entry (requires interactive confirmation)
  paymoctl delete 123456

  # Delete several entries without prompting
  paymoctl delete 123456 123457 --yes
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entryIDs, err := parseEntryIDs(args)
		if err != nil {
			return err
		}

		_, client, err := loadClient()
		if err != nil {
			return err
		}

		if !deleteYes {
			confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, entryIDs)
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("delete aborted: confirmation was not 'Y'")
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		deleted := 0
		for _, entryID := range entryIDs {
			if err := client.DeleteEntry(ctx, entryID); err != nil {
				fmt.Printf("Failed to delete entry %d: %v\n", entryID, err)
				continue
			}
			fmt.Printf("Deleted entry %d\n", entryID)
			deleted++
		}

		if deleted < len(entryIDs) {
			return fmt.Errorf("deleted %d of %d entries", deleted, len(entryIDs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "Skip the confirmation prompt")
}

func parseEntryIDs(args []string) ([]int64, error) {
	out := make([]int64, 0, len(args))
	for _, arg := range args {
		entryID, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || entryID <= 0 {
			return nil, fmt.Errorf("invalid entry id %q", arg)
		}
		out = append(out, entryID)
	}
	return out, nil
}

func confirmDeletePrompt(input io.Reader, output io.Writer, entryIDs []int64) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	labels := make([]string, 0, len(entryIDs))
	for _, entryID := range entryIDs {
		labels = append(labels, strconv.FormatInt(entryID, 10))
	}
	if _, err := fmt.Fprintf(output, "Delete %d entry/entries (%s)? Type Y to confirm: ", len(entryIDs), strings.Join(labels, ", ")); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}
