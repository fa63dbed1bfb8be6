package timesheet

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"paymoctl/config"
	"paymoctl/exporter"
	"paymoctl/paymo"
)

// Pacing between per-entry fallback calls; the remote rate limiter is shared
// across all operations of the account.
const fallbackDelay = 2 * time.Second

// Sleeper lets tests run submission backoff without real delays.
type Sleeper func(time.Duration)

// Resolution is the project/task pair a matter resolved to.
type Resolution struct {
	ProjectID int64
	TaskID    int64
}

type SubmitOptions struct {
	DryRun      bool
	AutoConfirm bool
}

// Processor orchestrates loading, previewing, and submitting one timesheet.
type Processor struct {
	Client  paymo.Client
	Config  *config.Config
	Sleep   Sleeper
	Out     io.Writer
	Confirm func(prompt string) (bool, error)
}

func NewProcessor(client paymo.Client, cfg *config.Config) *Processor {
	return &Processor{
		Client:  client,
		Config:  cfg,
		Sleep:   time.Sleep,
		Out:     os.Stdout,
		Confirm: confirmFromStdin,
	}
}

// Resolve maps a matter name to a project/task pair. Config mappings win;
// unmapped matters fall back to a case-insensitive substring search over
// active remote projects. Ambiguous matches are an error listing every
// candidate rather than a silent first pick.
func (p *Processor) Resolve(ctx context.Context, matter string) (Resolution, error) {
	if mapping, ok := p.Config.Mapping(matter); ok {
		return Resolution{ProjectID: mapping.ProjectID, TaskID: mapping.TaskID}, nil
	}

	projects, err := p.Client.ListProjects(ctx, true)
	if err != nil {
		return Resolution{}, fmt.Errorf("list projects: %w", err)
	}

	needle := strings.ToLower(strings.TrimSpace(matter))
	matches := make([]paymo.Project, 0, 1)
	for _, project := range projects {
		if strings.Contains(strings.ToLower(project.Name), needle) {
			matches = append(matches, project)
		}
	}

	if len(matches) == 0 {
		return Resolution{}, fmt.Errorf("no project matching %q; fix the matter name or add a projects mapping to config", matter)
	}
	if len(matches) > 1 {
		names := make([]string, 0, len(matches))
		for _, match := range matches {
			names = append(names, fmt.Sprintf("%s (id %d)", match.Name, match.ID))
		}
		return Resolution{}, fmt.Errorf(
			"matter %q is ambiguous, matches: %s; add a projects mapping to config to pin one",
			matter,
			strings.Join(names, ", "),
		)
	}

	project := matches[0]
	tasks, err := p.Client.ListTasks(ctx, project.ID)
	if err != nil {
		return Resolution{}, fmt.Errorf("list tasks for project %d: %w", project.ID, err)
	}
	if len(tasks) == 0 {
		return Resolution{}, fmt.Errorf("project %q has no tasks", project.Name)
	}

	fmt.Fprintf(p.Out, "Using project: %s (ID: %d)\n", project.Name, project.ID)
	fmt.Fprintf(p.Out, "Using task: %s (ID: %d)\n", tasks[0].Name, tasks[0].ID)

	return Resolution{ProjectID: project.ID, TaskID: tasks[0].ID}, nil
}

// Preview prints the entries table and the hours/billing totals.
func (p *Processor) Preview(sheet *Sheet) error {
	loc, err := p.Config.Location()
	if err != nil {
		return err
	}

	matter := sheet.Matter
	if matter == "" {
		matter = "Unknown"
	}
	fmt.Fprintf(p.Out, "Timesheet preview: %s\n", matter)

	writer := tabwriter.NewWriter(p.Out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tTime\tDuration\tHours\tDescription")

	totalHours := 0.0
	for _, entry := range sheet.Entries {
		durationHours, err := EntryDuration(entry, loc)
		if err != nil {
			return err
		}
		totalHours += durationHours

		timeRange := "-"
		if entry.hasRange() {
			timeRange = entry.StartTime + "-" + entry.EndTime
		}

		description := exporter.Truncate(entry.Description, 50)

		hours := int(durationHours)
		minutes := int((durationHours - float64(hours)) * 60)
		fmt.Fprintf(
			writer,
			"%s\t%s\t%d:%02d\t%.2f\t%s\n",
			entry.Date,
			timeRange,
			hours,
			minutes,
			durationHours,
			description,
		)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush preview table: %w", err)
	}

	if sheet.Rate > 0 {
		fmt.Fprintf(p.Out, "Total: %.2f hours ($%.2f at $%.2f/hr)\n", totalHours, totalHours*sheet.Rate, sheet.Rate)
	} else {
		fmt.Fprintf(p.Out, "Total: %.2f hours\n", totalHours)
	}
	return nil
}

// Submit resolves the sheet's matter, previews, confirms, and creates the
// entries. It tries one batched call first and falls back to paced per-entry
// creation on any batch failure; a 429 during fallback is retried once after
// the provider's Retry-After. Returns the entries the provider acknowledged.
func (p *Processor) Submit(ctx context.Context, sheet *Sheet, opts SubmitOptions) ([]paymo.Entry, error) {
	if strings.TrimSpace(sheet.Matter) == "" {
		return nil, validationErrorf("must specify a 'matter' field")
	}

	loc, err := p.Config.Location()
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(p.Out, "Resolving project for matter: %s\n", sheet.Matter)
	resolution, err := p.Resolve(ctx, sheet.Matter)
	if err != nil {
		return nil, err
	}

	// Validate every entry before anything is sent; one bad entry fails the
	// whole file.
	apiEntries := make([]paymo.NewEntry, 0, len(sheet.Entries))
	for _, entry := range sheet.Entries {
		apiEntry, err := BuildAPIEntry(entry, resolution.TaskID, loc)
		if err != nil {
			return nil, err
		}
		apiEntries = append(apiEntries, apiEntry)
	}

	if err := p.Preview(sheet); err != nil {
		return nil, err
	}

	if opts.DryRun {
		fmt.Fprintln(p.Out, "Dry run - no entries created")
		return nil, nil
	}

	if !opts.AutoConfirm {
		confirmed, err := p.Confirm(fmt.Sprintf("Create these %d entries in Paymo?", len(apiEntries)))
		if err != nil {
			return nil, err
		}
		if !confirmed {
			fmt.Fprintln(p.Out, "Cancelled")
			return nil, nil
		}
	}

	fmt.Fprintf(p.Out, "Creating %d entries in batch...\n", len(apiEntries))
	created, err := p.Client.CreateEntriesBatch(ctx, apiEntries)
	if err == nil {
		fmt.Fprintf(p.Out, "Created %d entries in one API call\n", len(created))
		return created, nil
	}

	fmt.Fprintf(p.Out, "Batch creation failed, trying individual entries...\n")
	fmt.Fprintf(p.Out, "Error: %v\n", err)
	return p.submitIndividually(ctx, sheet.Entries, apiEntries)
}

func (p *Processor) submitIndividually(ctx context.Context, entries []Entry, apiEntries []paymo.NewEntry) ([]paymo.Entry, error) {
	created := make([]paymo.Entry, 0, len(apiEntries))

	for i, apiEntry := range apiEntries {
		if i > 0 {
			p.Sleep(fallbackDelay)
		}

		fmt.Fprintf(p.Out, "[%d/%d] Creating entry for %s... ", i+1, len(apiEntries), entries[i].Date)
		result, err := p.Client.CreateEntry(ctx, apiEntry)
		if err == nil {
			fmt.Fprintln(p.Out, "ok")
			created = append(created, result)
			continue
		}

		var rateErr *paymo.RateLimitError
		if !errors.As(err, &rateErr) {
			fmt.Fprintf(p.Out, "failed: %v\n", err)
			continue
		}

		// One bounded retry after the provider-supplied wait; a second
		// failure skips this entry without affecting its siblings.
		fmt.Fprintf(p.Out, "rate limited, waiting %s...\n", rateErr.RetryAfter)
		p.Sleep(rateErr.RetryAfter)

		result, err = p.Client.CreateEntry(ctx, apiEntry)
		if err != nil {
			fmt.Fprintf(p.Out, "[%d/%d] retry failed: %v\n", i+1, len(apiEntries), err)
			continue
		}
		fmt.Fprintf(p.Out, "[%d/%d] ok after retry\n", i+1, len(apiEntries))
		created = append(created, result)
	}

	fmt.Fprintf(p.Out, "Created %d of %d entries\n", len(created), len(apiEntries))
	return created, nil
}

func confirmFromStdin(prompt string) (bool, error) {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && strings.TrimSpace(line) == "" {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
