package exporter

import (
	"context"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"paymoctl/internal/timeutil"
	"paymoctl/paymo"
)

const (
	// Pacing between per-task name lookups; the provider rate limiter is
	// shared with every other operation of the account.
	taskLookupDelay = 2 * time.Second
	taskRetryDelay  = 6 * time.Second
)

// Sleeper lets tests run lookup pacing without real delays.
type Sleeper func(time.Duration)

// Row is one rendered export line in the fixed seven-column-plus-id layout.
type Row struct {
	Date          string
	StartTime     string
	EndTime       string
	DurationHours float64
	Task          string
	Description   string
	Billed        bool
	EntryID       int64
}

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// CleanDescription strips HTML tags and decodes entities.
func CleanDescription(value string) string {
	if value == "" {
		return ""
	}
	stripped := htmlTagPattern.ReplaceAllString(value, "")
	return strings.TrimSpace(html.UnescapeString(stripped))
}

// Truncate shortens a string to at most max runes, replacing the tail with an
// ellipsis. Cuts land on rune boundaries so multi-byte text stays valid.
func Truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-3]) + "..."
}

// SortEntries orders entries by start time, falling back to date, then a
// zero-padded id string. The sort is stable and total; entries missing both
// start time and date sort among themselves by id.
func SortEntries(entries []paymo.Entry) []paymo.Entry {
	sorted := append([]paymo.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return entrySortKey(sorted[i]) < entrySortKey(sorted[j])
	})
	return sorted
}

func entrySortKey(entry paymo.Entry) string {
	if entry.StartTime != "" {
		return entry.StartTime
	}
	if entry.Date != "" {
		return entry.Date
	}
	return fmt.Sprintf("%020d", entry.ID)
}

// EntryDurationHours derives an entry's duration from its explicit seconds
// field or, failing that, the start/end difference.
func EntryDurationHours(entry paymo.Entry) float64 {
	if entry.Duration > 0 {
		return float64(entry.Duration) / 3600
	}
	start, err := timeutil.ParseUTC(entry.StartTime)
	if err != nil {
		return 0
	}
	end, err := timeutil.ParseUTC(entry.EndTime)
	if err != nil {
		return 0
	}
	return end.Sub(start).Hours()
}

// BuildRows sorts entries and renders them as export rows, resolving each
// referenced task name through a paced per-task lookup with one retry after
// a 6s backoff on 429. Lookup failures leave the task name empty.
func BuildRows(ctx context.Context, client paymo.Client, entries []paymo.Entry, sleep Sleeper, warnOutput io.Writer) []Row {
	if sleep == nil {
		sleep = time.Sleep
	}
	if warnOutput == nil {
		warnOutput = io.Discard
	}

	sorted := SortEntries(entries)
	taskNames := fetchTaskNames(ctx, client, sorted, sleep, warnOutput)

	rows := make([]Row, 0, len(sorted))
	for _, entry := range sorted {
		rows = append(rows, Row{
			Date:          entry.Date,
			StartTime:     entry.StartTime,
			EndTime:       entry.EndTime,
			DurationHours: EntryDurationHours(entry),
			Task:          taskNames[entry.TaskID],
			Description:   CleanDescription(entry.Description),
			Billed:        entry.Billed,
			EntryID:       entry.ID,
		})
	}
	return rows
}

// fetchTaskNames builds the per-call task-name cache: one lookup per unique
// task id, in ascending order so pacing is deterministic.
func fetchTaskNames(ctx context.Context, client paymo.Client, entries []paymo.Entry, sleep Sleeper, warnOutput io.Writer) map[int64]string {
	unique := make(map[int64]struct{}, len(entries))
	for _, entry := range entries {
		if entry.TaskID > 0 {
			unique[entry.TaskID] = struct{}{}
		}
	}

	taskIDs := make([]int64, 0, len(unique))
	for taskID := range unique {
		taskIDs = append(taskIDs, taskID)
	}
	sort.Slice(taskIDs, func(i, j int) bool { return taskIDs[i] < taskIDs[j] })

	names := make(map[int64]string, len(taskIDs))
	for _, taskID := range taskIDs {
		sleep(taskLookupDelay)

		task, err := client.GetTask(ctx, taskID)
		if err == nil {
			names[taskID] = task.Name
			continue
		}

		if !paymo.IsRateLimit(err) {
			fmt.Fprintf(warnOutput, "Warning: failed to fetch task %d: %v\n", taskID, err)
			names[taskID] = ""
			continue
		}

		fmt.Fprintf(warnOutput, "Rate limit hit, waiting %s...\n", taskRetryDelay)
		sleep(taskRetryDelay)

		task, err = client.GetTask(ctx, taskID)
		if err != nil {
			fmt.Fprintf(warnOutput, "Warning: failed to fetch task %d after retry: %v\n", taskID, err)
			names[taskID] = ""
			continue
		}
		names[taskID] = task.Name
	}
	return names
}

// RangeEntries fetches entries in [start, end], optionally filtered by
// project.
func RangeEntries(ctx context.Context, client paymo.Client, start, end string, projectID int64) ([]paymo.Entry, error) {
	entries, err := client.ListEntries(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if projectID <= 0 {
		return entries, nil
	}

	filtered := make([]paymo.Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.ProjectID == projectID {
			filtered = append(filtered, entry)
		}
	}
	return filtered, nil
}
