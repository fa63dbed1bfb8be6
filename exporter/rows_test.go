package exporter

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"paymoctl/paymo"
)

type fakeClient struct {
	getTask     func(ctx context.Context, taskID int64) (paymo.Task, error)
	listEntries func(ctx context.Context, start, end string) ([]paymo.Entry, error)
	getInvoice  func(ctx context.Context, invoiceID int64, includeItems bool) (paymo.Invoice, error)
}

func (f *fakeClient) ListProjects(ctx context.Context, activeOnly bool) ([]paymo.Project, error) {
	return nil, errors.New("unexpected ListProjects call")
}

func (f *fakeClient) ListTasks(ctx context.Context, projectID int64) ([]paymo.Task, error) {
	return nil, errors.New("unexpected ListTasks call")
}

func (f *fakeClient) GetTask(ctx context.Context, taskID int64) (paymo.Task, error) {
	if f.getTask == nil {
		return paymo.Task{}, errors.New("unexpected GetTask call")
	}
	return f.getTask(ctx, taskID)
}

func (f *fakeClient) ListEntries(ctx context.Context, start, end string) ([]paymo.Entry, error) {
	if f.listEntries == nil {
		return nil, errors.New("unexpected ListEntries call")
	}
	return f.listEntries(ctx, start, end)
}

func (f *fakeClient) CreateEntry(ctx context.Context, entry paymo.NewEntry) (paymo.Entry, error) {
	return paymo.Entry{}, errors.New("unexpected CreateEntry call")
}

func (f *fakeClient) CreateEntriesBatch(ctx context.Context, entries []paymo.NewEntry) ([]paymo.Entry, error) {
	return nil, errors.New("unexpected CreateEntriesBatch call")
}

func (f *fakeClient) DeleteEntry(ctx context.Context, entryID int64) error {
	return errors.New("unexpected DeleteEntry call")
}

func (f *fakeClient) CreateTask(ctx context.Context, projectID int64, name string, billable bool) (paymo.Task, error) {
	return paymo.Task{}, errors.New("unexpected CreateTask call")
}

func (f *fakeClient) ListInvoices(ctx context.Context, clientID int64, status string) ([]paymo.Invoice, error) {
	return nil, errors.New("unexpected ListInvoices call")
}

func (f *fakeClient) GetInvoice(ctx context.Context, invoiceID int64, includeItems bool) (paymo.Invoice, error) {
	if f.getInvoice == nil {
		return paymo.Invoice{}, errors.New("unexpected GetInvoice call")
	}
	return f.getInvoice(ctx, invoiceID, includeItems)
}

func (f *fakeClient) OutstandingInvoicesLastWeek(ctx context.Context, now time.Time) ([]paymo.Invoice, error) {
	return nil, errors.New("unexpected OutstandingInvoicesLastWeek call")
}

func TestSortEntries_StartTimeThenDateThenPaddedID(t *testing.T) {
	t.Parallel()

	entries := []paymo.Entry{
		{ID: 5},
		{ID: 4, Date: "2024-01-16"},
		{ID: 3, StartTime: "2024-01-15T15:00:00Z"},
		{ID: 2, StartTime: "2024-01-15T17:00:00Z"},
		{ID: 1},
	}

	sorted := SortEntries(entries)
	got := make([]int64, 0, len(sorted))
	for _, entry := range sorted {
		got = append(got, entry.ID)
	}

	// Zero-padded id keys sort before the date-shaped keys.
	want := []int64{1, 5, 3, 2, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v, want %v", got, want)
		}
	}
}

func TestSortEntries_Stable(t *testing.T) {
	t.Parallel()

	entries := []paymo.Entry{
		{ID: 1, StartTime: "2024-01-15T15:00:00Z", Description: "first"},
		{ID: 2, StartTime: "2024-01-15T15:00:00Z", Description: "second"},
	}

	sorted := SortEntries(entries)
	if sorted[0].ID != 1 || sorted[1].ID != 2 {
		t.Fatalf("equal keys must keep input order: %+v", sorted)
	}
}

func TestTruncate_CutsOnRuneBoundaries(t *testing.T) {
	t.Parallel()

	if got := Truncate("short", 50); got != "short" {
		t.Fatalf("short values must pass through, got %q", got)
	}

	long := strings.Repeat("é", 60)
	got := Truncate(long, 50)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated value is not valid UTF-8: %q", got)
	}
	if got != strings.Repeat("é", 47)+"..." {
		t.Fatalf("unexpected truncation: %q", got)
	}

	exact := strings.Repeat("字", 50)
	if got := Truncate(exact, 50); got != exact {
		t.Fatalf("values at the limit must pass through, got %q", got)
	}
}

func TestCleanDescription(t *testing.T) {
	t.Parallel()

	got := CleanDescription("<p>Drafted &amp; filed <b>motion</b></p> ")
	if got != "Drafted & filed motion" {
		t.Fatalf("unexpected cleaned description: %q", got)
	}

	if got := CleanDescription(""); got != "" {
		t.Fatalf("empty description must stay empty, got %q", got)
	}
}

func TestEntryDurationHours(t *testing.T) {
	t.Parallel()

	explicit := paymo.Entry{Duration: 5400}
	if got := EntryDurationHours(explicit); got != 1.5 {
		t.Fatalf("unexpected explicit duration: %f", got)
	}

	ranged := paymo.Entry{StartTime: "2024-01-15T15:00:00Z", EndTime: "2024-01-15T17:30:00Z"}
	if got := EntryDurationHours(ranged); got != 2.5 {
		t.Fatalf("unexpected range duration: %f", got)
	}

	broken := paymo.Entry{StartTime: "bogus"}
	if got := EntryDurationHours(broken); got != 0 {
		t.Fatalf("unparsable entry must yield 0, got %f", got)
	}
}

func TestBuildRows_TaskLookupPacingAndCache(t *testing.T) {
	t.Parallel()

	lookups := make([]int64, 0, 2)
	client := &fakeClient{
		getTask: func(ctx context.Context, taskID int64) (paymo.Task, error) {
			lookups = append(lookups, taskID)
			return paymo.Task{ID: taskID, Name: "Task " + string(rune('A'+taskID))}, nil
		},
	}

	entries := []paymo.Entry{
		{ID: 1, TaskID: 1, Date: "2024-01-15", Duration: 3600},
		{ID: 2, TaskID: 2, Date: "2024-01-16", Duration: 3600},
		{ID: 3, TaskID: 1, Date: "2024-01-17", Duration: 3600}, // shared task: one lookup
	}

	sleeps := make([]time.Duration, 0, 4)
	rows := BuildRows(context.Background(), client, entries, func(d time.Duration) { sleeps = append(sleeps, d) }, io.Discard)

	if len(rows) != 3 {
		t.Fatalf("unexpected row count: %d", len(rows))
	}
	if len(lookups) != 2 {
		t.Fatalf("expected one lookup per unique task, got %v", lookups)
	}
	if rows[0].Task != rows[2].Task || rows[0].Task == "" {
		t.Fatalf("shared task must resolve to the same cached name: %+v", rows)
	}
	if len(sleeps) != 2 {
		t.Fatalf("expected one pacing sleep per lookup, got %v", sleeps)
	}
	for _, d := range sleeps {
		if d != 2*time.Second {
			t.Fatalf("expected 2s lookup pacing, got %s", d)
		}
	}
}

func TestBuildRows_RateLimitedLookupRetriesAfterBackoff(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &fakeClient{
		getTask: func(ctx context.Context, taskID int64) (paymo.Task, error) {
			calls++
			if calls == 1 {
				return paymo.Task{}, &paymo.RateLimitError{RetryAfter: 45 * time.Second}
			}
			return paymo.Task{ID: taskID, Name: "Research"}, nil
		},
	}

	entries := []paymo.Entry{{ID: 1, TaskID: 7, Date: "2024-01-15", Duration: 3600}}

	sleeps := make([]time.Duration, 0, 2)
	var warnings strings.Builder
	rows := BuildRows(context.Background(), client, entries, func(d time.Duration) { sleeps = append(sleeps, d) }, &warnings)

	if calls != 2 {
		t.Fatalf("expected one retry, got %d calls", calls)
	}
	if rows[0].Task != "Research" {
		t.Fatalf("retry result must be used, got %q", rows[0].Task)
	}
	// 2s pacing, then the fixed 6s backoff before the retry.
	if len(sleeps) != 2 || sleeps[0] != 2*time.Second || sleeps[1] != 6*time.Second {
		t.Fatalf("unexpected sleeps: %v", sleeps)
	}
	if !strings.Contains(warnings.String(), "Rate limit hit") {
		t.Fatalf("expected rate limit warning, got %q", warnings.String())
	}
}

func TestBuildRows_FailedLookupLeavesNameEmpty(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		getTask: func(ctx context.Context, taskID int64) (paymo.Task, error) {
			return paymo.Task{}, &paymo.APIError{Status: 500, Body: "boom"}
		},
	}

	entries := []paymo.Entry{{ID: 1, TaskID: 7, Date: "2024-01-15", Duration: 3600}}

	var warnings strings.Builder
	rows := BuildRows(context.Background(), client, entries, func(time.Duration) {}, &warnings)

	if rows[0].Task != "" {
		t.Fatalf("failed lookup must leave the task name empty, got %q", rows[0].Task)
	}
	if !strings.Contains(warnings.String(), "failed to fetch task 7") {
		t.Fatalf("expected warning, got %q", warnings.String())
	}
}

func TestRangeEntries_ProjectFilter(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		listEntries: func(ctx context.Context, start, end string) ([]paymo.Entry, error) {
			return []paymo.Entry{
				{ID: 1, ProjectID: 10},
				{ID: 2, ProjectID: 20},
				{ID: 3, ProjectID: 10},
			}, nil
		},
	}

	entries, err := RangeEntries(context.Background(), client, "2024-01-01", "2024-01-31", 10)
	if err != nil {
		t.Fatalf("range entries: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != 1 || entries[1].ID != 3 {
		t.Fatalf("unexpected filtered entries: %+v", entries)
	}
}
