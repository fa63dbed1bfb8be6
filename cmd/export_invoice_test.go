package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"paymoctl/paymo"
)

type fakeClient struct {
	getInvoice                  func(ctx context.Context, invoiceID int64, includeItems bool) (paymo.Invoice, error)
	listEntries                 func(ctx context.Context, start, end string) ([]paymo.Entry, error)
	outstandingInvoicesLastWeek func(ctx context.Context, now time.Time) ([]paymo.Invoice, error)
}

func (f *fakeClient) ListProjects(ctx context.Context, activeOnly bool) ([]paymo.Project, error) {
	return nil, errors.New("unexpected ListProjects call")
}

func (f *fakeClient) ListTasks(ctx context.Context, projectID int64) ([]paymo.Task, error) {
	return nil, errors.New("unexpected ListTasks call")
}

func (f *fakeClient) GetTask(ctx context.Context, taskID int64) (paymo.Task, error) {
	return paymo.Task{}, errors.New("unexpected GetTask call")
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
	if f.outstandingInvoicesLastWeek == nil {
		return nil, errors.New("unexpected OutstandingInvoicesLastWeek call")
	}
	return f.outstandingInvoicesLastWeek(ctx, now)
}

func TestExportOneInvoice_NoMatchingEntriesWritesHeaderOnlyCSV(t *testing.T) {
	client := &fakeClient{
		getInvoice: func(ctx context.Context, invoiceID int64, includeItems bool) (paymo.Invoice, error) {
			if invoiceID != 7 || !includeItems {
				t.Fatalf("unexpected GetInvoice call: id=%d includeItems=%v", invoiceID, includeItems)
			}
			return paymo.Invoice{
				ID:     7,
				Number: "INV-7",
				Date:   "2024-03-01",
				Items:  []paymo.InvoiceItem{{ID: 11}},
			}, nil
		},
		listEntries: func(ctx context.Context, start, end string) ([]paymo.Entry, error) {
			// Billed under a different invoice, so nothing intersects.
			return []paymo.Entry{{ID: 1, InvoiceItemID: 99, Date: "2024-02-01", Duration: 3600}}, nil
		},
	}

	dir := t.TempDir()
	previousDir := exportInvoiceOutputDir
	exportInvoiceOutputDir = dir
	t.Cleanup(func() { exportInvoiceOutputDir = previousDir })

	if err := exportOneInvoice(context.Background(), client, 7); err != nil {
		t.Fatalf("export invoice: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "INV-7_timesheet.csv"))
	if err != nil {
		t.Fatalf("read export file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected only the header line, got %d lines: %q", len(lines), string(content))
	}
	if !strings.HasPrefix(lines[0], "Date,Start Time,End Time,") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
}

func TestCollectInvoiceIDs_ExplicitIDWinsOverLastWeek(t *testing.T) {
	t.Parallel()

	// The fake fails any OutstandingInvoicesLastWeek call, so an explicit id
	// must short-circuit the last-week lookup.
	ids, err := collectInvoiceIDs(context.Background(), &fakeClient{}, 900, true)
	if err != nil {
		t.Fatalf("collect invoice ids: %v", err)
	}
	if len(ids) != 1 || ids[0] != 900 {
		t.Fatalf("unexpected invoice ids: %v", ids)
	}
}

func TestCollectInvoiceIDs_LastWeekUsesOutstandingInvoices(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		outstandingInvoicesLastWeek: func(ctx context.Context, now time.Time) ([]paymo.Invoice, error) {
			return []paymo.Invoice{{ID: 3}, {ID: 8}}, nil
		},
	}

	ids, err := collectInvoiceIDs(context.Background(), client, 0, true)
	if err != nil {
		t.Fatalf("collect invoice ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 8 {
		t.Fatalf("unexpected invoice ids: %v", ids)
	}
}
