package exporter

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"paymoctl/internal/timeutil"
	"paymoctl/paymo"
)

// Entries billed before this window (relative to the invoice date) cannot
// be recovered by the intersection and are omitted.
const invoiceLookbackDays = 90

// InvoiceEntries returns the entries that appear on a specific invoice,
// determined by intersecting the invoice's line-item ids with entries fetched
// over a 90-day lookback window ending at the invoice date.
func InvoiceEntries(ctx context.Context, client paymo.Client, invoiceID int64, now time.Time, warnOutput io.Writer) (paymo.Invoice, []paymo.Entry, error) {
	if warnOutput == nil {
		warnOutput = io.Discard
	}

	invoice, err := client.GetInvoice(ctx, invoiceID, true)
	if err != nil {
		return paymo.Invoice{}, nil, fmt.Errorf("get invoice %d: %w", invoiceID, err)
	}

	itemIDs := make(map[int64]struct{}, len(invoice.Items))
	for _, item := range invoice.Items {
		if item.ID > 0 {
			itemIDs[item.ID] = struct{}{}
		}
	}
	if len(itemIDs) == 0 {
		return invoice, nil, nil
	}

	start, end := invoiceWindow(invoice, now)
	fmt.Fprintf(warnOutput, "Matching entries from %s to %s (entries billed outside this window are omitted)\n", start, end)

	entries, err := client.ListEntries(ctx, start, end)
	if err != nil {
		return paymo.Invoice{}, nil, fmt.Errorf("list entries for invoice %d: %w", invoiceID, err)
	}

	matched := make([]paymo.Entry, 0, len(entries))
	for _, entry := range entries {
		if _, ok := itemIDs[entry.InvoiceItemID]; ok {
			matched = append(matched, entry)
		}
	}
	return invoice, matched, nil
}

func invoiceWindow(invoice paymo.Invoice, now time.Time) (start, end string) {
	invoiceDate, err := timeutil.ParseDay(invoice.Date)
	if err != nil {
		// No usable invoice date: fall back to the last 90 days from now.
		invoiceDate = now
	}
	start = invoiceDate.AddDate(0, 0, -invoiceLookbackDays).Format(timeutil.DayLayout)
	end = invoiceDate.Format(timeutil.DayLayout)
	return start, end
}

// InvoiceCSVFilename derives the export filename from an invoice number,
// cleaning characters that break file paths.
func InvoiceCSVFilename(invoice paymo.Invoice) string {
	number := strings.TrimSpace(invoice.Number)
	if number == "" {
		number = fmt.Sprintf("INV-%d", invoice.ID)
	}
	number = strings.ReplaceAll(number, "#", "")
	number = strings.ReplaceAll(number, "/", "-")
	return number + "_timesheet.csv"
}
