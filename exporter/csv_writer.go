package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Header is the fixed export column layout; billing records depend on the
// exact text and order.
var Header = []string{"Date", "Start Time", "End Time", "Duration (hours)", "Task", "Description", "Billed", "Entry ID"}

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, rows []Row) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteCSV(file, rows); err != nil {
		return err
	}
	return nil
}

// WriteCSV renders rows to any writer; the file-based CSVWriter and the tool
// server's in-memory exports share it.
func WriteCSV(out io.Writer, rows []Row) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Date,
			row.StartTime,
			row.EndTime,
			fmt.Sprintf("%.2f", row.DurationHours),
			row.Task,
			row.Description,
			formatBilled(row.Billed),
			strconv.FormatInt(row.EntryID, 10),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

func formatBilled(billed bool) string {
	if billed {
		return "Yes"
	}
	return "No"
}
