package toolserver

import (
	"encoding/json"
	"fmt"
	"math"

	"paymoctl/exporter"
	"paymoctl/paymo"
)

type projectView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ClientName string `json:"clientName,omitempty"`
	Active     bool   `json:"active"`
}

type taskView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ProjectID int64  `json:"projectId"`
	Billable  bool   `json:"billable"`
}

type entryView struct {
	ID            int64   `json:"id"`
	Date          string  `json:"date,omitempty"`
	StartTime     string  `json:"startTime,omitempty"`
	EndTime       string  `json:"endTime,omitempty"`
	DurationHours float64 `json:"durationHours"`
	Task          string  `json:"task,omitempty"`
	Description   string  `json:"description,omitempty"`
	Billed        bool    `json:"billed"`
}

type entryListView struct {
	Entries    []entryView `json:"entries"`
	TotalHours float64     `json:"totalHours"`
}

type invoiceView struct {
	ID         int64   `json:"id"`
	Number     string  `json:"number"`
	ClientName string  `json:"clientName,omitempty"`
	Total      float64 `json:"total"`
	Date       string  `json:"date,omitempty"`
	Status     string  `json:"status"`
}

type submitView struct {
	Matter    string  `json:"matter"`
	Created   int     `json:"created"`
	Requested int     `json:"requested"`
	Hours     float64 `json:"hours"`
	DryRun    bool    `json:"dryRun,omitempty"`
}

type exportView struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Rows    int    `json:"rows"`
	Invoice string `json:"invoice,omitempty"`
}

func buildProjectViews(projects []paymo.Project) []projectView {
	out := make([]projectView, 0, len(projects))
	for _, project := range projects {
		out = append(out, projectView{
			ID:         project.ID,
			Name:       project.Name,
			ClientName: project.ClientName,
			Active:     project.Active,
		})
	}
	return out
}

func buildTaskViews(tasks []paymo.Task) []taskView {
	out := make([]taskView, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, taskView{
			ID:        task.ID,
			Name:      task.Name,
			ProjectID: task.ProjectID,
			Billable:  task.Billable,
		})
	}
	return out
}

func buildEntryListView(rows []exporter.Row) entryListView {
	view := entryListView{Entries: make([]entryView, 0, len(rows))}
	for _, row := range rows {
		hours := roundHours(row.DurationHours)
		view.Entries = append(view.Entries, entryView{
			ID:            row.EntryID,
			Date:          row.Date,
			StartTime:     row.StartTime,
			EndTime:       row.EndTime,
			DurationHours: hours,
			Task:          row.Task,
			Description:   row.Description,
			Billed:        row.Billed,
		})
		view.TotalHours += hours
	}
	view.TotalHours = roundHours(view.TotalHours)
	return view
}

func buildInvoiceViews(invoices []paymo.Invoice) []invoiceView {
	out := make([]invoiceView, 0, len(invoices))
	for _, invoice := range invoices {
		out = append(out, invoiceView{
			ID:         invoice.ID,
			Number:     invoice.Number,
			ClientName: invoice.ClientName,
			Total:      invoice.Total,
			Date:       invoice.Date,
			Status:     invoice.Status,
		})
	}
	return out
}

func roundHours(value float64) float64 {
	return math.Round(value*100) / 100
}

func marshalResult(payload any) (string, error) {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(encoded), nil
}
