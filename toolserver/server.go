// Package toolserver exposes the timesheet operations as a stdio tool server
// for LLM assistants speaking the Model Context Protocol.
package toolserver

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"paymoctl/config"
	"paymoctl/exporter"
	"paymoctl/paymo"
	"paymoctl/timesheet"
)

type Server struct {
	client paymo.Client
	cfg    *config.Config

	sleep exporter.Sleeper
	log   io.Writer

	mcp *server.MCPServer
}

func NewServer(client paymo.Client, cfg *config.Config, version string, log io.Writer) *Server {
	if log == nil {
		log = io.Discard
	}

	s := &Server{
		client: client,
		cfg:    cfg,
		sleep:  time.Sleep,
		log:    log,
	}

	s.mcp = server.NewMCPServer(
		"paymoctl",
		version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// Serve runs the stdio transport until the client disconnects.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List Paymo projects. Active projects only unless include_inactive is set."),
		mcp.WithBoolean("include_inactive", mcp.Description("Include archived and inactive projects")),
	), s.handleListProjects)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List the task lists of a project."),
		mcp.WithNumber("project_id", mcp.Required(), mcp.Description("Paymo project id")),
	), s.handleListTasks)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List time entries with resolved task names. Omit start and end for the full history."),
		mcp.WithString("start", mcp.Description("Start date, YYYY-MM-DD")),
		mcp.WithString("end", mcp.Description("End date, YYYY-MM-DD")),
		mcp.WithNumber("project_id", mcp.Description("Restrict to one project")),
		mcp.WithBoolean("unbilled_only", mcp.Description("Only entries not yet on an invoice")),
	), s.handleListEntries)

	s.mcp.AddTool(mcp.NewTool("create_entry",
		mcp.WithDescription("Create a single time entry. Provide start_time and end_time, or duration_hours."),
		mcp.WithNumber("task_id", mcp.Required(), mcp.Description("Paymo task id")),
		mcp.WithString("date", mcp.Required(), mcp.Description("Entry date, YYYY-MM-DD")),
		mcp.WithString("start_time", mcp.Description("Local start clock, HH:MM")),
		mcp.WithString("end_time", mcp.Description("Local end clock, HH:MM")),
		mcp.WithNumber("duration_hours", mcp.Description("Decimal hours, alternative to a time range")),
		mcp.WithString("description", mcp.Description("Entry description")),
		mcp.WithBoolean("billed", mcp.Description("Mark the entry as billed")),
	), s.handleCreateEntry)

	s.mcp.AddTool(mcp.NewTool("submit_timesheet",
		mcp.WithDescription("Validate and submit a YAML timesheet. Set dry_run to preview without creating entries."),
		mcp.WithString("yaml_content", mcp.Required(), mcp.Description("Timesheet document in the matter/entries YAML format")),
		mcp.WithBoolean("dry_run", mcp.Description("Validate and total without creating entries")),
	), s.handleSubmitTimesheet)

	s.mcp.AddTool(mcp.NewTool("export_timesheet",
		mcp.WithDescription("Export entries in a date range to a CSV or Excel file and return its path."),
		mcp.WithString("start", mcp.Required(), mcp.Description("Start date, YYYY-MM-DD")),
		mcp.WithString("end", mcp.Required(), mcp.Description("End date, YYYY-MM-DD")),
		mcp.WithNumber("project_id", mcp.Description("Restrict to one project")),
		mcp.WithString("output", mcp.Description("Output file path; derived from the range when omitted")),
		mcp.WithString("format", mcp.Description("csv or excel; inferred from the output extension when omitted")),
	), s.handleExportTimesheet)

	s.mcp.AddTool(mcp.NewTool("list_invoices",
		mcp.WithDescription("List invoices, optionally filtered by client or status."),
		mcp.WithNumber("client_id", mcp.Description("Restrict to one client")),
		mcp.WithString("status", mcp.Description("Invoice status, e.g. draft, sent, viewed, paid")),
	), s.handleListInvoices)

	s.mcp.AddTool(mcp.NewTool("outstanding_invoices_last_week",
		mcp.WithDescription("List invoices sent or viewed in the last seven days that are still unpaid."),
	), s.handleOutstandingInvoices)

	s.mcp.AddTool(mcp.NewTool("export_invoice_timesheet",
		mcp.WithDescription("Export the time entries behind one invoice to a CSV file named after the invoice number."),
		mcp.WithNumber("invoice_id", mcp.Required(), mcp.Description("Paymo invoice id")),
		mcp.WithString("output_dir", mcp.Description("Directory for the export; current directory when omitted")),
	), s.handleExportInvoiceTimesheet)
}

func (s *Server) handleListProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeInactive := req.GetBool("include_inactive", false)

	projects, err := s.client.ListProjects(ctx, !includeInactive)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list projects: %v", err)), nil
	}
	return s.jsonResult(buildProjectViews(projects))
}

func (s *Server) handleListTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := req.RequireInt("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tasks, err := s.client.ListTasks(ctx, int64(projectID))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list tasks: %v", err)), nil
	}
	return s.jsonResult(buildTaskViews(tasks))
}

func (s *Server) handleListEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := strings.TrimSpace(req.GetString("start", ""))
	end := strings.TrimSpace(req.GetString("end", ""))
	projectID := int64(req.GetInt("project_id", 0))
	unbilledOnly := req.GetBool("unbilled_only", false)

	entries, err := exporter.RangeEntries(ctx, s.client, start, end, projectID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list entries: %v", err)), nil
	}
	if unbilledOnly {
		kept := make([]paymo.Entry, 0, len(entries))
		for _, entry := range entries {
			if !entry.Billed {
				kept = append(kept, entry)
			}
		}
		entries = kept
	}

	rows := exporter.BuildRows(ctx, s.client, entries, s.sleep, s.log)
	return s.jsonResult(buildEntryListView(rows))
}

func (s *Server) handleCreateEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID, err := req.RequireInt("task_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry := timesheet.Entry{
		Date:        date,
		StartTime:   strings.TrimSpace(req.GetString("start_time", "")),
		EndTime:     strings.TrimSpace(req.GetString("end_time", "")),
		Description: req.GetString("description", ""),
	}
	if hours := req.GetFloat("duration_hours", 0); hours > 0 {
		entry.DurationHours = &hours
	}
	if billed := req.GetBool("billed", false); billed {
		entry.Billed = &billed
	}

	loc, err := s.cfg.Location()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	apiEntry, err := timesheet.BuildAPIEntry(entry, int64(taskID), loc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	created, err := s.client.CreateEntry(ctx, apiEntry)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create entry: %v", err)), nil
	}
	return s.jsonResult(entryView{
		ID:            created.ID,
		Date:          created.Date,
		StartTime:     created.StartTime,
		EndTime:       created.EndTime,
		DurationHours: roundHours(exporter.EntryDurationHours(created)),
		Description:   created.Description,
		Billed:        created.Billed,
	})
}

func (s *Server) handleSubmitTimesheet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("yaml_content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dryRun := req.GetBool("dry_run", false)

	sheet, err := timesheet.Parse([]byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// The tool transport has no interactive prompt; the dry_run flag is the
	// caller's confirmation step.
	processor := timesheet.NewProcessor(s.client, s.cfg)
	processor.Out = s.log
	created, err := processor.Submit(ctx, sheet, timesheet.SubmitOptions{
		DryRun:      dryRun,
		AutoConfirm: true,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	hours, err := s.sheetHours(sheet)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.jsonResult(submitView{
		Matter:    sheet.Matter,
		Created:   len(created),
		Requested: len(sheet.Entries),
		Hours:     roundHours(hours),
		DryRun:    dryRun,
	})
}

func (s *Server) handleExportTimesheet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, err := req.RequireString("start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := req.RequireString("end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	projectID := int64(req.GetInt("project_id", 0))

	output := strings.TrimSpace(req.GetString("output", ""))
	if output == "" {
		output = fmt.Sprintf("timesheet_%s_%s.csv", start, end)
	}
	format := strings.TrimSpace(req.GetString("format", ""))
	if format == "" {
		format = exporter.DetectFormat(output)
	}
	writer, err := exporter.WriterForFormat(format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entries, err := exporter.RangeEntries(ctx, s.client, start, end, projectID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list entries: %v", err)), nil
	}
	rows := exporter.BuildRows(ctx, s.client, entries, s.sleep, s.log)
	if err := writer.Write(output, rows); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.jsonResult(exportView{Path: output, Format: format, Rows: len(rows)})
}

func (s *Server) handleListInvoices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID := int64(req.GetInt("client_id", 0))
	status := strings.TrimSpace(req.GetString("status", ""))

	invoices, err := s.client.ListInvoices(ctx, clientID, status)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list invoices: %v", err)), nil
	}
	return s.jsonResult(buildInvoiceViews(invoices))
}

func (s *Server) handleOutstandingInvoices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	invoices, err := s.client.OutstandingInvoicesLastWeek(ctx, time.Now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list outstanding invoices: %v", err)), nil
	}
	return s.jsonResult(buildInvoiceViews(invoices))
}

func (s *Server) handleExportInvoiceTimesheet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	invoiceID, err := req.RequireInt("invoice_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	outputDir := strings.TrimSpace(req.GetString("output_dir", ""))

	invoice, entries, err := exporter.InvoiceEntries(ctx, s.client, int64(invoiceID), time.Now(), s.log)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	output := filepath.Join(outputDir, exporter.InvoiceCSVFilename(invoice))
	rows := exporter.BuildRows(ctx, s.client, entries, s.sleep, s.log)
	writer := &exporter.CSVWriter{}
	if err := writer.Write(output, rows); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.jsonResult(exportView{
		Path:    output,
		Format:  "csv",
		Rows:    len(rows),
		Invoice: invoice.Number,
	})
}

func (s *Server) sheetHours(sheet *timesheet.Sheet) (float64, error) {
	loc, err := s.cfg.Location()
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, entry := range sheet.Entries {
		hours, err := timesheet.EntryDuration(entry, loc)
		if err != nil {
			return 0, err
		}
		total += hours
	}
	return total, nil
}

func (s *Server) jsonResult(payload any) (*mcp.CallToolResult, error) {
	encoded, err := marshalResult(payload)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(encoded), nil
}
