package paymo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://app.paymoapp.com/api"

	dateLayout = "2006-01-02"

	// Below this many remaining requests the client warns on stderr.
	rateLimitWarnThreshold = 5
)

// Client defines the Paymo API operations used by the CLI and tool server.
type Client interface {
	ListProjects(ctx context.Context, activeOnly bool) ([]Project, error)
	ListTasks(ctx context.Context, projectID int64) ([]Task, error)
	GetTask(ctx context.Context, taskID int64) (Task, error)
	ListEntries(ctx context.Context, start, end string) ([]Entry, error)
	CreateEntry(ctx context.Context, entry NewEntry) (Entry, error)
	CreateEntriesBatch(ctx context.Context, entries []NewEntry) ([]Entry, error)
	DeleteEntry(ctx context.Context, entryID int64) error
	CreateTask(ctx context.Context, projectID int64, name string, billable bool) (Task, error)
	ListInvoices(ctx context.Context, clientID int64, status string) ([]Invoice, error)
	GetInvoice(ctx context.Context, invoiceID int64, includeItems bool) (Invoice, error)
	OutstandingInvoicesLastWeek(ctx context.Context, now time.Time) ([]Invoice, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	HTTPClient httpDoer
	WarnOutput io.Writer
}

type HTTPClient struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient httpDoer
	warnOutput io.Writer
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("API key is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}

	warnOutput := cfg.WarnOutput
	if warnOutput == nil {
		warnOutput = os.Stderr
	}

	return &HTTPClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: doer,
		warnOutput: warnOutput,
	}, nil
}

type Project struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ClientName string `json:"client_name"`
	Active     bool   `json:"active"`
}

type Task struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ProjectID int64  `json:"project_id"`
	Billable  bool   `json:"billable"`
}

// Entry is a time entry as returned by the provider. Times are UTC ISO-8601
// strings; Duration is seconds and is zero for range-shaped entries.
type Entry struct {
	ID            int64   `json:"id"`
	TaskID        int64   `json:"task_id"`
	ProjectID     int64   `json:"project_id"`
	Date          string  `json:"date"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Duration      int     `json:"duration"`
	Description   string  `json:"description"`
	Billed        bool    `json:"billed"`
	InvoiceItemID int64   `json:"invoice_item_id"`
	Price         float64 `json:"price"`
}

// NewEntry is the wire shape for entry creation: either StartTime+EndTime or
// Date+Duration must be set.
type NewEntry struct {
	TaskID      int64  `json:"task_id"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Date        string `json:"date,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
	Billed      *bool  `json:"billed,omitempty"`
}

type InvoiceItem struct {
	ID int64 `json:"id"`
}

type Invoice struct {
	ID         int64         `json:"id"`
	Number     string        `json:"number"`
	ClientName string        `json:"client_name"`
	Total      float64       `json:"total"`
	Date       string        `json:"date"`
	Status     string        `json:"status"`
	Items      []InvoiceItem `json:"invoiceitems"`
}

type projectsResponse struct {
	Projects []Project `json:"projects"`
}

type tasksResponse struct {
	Tasks []Task `json:"tasks"`
}

type entriesResponse struct {
	Entries []Entry `json:"entries"`
}

type invoicesResponse struct {
	Invoices []Invoice `json:"invoices"`
}

func (c *HTTPClient) ListProjects(ctx context.Context, activeOnly bool) ([]Project, error) {
	endpoint := "/projects"
	if activeOnly {
		endpoint += "?where=" + url.QueryEscape("active=true")
	}
	var out projectsResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context, projectID int64) ([]Task, error) {
	endpoint := "/tasks"
	if projectID > 0 {
		endpoint += "?where=" + url.QueryEscape(fmt.Sprintf("project_id=%d", projectID))
	}
	var out tasksResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

func (c *HTTPClient) GetTask(ctx context.Context, taskID int64) (Task, error) {
	var out tasksResponse
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", taskID), nil, &out); err != nil {
		return Task{}, err
	}
	if len(out.Tasks) == 0 {
		return Task{}, fmt.Errorf("task %d not found", taskID)
	}
	return out.Tasks[0], nil
}

// ListEntries returns entries whose time interval falls within [start, end],
// both YYYY-MM-DD. When either bound is empty all entries are returned.
func (c *HTTPClient) ListEntries(ctx context.Context, start, end string) ([]Entry, error) {
	endpoint := "/entries"
	if strings.TrimSpace(start) != "" && strings.TrimSpace(end) != "" {
		startDay, err := time.Parse(dateLayout, strings.TrimSpace(start))
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q (expected YYYY-MM-DD)", start)
		}
		endDay, err := time.Parse(dateLayout, strings.TrimSpace(end))
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q (expected YYYY-MM-DD)", end)
		}
		where := fmt.Sprintf(
			`time_interval in ("%s","%s")`,
			startDay.Format("2006-01-02T00:00:00Z"),
			endDay.Format("2006-01-02T23:59:59Z"),
		)
		endpoint += "?where=" + url.QueryEscape(where)
	}

	var out entriesResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *HTTPClient) CreateEntry(ctx context.Context, entry NewEntry) (Entry, error) {
	var out entriesResponse
	if err := c.doJSON(ctx, http.MethodPost, "/entries", entry, &out); err != nil {
		return Entry{}, err
	}
	if len(out.Entries) == 0 {
		return Entry{}, errors.New("create entry: empty response")
	}
	return out.Entries[0], nil
}

func (c *HTTPClient) CreateEntriesBatch(ctx context.Context, entries []NewEntry) ([]Entry, error) {
	if len(entries) == 0 {
		return nil, errors.New("batch payload must not be empty")
	}
	var out entriesResponse
	if err := c.doJSON(ctx, http.MethodPost, "/entries", entries, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *HTTPClient) DeleteEntry(ctx context.Context, entryID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/entries/%d", entryID), nil, nil)
}

func (c *HTTPClient) CreateTask(ctx context.Context, projectID int64, name string, billable bool) (Task, error) {
	payload := map[string]any{
		"project_id": projectID,
		"name":       name,
		"billable":   billable,
	}
	var out tasksResponse
	if err := c.doJSON(ctx, http.MethodPost, "/tasks", payload, &out); err != nil {
		return Task{}, err
	}
	if len(out.Tasks) == 0 {
		return Task{}, errors.New("create task: empty response")
	}
	return out.Tasks[0], nil
}

func (c *HTTPClient) ListInvoices(ctx context.Context, clientID int64, status string) ([]Invoice, error) {
	filters := make([]string, 0, 2)
	if clientID > 0 {
		filters = append(filters, fmt.Sprintf("client_id=%d", clientID))
	}
	if strings.TrimSpace(status) != "" {
		filters = append(filters, fmt.Sprintf("status=%s", strings.TrimSpace(status)))
	}

	endpoint := "/invoices"
	if len(filters) > 0 {
		endpoint += "?where=" + url.QueryEscape(strings.Join(filters, " and "))
	}

	var out invoicesResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Invoices, nil
}

func (c *HTTPClient) GetInvoice(ctx context.Context, invoiceID int64, includeItems bool) (Invoice, error) {
	endpoint := fmt.Sprintf("/invoices/%d", invoiceID)
	if includeItems {
		endpoint += "?include=invoiceitems"
	}
	var out invoicesResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return Invoice{}, err
	}
	if len(out.Invoices) == 0 {
		return Invoice{}, fmt.Errorf("invoice %d not found", invoiceID)
	}
	return out.Invoices[0], nil
}

// OutstandingInvoicesLastWeek returns invoices with status sent or viewed
// whose invoice date lies within the 7 days before now.
func (c *HTTPClient) OutstandingInvoicesLastWeek(ctx context.Context, now time.Time) ([]Invoice, error) {
	all, err := c.ListInvoices(ctx, 0, "")
	if err != nil {
		return nil, err
	}

	weekAgo := now.AddDate(0, 0, -7)
	outstanding := make([]Invoice, 0, len(all))
	for _, invoice := range all {
		status := strings.ToLower(strings.TrimSpace(invoice.Status))
		if status != "sent" && status != "viewed" {
			continue
		}
		if strings.TrimSpace(invoice.Date) == "" {
			continue
		}
		invoiceDate, err := time.Parse(dateLayout, invoice.Date)
		if err != nil {
			continue
		}
		if invoiceDate.Before(weekAgo) {
			continue
		}
		outstanding = append(outstanding, invoice)
	}
	return outstanding, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	url := c.baseURL + endpointPath
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	// Paymo basic auth: API key as username, any non-empty password.
	req.SetBasicAuth(c.apiKey, "X")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, endpointPath, err)
	}
	defer resp.Body.Close()

	c.warnOnLowRateLimit(resp)

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &RateLimitError{RetryAfter: retryAfterDuration(resp)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(responseBody)),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response %s %s: %w", method, endpointPath, err)
	}
	return nil
}

func (c *HTTPClient) warnOnLowRateLimit(resp *http.Response) {
	remainingText := resp.Header.Get("X-Ratelimit-Remaining")
	if remainingText == "" {
		return
	}
	remaining, err := strconv.Atoi(remainingText)
	if err != nil || remaining >= rateLimitWarnThreshold {
		return
	}
	fmt.Fprintf(
		c.warnOutput,
		"Warning: rate limit low: %s/%s remaining (resets in %ss)\n",
		remainingText,
		resp.Header.Get("X-Ratelimit-Limit"),
		resp.Header.Get("X-Ratelimit-Decay-Period"),
	)
}

func retryAfterDuration(resp *http.Response) time.Duration {
	value := strings.TrimSpace(resp.Header.Get("Retry-After"))
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
