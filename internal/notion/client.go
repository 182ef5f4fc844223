package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"notioncal/internal/config"
	appLog "notioncal/internal/log"
)

const defaultBaseURL = "https://api.notion.com"

// FetchError is returned for any failure while talking to the API:
// transport errors, non-2xx statuses, and undecodable response bodies.
type FetchError struct {
	Op     string // e.g. "query data source"
	Status int    // HTTP status, 0 when the request never completed
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("notion: %s: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("notion: %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client issues bearer-authenticated requests against the Notion API.
// It performs no retries; a failed call fails the run.
type Client struct {
	baseURL    string
	token      string
	version    string
	httpClient *http.Client
}

// Option configures Client behavior.
type Option func(*Client)

// WithBaseURL overrides the API base URL (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a Client from the given credentials.
func New(cfg config.NotionConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   cfg.Token,
		version: cfg.Version,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type usersResponse struct {
	Results []User `json:"results"`
}

// CheckAuth lists the principals visible to the token. It exists as a
// cheap way to verify the credential before a run.
func (c *Client) CheckAuth(ctx context.Context) ([]User, error) {
	var out usersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/users", "list users", &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Database fetches metadata for the configured database.
func (c *Client) Database(ctx context.Context, id string) (*Database, error) {
	if id == "" {
		return nil, &FetchError{Op: "fetch database", Err: fmt.Errorf("database id is empty")}
	}
	var out Database
	if err := c.doJSON(ctx, http.MethodGet, "/v1/databases/"+id, "fetch database", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type queryResponse struct {
	Results []Record `json:"results"`
	HasMore bool     `json:"has_more"`
}

// QueryDataSource returns all records of the data source, in the order
// the API returns them. Only the first page is fetched; if the response
// indicates more pages, a warning is logged rather than silently
// under-counting.
func (c *Client) QueryDataSource(ctx context.Context, id string) ([]Record, error) {
	if id == "" {
		return nil, &FetchError{Op: "query data source", Err: fmt.Errorf("data source id is empty")}
	}

	appLog.Info("querying data source", "data_source_id", id)

	var out queryResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/data_sources/"+id+"/query", "query data source", &out); err != nil {
		return nil, err
	}

	if out.HasMore {
		appLog.Warn("data source query returned a partial page; pagination is not implemented, calendar will be incomplete",
			"data_source_id", id, "record_count", len(out.Results))
	}

	appLog.Info("data source query completed", "data_source_id", id, "record_count", len(out.Results))
	return out.Results, nil
}

// doJSON performs one request and decodes the JSON response into dest.
func (c *Client) doJSON(ctx context.Context, method, path, op string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &FetchError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%s", truncate(body, 512))}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return &FetchError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
