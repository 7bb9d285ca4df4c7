package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"todaybox/internal/recurrence"
	"todaybox/internal/server"
	"todaybox/internal/view"
)

// Client is a minimal TodayBox HTTP API client, safe for concurrent use.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

const defaultTimeout = 10 * time.Second

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

type CreateTaskRequest struct {
	Title      string           `json:"title"`
	DueDate    *string          `json:"dueDate,omitempty"`
	Recurrence *recurrence.Rule `json:"recurrence,omitempty"`
	IsToday    bool             `json:"isToday,omitempty"`
	Memo       *string          `json:"memo,omitempty"`
}

func (c *Client) Today(ctx context.Context) (view.TodayTasksPayload, error) {
	var resp view.TodayTasksPayload
	err := c.do(ctx, http.MethodGet, "api/today", nil, &resp)
	return resp, err
}

func (c *Client) Tray(ctx context.Context, maxItems int) ([]server.TrayEntryResponse, error) {
	endpoint := "api/tray"
	if maxItems > 0 {
		endpoint += fmt.Sprintf("?maxItems=%d", maxItems)
	}
	var resp []server.TrayEntryResponse
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (server.TaskResponse, error) {
	var resp server.TaskResponse
	err := c.do(ctx, http.MethodPost, "api/tasks", req, &resp)
	return resp, err
}

func (c *Client) ToggleCompletion(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("api/tasks/%s/toggle-completion", url.PathEscape(id)), nil, nil)
}

func (c *Client) ToggleToday(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("api/tasks/%s/toggle-today", url.PathEscape(id)), nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	u := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, u, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
