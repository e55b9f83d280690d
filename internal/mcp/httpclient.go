package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/perfutils/internal/models"
	"github.com/claude/perfutils/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements LogSource by calling the perfutils REST API.
// Used for stdio MCP mode where the binary runs locally but the logs live
// on a remote server.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("GET %s: %w", path, storage.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) ListLogs(ctx context.Context) ([]models.Log, error) {
	var logs []models.Log
	if err := c.get(ctx, "/api/v1/logs", &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *HTTPClient) GetLog(ctx context.Context, id uuid.UUID) (*models.Log, error) {
	var l models.Log
	if err := c.get(ctx, "/api/v1/logs/"+id.String(), &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *HTTPClient) ListItems(ctx context.Context, logID uuid.UUID) ([]models.LogItem, error) {
	var items []models.LogItem
	if err := c.get(ctx, "/api/v1/logs/"+logID.String()+"/items", &items); err != nil {
		return nil, err
	}
	return items, nil
}
