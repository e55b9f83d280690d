package upload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/claude/perfutils/internal/importer"
	"github.com/claude/perfutils/internal/ingest/alpha"
	"github.com/claude/perfutils/internal/models"
	"github.com/google/uuid"
)

// Client sends training logs to a perfutils server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the perfutils server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// CreateLog creates a named log on the server.
func (c *Client) CreateLog(name string) (*models.Log, error) {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, fmt.Errorf("marshaling log: %w", err)
	}
	var l models.Log
	if err := c.post("/api/v1/logs", "application/json", body, http.StatusCreated, &l); err != nil {
		return nil, fmt.Errorf("creating log: %w", err)
	}
	return &l, nil
}

// ImportLog POSTs a JSON training log; the server stores its lifts as set
// items of the log.
func (c *Client) ImportLog(id uuid.UUID, data []byte) (*importer.Stats, error) {
	var stats importer.Stats
	if err := c.post("/api/v1/logs/"+id.String()+"/import", "application/json", data, http.StatusOK, &stats); err != nil {
		return nil, fmt.Errorf("importing log: %w", err)
	}
	return &stats, nil
}

// ImportAlpha POSTs an Alpha Progression CSV export to be stored as
// session, exercise and set items of the log.
func (c *Client) ImportAlpha(id uuid.UUID, data []byte) (*alpha.Result, error) {
	var res alpha.Result
	if err := c.post("/api/v1/logs/"+id.String()+"/import/alpha", "text/csv", data, http.StatusOK, &res); err != nil {
		return nil, fmt.Errorf("importing alpha export: %w", err)
	}
	return &res, nil
}

// EstimateLog asks the server to store one-rep max estimates on every lift
// of a log. An empty formula uses the server default.
func (c *Client) EstimateLog(id uuid.UUID, formula string) (*importer.Stats, error) {
	path := "/api/v1/logs/" + id.String() + "/estimate"
	if formula != "" {
		path += "?formula=" + url.QueryEscape(formula)
	}
	var resp struct {
		Stats importer.Stats `json:"stats"`
	}
	if err := c.post(path, "application/json", nil, http.StatusOK, &resp); err != nil {
		return nil, fmt.Errorf("estimating log: %w", err)
	}
	return &resp.Stats, nil
}

// post sends body and decodes the response into out. Transport failures
// and 5xx responses are retried up to 3 times with exponential backoff.
func (c *Client) post(path, contentType string, body []byte, want int, out any) error {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(c.backoff << uint(attempt-1))
		}

		req, err := http.NewRequest(http.MethodPost, c.serverURL+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == want {
			if err := json.Unmarshal(data, out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			return nil
		}
		lastErr = fmt.Errorf("request failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(data))
		if resp.StatusCode < 500 {
			return lastErr
		}
	}

	return fmt.Errorf("after 3 attempts: %w", lastErr)
}
