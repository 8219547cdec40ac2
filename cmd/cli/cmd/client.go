package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"postforge/pkg/api"
)

// ForgeClient handles API calls to the postforge controller.
type ForgeClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewForgeClient creates a new client with the given base URL and token.
func NewForgeClient(baseURL, token string) *ForgeClient {
	return &ForgeClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			// Manual runs execute the whole pipeline in-request.
			Timeout: 5 * time.Minute,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// do sends one request and decodes the response into out when provided.
func (c *ForgeClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// CreateSchedule sends POST /schedules.
func (c *ForgeClient) CreateSchedule(req api.CreateScheduleRequest) (*api.CreateScheduleResponse, error) {
	var result api.CreateScheduleResponse
	if err := c.do(http.MethodPost, "/schedules", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BulkCreateSchedules sends POST /schedules/bulk.
func (c *ForgeClient) BulkCreateSchedules(req api.BulkCreateSchedulesRequest) (*api.BulkCreateSchedulesResponse, error) {
	var result api.BulkCreateSchedulesResponse
	if err := c.do(http.MethodPost, "/schedules/bulk", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListSchedules sends GET /schedules.
func (c *ForgeClient) ListSchedules(activeOnly bool) ([]api.Schedule, error) {
	path := "/schedules"
	if activeOnly {
		path += "?active=true"
	}
	var result []api.Schedule
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteSchedule sends DELETE /schedules/{id}.
func (c *ForgeClient) DeleteSchedule(id string) error {
	return c.do(http.MethodDelete, "/schedules/"+id, nil, nil)
}

// RunSchedule sends POST /schedules/{id}/run.
func (c *ForgeClient) RunSchedule(id string) (*api.RunNowResponse, error) {
	var result api.RunNowResponse
	if err := c.do(http.MethodPost, "/schedules/"+id+"/run", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateTemplate sends POST /templates.
func (c *ForgeClient) CreateTemplate(req api.CreateTemplateRequest) (*api.CreateTemplateResponse, error) {
	var result api.CreateTemplateResponse
	if err := c.do(http.MethodPost, "/templates", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListTemplates sends GET /templates.
func (c *ForgeClient) ListTemplates() ([]api.Template, error) {
	var result []api.Template
	if err := c.do(http.MethodGet, "/templates", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListHistory sends GET /history.
func (c *ForgeClient) ListHistory(limit int) ([]api.HistoryRecord, error) {
	var result []api.HistoryRecord
	if err := c.do(http.MethodGet, fmt.Sprintf("/history?limit=%d", limit), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetHistoryLogs sends GET /history/{id}/logs.
func (c *ForgeClient) GetHistoryLogs(id string, afterID int64) ([]api.HistoryLogEntry, error) {
	var result []api.HistoryLogEntry
	path := fmt.Sprintf("/history/%s/logs?after=%d", id, afterID)
	if err := c.do(http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ResilienceStatus sends GET /resilience/status.
func (c *ForgeClient) ResilienceStatus() (*api.ResilienceStatusResponse, error) {
	var result api.ResilienceStatusResponse
	if err := c.do(http.MethodGet, "/resilience/status", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ResetResilience sends POST /resilience/reset.
func (c *ForgeClient) ResetResilience(target string) (*api.ResilienceStatusResponse, error) {
	var result api.ResilienceStatusResponse
	req := api.ResetResilienceRequest{Target: target}
	if err := c.do(http.MethodPost, "/resilience/reset", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateAPIKey sends POST /keys.
func (c *ForgeClient) CreateAPIKey(req api.CreateAPIKeyRequest) (*api.CreateAPIKeyResponse, error) {
	var result api.CreateAPIKeyResponse
	if err := c.do(http.MethodPost, "/keys", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
