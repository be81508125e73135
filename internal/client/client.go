// Package client talks to a running experiments server over its HTTP API.
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
)

// Client is an HTTP client for the experiments API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Experiment is the server's view of one experiment.
type Experiment struct {
	Name    string `json:"name"`
	Exists  bool   `json:"exists"`
	Enabled bool   `json:"enabled"`
	Kind    string `json:"kind,omitempty"`
	Value   any    `json:"value,omitempty"`
}

// Action is one applied change reported by Configure.
type Action struct {
	Name  string `json:"name"`
	Op    string `json:"op"`
	Kind  string `json:"kind,omitempty"`
	Value any    `json:"value,omitempty"`
}

// ConfigureResult is the response to an applied configure command.
type ConfigureResult struct {
	OK      bool     `json:"ok"`
	Batch   string   `json:"batch"`
	Actions []Action `json:"actions"`
}

// APIError is a non-success response. Code is the server's machine-readable code,
// e.g. HOST_MISMATCH.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API error (status %d, %s): %s", e.Status, e.Code, e.Message)
}

// Configure sends a configure command to the server.
func (c *Client) Configure(ctx context.Context, command string) (*ConfigureResult, error) {
	body, err := json.Marshal(map[string]string{"command": command})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var result ConfigureResult
	if err := c.do(ctx, http.MethodPost, "/v1/configure", bytes.NewReader(body), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetExperiment retrieves a single experiment. An experiment that was never set
// is returned with Exists false.
func (c *Client) GetExperiment(ctx context.Context, name string) (*Experiment, error) {
	var exp Experiment
	if err := c.do(ctx, http.MethodGet, "/v1/experiments/"+url.PathEscape(name), nil, &exp); err != nil {
		return nil, err
	}
	return &exp, nil
}

// ListExperiments retrieves all stored experiments.
func (c *Client) ListExperiments(ctx context.Context) ([]Experiment, error) {
	var result struct {
		ETag        string       `json:"etag"`
		Experiments []Experiment `json:"experiments"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/experiments", nil, &result); err != nil {
		return nil, err
	}
	return result.Experiments, nil
}

// RemoveExperiment deletes an experiment
func (c *Client) RemoveExperiment(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/v1/experiments/"+url.PathEscape(name), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode, Message: string(bodyBytes)}
		var structured struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		if json.Unmarshal(bodyBytes, &structured) == nil && structured.Code != "" {
			apiErr.Code = structured.Code
			apiErr.Message = structured.Message
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
