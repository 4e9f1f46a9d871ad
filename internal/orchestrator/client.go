// SPDX-License-Identifier: Apache-2.0

// Package orchestrator is the HTTP client for the remote orchestrator's
// command and resolution API. The console only observes and reacts to the
// orchestrator; validation of the commands themselves is its job.
package orchestrator

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

	"github.com/flowdeck/console/internal/domain"
)

// APIError carries the orchestrator's human-readable failure message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option tweaks client construction.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetWorkflow is the one-shot initial-load channel: the workflow snapshot
// including execution plan, batch cursor, blocker and recent events.
func (c *Client) GetWorkflow(ctx context.Context, workflowID string) (*domain.WorkflowDetail, error) {
	var detail domain.WorkflowDetail
	if err := c.do(ctx, http.MethodGet, c.workflowPath(workflowID), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) ApproveWorkflow(ctx context.Context, workflowID string) error {
	return c.do(ctx, http.MethodPost, c.workflowPath(workflowID, "approve"), nil, nil)
}

func (c *Client) RejectWorkflow(ctx context.Context, workflowID, feedback string) error {
	body := map[string]string{"feedback": feedback}
	return c.do(ctx, http.MethodPost, c.workflowPath(workflowID, "reject"), body, nil)
}

func (c *Client) CancelWorkflow(ctx context.Context, workflowID string) error {
	return c.do(ctx, http.MethodPost, c.workflowPath(workflowID, "cancel"), nil, nil)
}

func (c *Client) StartWorkflow(ctx context.Context, workflowID string) (domain.StartResult, error) {
	var result domain.StartResult
	err := c.do(ctx, http.MethodPost, c.workflowPath(workflowID, "start"), nil, &result)
	return result, err
}

func (c *Client) SetPlan(ctx context.Context, workflowID string, submission domain.PlanSubmission) (domain.PlanSummary, error) {
	var summary domain.PlanSummary
	err := c.do(ctx, http.MethodPost, c.workflowPath(workflowID, "plan"), submission, &summary)
	return summary, err
}

// Blocker resolution surface, each call scoped to the blocked step.

func (c *Client) RetryStep(ctx context.Context, workflowID, stepID string) error {
	return c.do(ctx, http.MethodPost, c.stepPath(workflowID, stepID, "retry"), nil, nil)
}

func (c *Client) SkipStep(ctx context.Context, workflowID, stepID string, cascadeIDs []string) error {
	body := map[string][]string{"cascade_ids": cascadeIDs}
	return c.do(ctx, http.MethodPost, c.stepPath(workflowID, stepID, "skip"), body, nil)
}

func (c *Client) ApplyFix(ctx context.Context, workflowID, stepID, instruction string) error {
	body := map[string]string{"instruction": instruction}
	return c.do(ctx, http.MethodPost, c.stepPath(workflowID, stepID, "fix"), body, nil)
}

func (c *Client) AbortWorkflow(ctx context.Context, workflowID string, revertBatch bool) error {
	body := map[string]bool{"revert_batch": revertBatch}
	return c.do(ctx, http.MethodPost, c.workflowPath(workflowID, "abort"), body, nil)
}

func (c *Client) workflowPath(workflowID string, parts ...string) string {
	segments := append([]string{"api", "workflows", workflowID}, parts...)
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(segments, "/")
}

func (c *Client) stepPath(workflowID, stepID string, action string) string {
	return c.workflowPath(workflowID, "steps", stepID, action)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Status:  resp.StatusCode,
			Message: readErrorMessage(resp),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readErrorMessage(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return resp.Status
	}

	var wire struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &wire) == nil {
		if wire.Error != "" {
			return wire.Error
		}
		if wire.Message != "" {
			return wire.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
