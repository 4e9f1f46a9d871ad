// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flowdeck/console/internal/domain"
)

func TestGetWorkflow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/workflows/wf-1" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(domain.WorkflowDetail{
			WorkflowID:        "wf-1",
			Status:            domain.WorkflowBlocked,
			CurrentBatchIndex: 2,
			CurrentBlocker:    &domain.BlockerReport{StepID: "s7"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	detail, err := c.GetWorkflow(context.Background(), "wf-1")
	if err != nil {
		t.Fatalf("get workflow: %v", err)
	}
	if detail.Status != domain.WorkflowBlocked || detail.CurrentBatchIndex != 2 {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if detail.CurrentBlocker == nil || detail.CurrentBlocker.StepID != "s7" {
		t.Fatalf("expected blocker in detail, got %+v", detail.CurrentBlocker)
	}
}

func TestCommandPathsAndBodies(t *testing.T) {
	type seen struct {
		method string
		path   string
		body   map[string]any
	}
	var got seen

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = seen{method: r.Method, path: r.URL.Path}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&got.body)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()

	cases := []struct {
		name     string
		call     func() error
		wantPath string
		check    func(t *testing.T)
	}{
		{
			name:     "approve",
			call:     func() error { return c.ApproveWorkflow(ctx, "wf-1") },
			wantPath: "/api/workflows/wf-1/approve",
		},
		{
			name:     "reject",
			call:     func() error { return c.RejectWorkflow(ctx, "wf-1", "too risky") },
			wantPath: "/api/workflows/wf-1/reject",
			check: func(t *testing.T) {
				if got.body["feedback"] != "too risky" {
					t.Fatalf("expected feedback in body, got %v", got.body)
				}
			},
		},
		{
			name:     "cancel",
			call:     func() error { return c.CancelWorkflow(ctx, "wf-1") },
			wantPath: "/api/workflows/wf-1/cancel",
		},
		{
			name:     "retry step",
			call:     func() error { return c.RetryStep(ctx, "wf-1", "s2") },
			wantPath: "/api/workflows/wf-1/steps/s2/retry",
		},
		{
			name:     "skip step",
			call:     func() error { return c.SkipStep(ctx, "wf-1", "s2", []string{"s3", "s4"}) },
			wantPath: "/api/workflows/wf-1/steps/s2/skip",
			check: func(t *testing.T) {
				ids, ok := got.body["cascade_ids"].([]any)
				if !ok || len(ids) != 2 {
					t.Fatalf("expected cascade ids in body, got %v", got.body)
				}
			},
		},
		{
			name:     "apply fix",
			call:     func() error { return c.ApplyFix(ctx, "wf-1", "s2", "bump the timeout") },
			wantPath: "/api/workflows/wf-1/steps/s2/fix",
			check: func(t *testing.T) {
				if got.body["instruction"] != "bump the timeout" {
					t.Fatalf("expected instruction in body, got %v", got.body)
				}
			},
		},
		{
			name:     "abort revert",
			call:     func() error { return c.AbortWorkflow(ctx, "wf-1", true) },
			wantPath: "/api/workflows/wf-1/abort",
			check: func(t *testing.T) {
				if got.body["revert_batch"] != true {
					t.Fatalf("expected revert flag, got %v", got.body)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got = seen{}
			if err := tc.call(); err != nil {
				t.Fatalf("call: %v", err)
			}
			if got.method != http.MethodPost {
				t.Fatalf("expected POST, got %s", got.method)
			}
			if got.path != tc.wantPath {
				t.Fatalf("expected path %s got %s", tc.wantPath, got.path)
			}
			if tc.check != nil {
				tc.check(t)
			}
		})
	}
}

func TestStartWorkflowDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.StartResult{WorkflowID: "wf-1", Status: domain.WorkflowRunning})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.StartWorkflow(context.Background(), "wf-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got.WorkflowID != "wf-1" || got.Status != domain.WorkflowRunning {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestSetPlanDecodesSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sub domain.PlanSubmission
		_ = json.NewDecoder(r.Body).Decode(&sub)
		if sub.PlanContent != "# plan" {
			t.Fatalf("expected plan content, got %+v", sub)
		}
		_ = json.NewEncoder(w).Encode(domain.PlanSummary{Goal: "ship", KeyFiles: []string{"main.go"}, TotalTasks: 3})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.SetPlan(context.Background(), "wf-1", domain.PlanSubmission{PlanContent: "# plan"})
	if err != nil {
		t.Fatalf("set plan: %v", err)
	}
	if got.Goal != "ship" || got.TotalTasks != 3 || len(got.KeyFiles) != 1 {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestErrorsCarryHumanReadableMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error": "workflow already running"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.ApproveWorkflow(context.Background(), "wf-1")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", apiErr.Status)
	}
	if apiErr.Message != "workflow already running" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestErrorsFallBackToRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal failure", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.CancelWorkflow(context.Background(), "wf-1")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Message != "internal failure" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}
