// SPDX-License-Identifier: Apache-2.0

package blocker

import (
	"reflect"
	"testing"

	"github.com/flowdeck/console/internal/domain"
)

func TestCascadeForBatchPlan(t *testing.T) {
	detail := &domain.WorkflowDetail{
		WorkflowID:     "wf-1",
		CurrentBlocker: &domain.BlockerReport{StepID: "step-2"},
		ExecutionPlan: &domain.Plan{
			Kind: domain.PlanKindBatches,
			Batches: &domain.ExecutionPlan{
				Batches: []domain.Batch{
					{BatchNumber: 1, Steps: []domain.Step{
						{ID: "step-1"}, {ID: "step-2"}, {ID: "step-3"}, {ID: "step-4"},
					}},
					{BatchNumber: 2, Steps: []domain.Step{{ID: "step-5"}}},
				},
			},
		},
	}

	got := CascadeFor(detail)
	want := []string{"step-3", "step-4"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected cascade %v got %v", want, got)
	}
}

func TestCascadeForBatchPlanLastStepHasNoCascade(t *testing.T) {
	detail := &domain.WorkflowDetail{
		CurrentBlocker: &domain.BlockerReport{StepID: "step-2"},
		ExecutionPlan: &domain.Plan{
			Kind: domain.PlanKindBatches,
			Batches: &domain.ExecutionPlan{
				Batches: []domain.Batch{
					{BatchNumber: 1, Steps: []domain.Step{{ID: "step-1"}, {ID: "step-2"}}},
				},
			},
		},
	}

	if got := CascadeFor(detail); got != nil {
		t.Fatalf("expected no cascade for last step in batch, got %v", got)
	}
}

func TestCascadeForTaskDAGIsTransitive(t *testing.T) {
	detail := &domain.WorkflowDetail{
		CurrentBlocker: &domain.BlockerReport{StepID: "a"},
		ExecutionPlan: &domain.Plan{
			Kind: domain.PlanKindTasks,
			Tasks: []domain.Task{
				{ID: "a"},
				{ID: "b", Dependencies: []string{"a"}},
				{ID: "c", Dependencies: []string{"b"}},
				{ID: "d", Dependencies: []string{"x"}}, // unrelated
			},
		},
	}

	got := CascadeFor(detail)
	want := []string{"b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected cascade %v got %v", want, got)
	}
}

func TestCascadeForTaskDAGHandlesCycles(t *testing.T) {
	detail := &domain.WorkflowDetail{
		CurrentBlocker: &domain.BlockerReport{StepID: "a"},
		ExecutionPlan: &domain.Plan{
			Kind: domain.PlanKindTasks,
			Tasks: []domain.Task{
				{ID: "a", Dependencies: []string{"b"}},
				{ID: "b", Dependencies: []string{"a"}},
			},
		},
	}

	got := CascadeFor(detail)
	want := []string{"b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected cascade %v got %v", want, got)
	}
}

func TestCascadeForMissingInputs(t *testing.T) {
	if got := CascadeFor(nil); got != nil {
		t.Fatalf("expected nil cascade for nil detail, got %v", got)
	}
	if got := CascadeFor(&domain.WorkflowDetail{}); got != nil {
		t.Fatalf("expected nil cascade without blocker, got %v", got)
	}
	if got := CascadeFor(&domain.WorkflowDetail{
		CurrentBlocker: &domain.BlockerReport{StepID: "s"},
	}); got != nil {
		t.Fatalf("expected nil cascade without plan, got %v", got)
	}
}
