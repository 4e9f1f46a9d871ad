// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"encoding/json"
	"fmt"
)

type PlanKind string

const (
	// PlanKindBatches is an ordered list of batches of ordered steps,
	// with progress tracked by the workflow's batch cursor.
	PlanKindBatches PlanKind = "batches"
	// PlanKindTasks is a task DAG with explicit dependency ids.
	PlanKindTasks PlanKind = "tasks"
)

// Plan is the tagged union of the two plan shapes the orchestrator emits.
// Consumers dispatch on Kind; they never duck-type on field presence.
type Plan struct {
	Kind    PlanKind       `json:"kind"`
	Batches *ExecutionPlan `json:"batch_plan,omitempty"`
	Tasks   []Task         `json:"tasks,omitempty"`
}

// UnmarshalJSON validates the discriminant so a malformed payload fails at
// the boundary instead of being misread downstream.
func (p *Plan) UnmarshalJSON(data []byte) error {
	type alias Plan
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case PlanKindBatches, PlanKindTasks:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPlanKind, raw.Kind)
	}
	*p = Plan(raw)
	return nil
}

type ExecutionPlan struct {
	Goal                  string  `json:"goal"`
	Batches               []Batch `json:"batches"`
	TotalEstimatedMinutes int     `json:"total_estimated_minutes"`
	TDDApproach           string  `json:"tdd_approach,omitempty"`
}

type Batch struct {
	BatchNumber int    `json:"batch_number"`
	Description string `json:"description"`
	RiskSummary string `json:"risk_summary,omitempty"`
	Steps       []Step `json:"steps"`
}

type Step struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	ActionType  string `json:"action_type"`
}

// Validate checks the batch-plan invariants: batch numbers are 1-based and
// strictly increasing, and step ids are unique across the whole plan.
func (p *ExecutionPlan) Validate() error {
	prev := 0
	seen := make(map[string]struct{})
	for _, batch := range p.Batches {
		if batch.BatchNumber <= prev {
			return fmt.Errorf("%w: batch_number %d after %d", ErrInvalidPlan, batch.BatchNumber, prev)
		}
		prev = batch.BatchNumber
		for _, step := range batch.Steps {
			if _, dup := seen[step.ID]; dup {
				return fmt.Errorf("%w: duplicate step id %q", ErrInvalidPlan, step.ID)
			}
			seen[step.ID] = struct{}{}
		}
	}
	return nil
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

type Task struct {
	ID           string     `json:"id"`
	Agent        string     `json:"agent"`
	Description  string     `json:"description"`
	Status       TaskStatus `json:"status"`
	Dependencies []string   `json:"dependencies,omitempty"`
}
