// SPDX-License-Identifier: Apache-2.0

package domain

// PlanSubmission carries a plan to the orchestrator, either by repo path
// or inline content.
type PlanSubmission struct {
	PlanFile    string `json:"plan_file,omitempty"`
	PlanContent string `json:"plan_content,omitempty"`
}

// PlanSummary is the orchestrator's acknowledgement of a submitted plan.
type PlanSummary struct {
	Goal       string   `json:"goal"`
	KeyFiles   []string `json:"key_files"`
	TotalTasks int      `json:"total_tasks"`
}

// StartResult acknowledges a start command.
type StartResult struct {
	WorkflowID string         `json:"workflow_id"`
	Status     WorkflowStatus `json:"status"`
}
