package domain

type WorkflowStatus string

const (
	WorkflowPending   WorkflowStatus = "pending"
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowBlocked   WorkflowStatus = "blocked"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
	WorkflowCancelled WorkflowStatus = "cancelled"
)

// Terminal reports whether the workflow can no longer make progress.
func (s WorkflowStatus) Terminal() bool {
	switch s {
	case WorkflowCompleted, WorkflowFailed, WorkflowCancelled:
		return true
	}
	return false
}

// WorkflowDetail is the initial-load snapshot of a workflow. The plan is
// immutable once set; CurrentBatchIndex is a 0-based cursor into the batch
// plan and is advanced only by the remote orchestrator.
type WorkflowDetail struct {
	WorkflowID        string          `json:"workflow_id"`
	Goal              string          `json:"goal,omitempty"`
	Status            WorkflowStatus  `json:"status"`
	ExecutionPlan     *Plan           `json:"execution_plan,omitempty"`
	CurrentBatchIndex int             `json:"current_batch_index"`
	CurrentBlocker    *BlockerReport  `json:"current_blocker,omitempty"`
	RecentEvents      []WorkflowEvent `json:"recent_events,omitempty"`
}
