// SPDX-License-Identifier: Apache-2.0

// Package pipeline derives a status-annotated DAG from a workflow's
// execution plan and progress cursor. Build is a pure function: no state,
// recomputed on every call, deterministic for identical input.
package pipeline

import (
	"fmt"

	"github.com/flowdeck/console/internal/domain"
)

type NodeStatus string

const (
	NodeCompleted NodeStatus = "completed"
	NodeActive    NodeStatus = "active"
	NodeBlocked   NodeStatus = "blocked"
	NodePending   NodeStatus = "pending"
)

type EdgeStatus string

const (
	EdgeCompleted EdgeStatus = "completed"
	EdgeActive    EdgeStatus = "active"
	EdgePending   EdgeStatus = "pending"
)

type Node struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Subtitle string     `json:"subtitle,omitempty"`
	Status   NodeStatus `json:"status"`
}

type Edge struct {
	From   string     `json:"from"`
	To     string     `json:"to"`
	Label  string     `json:"label,omitempty"`
	Status EdgeStatus `json:"status"`
}

type Pipeline struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// labelLimit is the node label length above which step descriptions are
// truncated. Exactly labelLimit characters pass through unmodified.
const labelLimit = 20

// Build converts the latest workflow snapshot into a pipeline graph.
// A nil result means there is nothing to visualize, not an error.
func Build(detail *domain.WorkflowDetail) *Pipeline {
	if detail == nil || detail.ExecutionPlan == nil {
		return nil
	}

	switch detail.ExecutionPlan.Kind {
	case domain.PlanKindBatches:
		if detail.ExecutionPlan.Batches == nil {
			return nil
		}
		return buildBatchPlan(detail.ExecutionPlan.Batches, detail.CurrentBatchIndex, detail.Status)
	case domain.PlanKindTasks:
		return buildTaskGraph(detail.ExecutionPlan.Tasks)
	default:
		return nil
	}
}

func buildBatchPlan(plan *domain.ExecutionPlan, currentBatchIndex int, status domain.WorkflowStatus) *Pipeline {
	p := &Pipeline{}
	lastBatchNumber := 0

	for _, batch := range plan.Batches {
		progress := batchProgress(batch.BatchNumber, currentBatchIndex, status)

		nodeStatus := NodeStatus(progress)
		if progress == EdgeActive && status == domain.WorkflowBlocked {
			nodeStatus = NodeBlocked
		}

		for i, step := range batch.Steps {
			node := Node{
				ID:       fmt.Sprintf("batch-%d-step-%s", batch.BatchNumber, step.ID),
				Label:    truncateLabel(step.Description),
				Subtitle: batch.Description,
				Status:   nodeStatus,
			}

			if i > 0 {
				// Linear chain inside the batch.
				p.Edges = append(p.Edges, Edge{
					From:   p.Nodes[len(p.Nodes)-1].ID,
					To:     node.ID,
					Status: progress,
				})
			} else if len(p.Nodes) > 0 {
				// Transition out of the previous batch; the edge carries
				// the origin batch's status, not the destination's.
				p.Edges = append(p.Edges, Edge{
					From:   p.Nodes[len(p.Nodes)-1].ID,
					To:     node.ID,
					Label:  fmt.Sprintf("Batch %d", batch.BatchNumber),
					Status: batchProgress(lastBatchNumber, currentBatchIndex, status),
				})
			}

			p.Nodes = append(p.Nodes, node)
			lastBatchNumber = batch.BatchNumber
		}
	}

	return p
}

// batchProgress derives the cursor-relative progress of a batch. Node
// statuses add the blocked override on top; edges use this value directly
// since an edge is never blocked.
func batchProgress(batchNumber, currentBatchIndex int, status domain.WorkflowStatus) EdgeStatus {
	// Once the workflow completes there is no cursor position beyond the
	// last batch; everything reads completed rather than regressing.
	if status == domain.WorkflowCompleted {
		return EdgeCompleted
	}

	switch idx := batchNumber - 1; {
	case idx < currentBatchIndex:
		return EdgeCompleted
	case idx == currentBatchIndex:
		return EdgeActive
	default:
		return EdgePending
	}
}

func buildTaskGraph(tasks []domain.Task) *Pipeline {
	p := &Pipeline{}

	present := make(map[string]struct{}, len(tasks))
	for _, task := range tasks {
		present[task.ID] = struct{}{}
	}

	for _, task := range tasks {
		p.Nodes = append(p.Nodes, Node{
			ID:       task.ID,
			Label:    task.Agent,
			Subtitle: task.Description,
			Status:   taskNodeStatus(task.Status),
		})

		for _, dep := range task.Dependencies {
			// Dangling references are dropped, never an error.
			if _, ok := present[dep]; !ok {
				continue
			}
			// Dependency edges represent already-established ordering.
			p.Edges = append(p.Edges, Edge{
				From:   dep,
				To:     task.ID,
				Status: EdgeCompleted,
			})
		}
	}

	return p
}

func taskNodeStatus(status domain.TaskStatus) NodeStatus {
	switch status {
	case domain.TaskCompleted:
		return NodeCompleted
	case domain.TaskInProgress:
		return NodeActive
	case domain.TaskFailed:
		return NodeBlocked
	default:
		return NodePending
	}
}

func truncateLabel(description string) string {
	runes := []rune(description)
	if len(runes) <= labelLimit {
		return description
	}
	return string(runes[:labelLimit]) + "…"
}
