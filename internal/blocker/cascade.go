// SPDX-License-Identifier: Apache-2.0

package blocker

import (
	"sort"

	"github.com/flowdeck/console/internal/domain"
)

// CascadeFor derives the cascade-skip set for a workflow's open blocker:
// the downstream steps that must also be skipped when the blocked step is.
// In a task DAG this is the transitive dependents of the blocked step. In a
// batch plan it is the steps that follow the blocked one inside its batch,
// since intra-batch steps run in order. Without a blocker or plan the
// cascade is empty.
func CascadeFor(detail *domain.WorkflowDetail) []string {
	if detail == nil || detail.CurrentBlocker == nil || detail.ExecutionPlan == nil {
		return nil
	}
	blocked := detail.CurrentBlocker.StepID

	switch detail.ExecutionPlan.Kind {
	case domain.PlanKindBatches:
		if detail.ExecutionPlan.Batches == nil {
			return nil
		}
		return batchCascade(detail.ExecutionPlan.Batches.Batches, blocked)
	case domain.PlanKindTasks:
		return taskCascade(detail.ExecutionPlan.Tasks, blocked)
	}
	return nil
}

func batchCascade(batches []domain.Batch, blocked string) []string {
	for _, batch := range batches {
		for i, step := range batch.Steps {
			if step.ID != blocked {
				continue
			}
			var ids []string
			for _, rest := range batch.Steps[i+1:] {
				ids = append(ids, rest.ID)
			}
			return ids
		}
	}
	return nil
}

func taskCascade(tasks []domain.Task, blocked string) []string {
	dependents := make(map[string][]string, len(tasks))
	for _, task := range tasks {
		for _, dep := range task.Dependencies {
			dependents[dep] = append(dependents[dep], task.ID)
		}
	}

	seen := map[string]struct{}{blocked: {}}
	queue := []string{blocked}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range dependents[id] {
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			queue = append(queue, child)
		}
	}

	delete(seen, blocked)
	if len(seen) == 0 {
		return nil
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
