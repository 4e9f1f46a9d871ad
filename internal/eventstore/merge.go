// SPDX-License-Identifier: Apache-2.0

package eventstore

import "github.com/flowdeck/console/internal/domain"

// Merge reconciles the statically loaded history of a workflow with its
// live tail. The result is initial followed by every live event whose id
// is not already present in initial, both halves in their original order.
// Live events may have been appended before the initial batch finished
// loading; this keeps history ahead of the tail without showing an id
// twice. Pure function, independent of any store.
func Merge(initial, live []domain.WorkflowEvent) []domain.WorkflowEvent {
	if len(live) == 0 {
		return initial
	}

	seen := make(map[string]struct{}, len(initial))
	for _, event := range initial {
		seen[event.ID] = struct{}{}
	}

	merged := make([]domain.WorkflowEvent, len(initial), len(initial)+len(live))
	copy(merged, initial)
	for _, event := range live {
		if _, dup := seen[event.ID]; dup {
			continue
		}
		merged = append(merged, event)
	}
	return merged
}
