// SPDX-License-Identifier: Apache-2.0

// Package actions tracks in-flight remote commands for optimistic UI and
// duplicate-submission prevention, and wraps their dispatch.
package actions

import (
	"strings"
	"sync"

	"github.com/flowdeck/console/internal/metrics"
)

// ActionID builds the composite pending id for a command.
func ActionID(verb, workflowID string) string {
	return verb + "-" + workflowID
}

// Tracker is the set of pending action ids. Membership means in flight.
type Tracker struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{pending: make(map[string]struct{})}
}

// Add marks an action as in flight. Adding an id already present is a
// no-op; the return value reports whether the id was newly added.
func (t *Tracker) Add(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.pending[id]; exists {
		return false
	}
	t.pending[id] = struct{}{}
	metrics.SetPendingActions(len(t.pending))
	return true
}

// Remove clears an action; absent ids are a no-op.
func (t *Tracker) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.pending[id]; !exists {
		return
	}
	delete(t.pending, id)
	metrics.SetPendingActions(len(t.pending))
}

// Has reports whether the exact composite id is in flight. Callers that
// care about one specific verb construct the id themselves.
func (t *Tracker) Has(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, exists := t.pending[id]
	return exists
}

// IsPending reports whether any verb is in flight for the workflow: an
// action counts when its id ends with the workflow id.
func (t *Tracker) IsPending(workflowID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id := range t.pending {
		if strings.HasSuffix(id, workflowID) {
			return true
		}
	}
	return false
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}
