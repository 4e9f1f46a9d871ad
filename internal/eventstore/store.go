// SPDX-License-Identifier: Apache-2.0

// Package eventstore holds the live workflow event window: per-workflow
// bounded lists, the store-wide resume cursor, the UI selection, and the
// transport connection flag. Instances are constructor-built so tests and
// callers can hold isolated stores.
package eventstore

import (
	"sync"

	"github.com/flowdeck/console/internal/domain"
	"github.com/flowdeck/console/internal/metrics"
)

// EventCap bounds the retained events per workflow. Eviction is FIFO: the
// newest event is never the one dropped.
const EventCap = 500

// PersistedState is the only part of the store that survives a restart.
// Event lists are rehydrated from the initial-load channel; the live
// channel resumes from LastEventID.
type PersistedState struct {
	SelectedWorkflowID string `json:"selected_workflow_id"`
	LastEventID        string `json:"last_event_id"`
}

type Store struct {
	mu          sync.RWMutex
	events      map[string][]domain.WorkflowEvent
	selected    string
	lastEventID string
	connected   bool
	connError   string
}

func New() *Store {
	return &Store{
		events: make(map[string][]domain.WorkflowEvent),
	}
}

// AddEvent appends the event to its workflow's list in arrival order and
// advances the resume cursor. The cursor moves unconditionally, independent
// of which workflow the event belongs to. No deduplication happens here:
// loaded vs. live events come from two different channels, so the merge
// against loaded history is the reader's job (see Merge).
func (s *Store) AddEvent(event domain.WorkflowEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append(s.events[event.WorkflowID], event)
	if len(list) > EventCap {
		evicted := len(list) - EventCap
		list = list[evicted:]
		metrics.AddEventsEvicted(evicted)
	}
	s.events[event.WorkflowID] = list
	s.lastEventID = event.ID
	metrics.IncEventsIngested()
}

// Events returns a copy of the live list for one workflow, in arrival
// order. The store never re-sorts by sequence; callers needing strict
// sequence order sort explicitly.
func (s *Store) Events(workflowID string) []domain.WorkflowEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.events[workflowID]
	if len(list) == 0 {
		return nil
	}
	out := make([]domain.WorkflowEvent, len(list))
	copy(out, list)
	return out
}

// SelectWorkflow sets the UI-focused workflow id. An empty id clears the
// selection. Event data is untouched.
func (s *Store) SelectWorkflow(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
}

func (s *Store) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func (s *Store) LastEventID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastEventID
}

// SetConnected records transport status. A successful connection clears
// any stored error regardless of the message argument.
func (s *Store) SetConnected(connected bool, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = connected
	if connected {
		s.connError = ""
	} else {
		s.connError = message
	}
}

func (s *Store) Connection() (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected, s.connError
}

// Snapshot captures the durable slice of store state.
func (s *Store) Snapshot() PersistedState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return PersistedState{
		SelectedWorkflowID: s.selected,
		LastEventID:        s.lastEventID,
	}
}

// Restore seeds selection and resume cursor from a persisted snapshot.
// Called once at startup, before the live channel connects.
func (s *Store) Restore(state PersistedState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = state.SelectedWorkflowID
	s.lastEventID = state.LastEventID
}
