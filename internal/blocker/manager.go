// SPDX-License-Identifier: Apache-2.0

package blocker

import (
	"log/slog"
	"sync"

	"github.com/flowdeck/console/internal/domain"
)

// Manager keys open resolution sessions by workflow id. A workflow has at
// most one open blocker at a time, so at most one session.
type Manager struct {
	mu       sync.Mutex
	api      ResolutionAPI
	logger   *slog.Logger
	sessions map[string]*Session
}

func NewManager(api ResolutionAPI, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		api:      api,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Open returns the session for the workflow's current blocker, creating
// one when needed. An existing unresolved session for the same step is
// reused so a failed dispatch keeps its inline error across reads; a
// session left over from a different step is replaced.
func (m *Manager) Open(workflowID string, report domain.BlockerReport, cascade []string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[workflowID]; ok {
		if !existing.Resolved() && existing.Report().StepID == report.StepID {
			return existing
		}
	}

	session := NewSession(workflowID, report, cascade, m.api)
	m.sessions[workflowID] = session
	m.logger.Info("blocker session opened",
		"workflow_id", workflowID,
		"step_id", report.StepID,
		"blocker_type", report.BlockerType,
	)
	return session
}

func (m *Manager) Get(workflowID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[workflowID]
	return session, ok
}

// Close discards the session. Closing never resolves anything; the
// blocker remains open on the orchestrator side.
func (m *Manager) Close(workflowID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[workflowID]; ok {
		delete(m.sessions, workflowID)
		m.logger.Info("blocker session closed", "workflow_id", workflowID)
	}
}
