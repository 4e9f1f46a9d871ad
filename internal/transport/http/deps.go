// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"context"

	"github.com/flowdeck/console/internal/blocker"
	"github.com/flowdeck/console/internal/domain"
	"github.com/flowdeck/console/internal/notify"
)

// EventView is the read/select surface of the event store.
type EventView interface {
	Events(workflowID string) []domain.WorkflowEvent
	SelectWorkflow(id string)
	Selected() string
	LastEventID() string
	Connection() (connected bool, message string)
}

// WorkflowFetcher is the initial-load channel from the orchestrator.
type WorkflowFetcher interface {
	GetWorkflow(ctx context.Context, workflowID string) (*domain.WorkflowDetail, error)
}

// Commander dispatches optimistic workflow commands.
type Commander interface {
	Approve(ctx context.Context, workflowID string) error
	Reject(ctx context.Context, workflowID, feedback string) error
	Cancel(ctx context.Context, workflowID string) error
	Start(ctx context.Context, workflowID string) (domain.StartResult, error)
	SetPlan(ctx context.Context, workflowID string, submission domain.PlanSubmission) (domain.PlanSummary, error)
}

// PendingReader reports in-flight command state.
type PendingReader interface {
	IsPending(workflowID string) bool
	Len() int
}

// BlockerSessions manages open resolution sessions.
type BlockerSessions interface {
	Open(workflowID string, report domain.BlockerReport, cascade []string) *blocker.Session
	Get(workflowID string) (*blocker.Session, bool)
	Close(workflowID string)
}

// NotificationReader exposes the recent command outcomes.
type NotificationReader interface {
	Recent(limit int) []notify.Notification
}

type HealthChecker interface {
	Check(ctx context.Context) error
}
