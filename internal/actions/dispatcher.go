// SPDX-License-Identifier: Apache-2.0

package actions

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flowdeck/console/internal/domain"
	"github.com/flowdeck/console/internal/metrics"
	"github.com/flowdeck/console/internal/notify"
)

const (
	VerbApprove = "approve"
	VerbReject  = "reject"
	VerbCancel  = "cancel"
	VerbStart   = "start"
	VerbSetPlan = "set-plan"
)

// CommandAPI is the remote command surface of the orchestrator.
type CommandAPI interface {
	ApproveWorkflow(ctx context.Context, workflowID string) error
	RejectWorkflow(ctx context.Context, workflowID, feedback string) error
	CancelWorkflow(ctx context.Context, workflowID string) error
	StartWorkflow(ctx context.Context, workflowID string) (domain.StartResult, error)
	SetPlan(ctx context.Context, workflowID string, submission domain.PlanSubmission) (domain.PlanSummary, error)
}

// Dispatcher wraps every remote command the same way: mark pending, await
// the call, notify the outcome, and always clear the pending id in a
// deferred step so it is never left dangling. There is no cancellation of
// an in-flight call; a pending action ends only when the call settles.
type Dispatcher struct {
	tracker  *Tracker
	api      CommandAPI
	notifier notify.Notifier
	logger   *slog.Logger
}

func NewDispatcher(tracker *Tracker, api CommandAPI, notifier notify.Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		tracker:  tracker,
		api:      api,
		notifier: notifier,
		logger:   logger,
	}
}

func (d *Dispatcher) Tracker() *Tracker {
	return d.tracker
}

func (d *Dispatcher) Approve(ctx context.Context, workflowID string) error {
	return d.dispatch(ctx, VerbApprove, workflowID, "workflow approved", func(ctx context.Context) error {
		return d.api.ApproveWorkflow(ctx, workflowID)
	})
}

func (d *Dispatcher) Reject(ctx context.Context, workflowID, feedback string) error {
	return d.dispatch(ctx, VerbReject, workflowID, "workflow rejected", func(ctx context.Context) error {
		return d.api.RejectWorkflow(ctx, workflowID, feedback)
	})
}

func (d *Dispatcher) Cancel(ctx context.Context, workflowID string) error {
	return d.dispatch(ctx, VerbCancel, workflowID, "workflow cancelled", func(ctx context.Context) error {
		return d.api.CancelWorkflow(ctx, workflowID)
	})
}

func (d *Dispatcher) Start(ctx context.Context, workflowID string) (domain.StartResult, error) {
	var result domain.StartResult
	err := d.dispatch(ctx, VerbStart, workflowID, "workflow started", func(ctx context.Context) error {
		var callErr error
		result, callErr = d.api.StartWorkflow(ctx, workflowID)
		return callErr
	})
	return result, err
}

func (d *Dispatcher) SetPlan(ctx context.Context, workflowID string, submission domain.PlanSubmission) (domain.PlanSummary, error) {
	var summary domain.PlanSummary
	err := d.dispatch(ctx, VerbSetPlan, workflowID, "plan updated", func(ctx context.Context) error {
		var callErr error
		summary, callErr = d.api.SetPlan(ctx, workflowID, submission)
		return callErr
	})
	return summary, err
}

func (d *Dispatcher) dispatch(ctx context.Context, verb, workflowID, successMessage string, call func(context.Context) error) error {
	id := ActionID(verb, workflowID)
	if !d.tracker.Add(id) {
		return fmt.Errorf("%w: %s", domain.ErrActionInFlight, id)
	}
	defer d.tracker.Remove(id)

	err := call(ctx)
	if err != nil {
		metrics.IncCommand(verb, "error")
		d.logger.Error("command failed", "verb", verb, "workflow_id", workflowID, "error", err)
		d.notifier.Error(fmt.Sprintf("%s %s failed: %s", verb, workflowID, err.Error()))
		return err
	}

	metrics.IncCommand(verb, "success")
	d.logger.Info("command dispatched", "verb", verb, "workflow_id", workflowID)
	d.notifier.Success(successMessage)
	return nil
}
