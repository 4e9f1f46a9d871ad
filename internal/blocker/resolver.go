// SPDX-License-Identifier: Apache-2.0

// Package blocker drives the resolution protocol for a halted workflow.
// Each open BlockerReport gets one Session, a small state machine:
//
//	Reported -> {Retrying, Skipping, ApplyingFix, ConfirmingAbort} -> Resolved
//
// A failed dispatch returns the machine to Reported with the error kept
// inline, so the user can retry or pick a different path. Closing a
// session is not resolution; the blocker stays open on the orchestrator.
package blocker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/flowdeck/console/internal/domain"
	"github.com/flowdeck/console/internal/metrics"
)

type State string

const (
	StateReported        State = "reported"
	StateRetrying        State = "retrying"
	StateSkipping        State = "skipping"
	StateApplyingFix     State = "applying_fix"
	StateConfirmingAbort State = "confirming_abort"
	StateResolved        State = "resolved"
)

// ResolutionAPI is the orchestrator surface a session dispatches to.
// All calls are scoped to the blocked step.
type ResolutionAPI interface {
	RetryStep(ctx context.Context, workflowID, stepID string) error
	SkipStep(ctx context.Context, workflowID, stepID string, cascadeIDs []string) error
	ApplyFix(ctx context.Context, workflowID, stepID, instruction string) error
	AbortWorkflow(ctx context.Context, workflowID string, revertBatch bool) error
}

// Session binds one BlockerReport to the resolution machine.
type Session struct {
	mu          sync.Mutex
	workflowID  string
	report      domain.BlockerReport
	cascade     []string
	state       State
	lastError   string
	armedRevert *bool
	api         ResolutionAPI
}

func NewSession(workflowID string, report domain.BlockerReport, cascade []string, api ResolutionAPI) *Session {
	return &Session{
		workflowID: workflowID,
		report:     report,
		cascade:    append([]string(nil), cascade...),
		state:      StateReported,
		api:        api,
	}
}

func (s *Session) WorkflowID() string {
	return s.workflowID
}

func (s *Session) Report() domain.BlockerReport {
	return s.report
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError is the inline error from the most recent failed dispatch,
// empty when the last attempt succeeded or none was made.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *Session) Resolved() bool {
	return s.State() == StateResolved
}

// CascadePreview returns the downstream steps that would be skipped along
// with the blocked one. present is false when there is no cascade at all;
// an absent preview and a size-zero one are observably different states.
func (s *Session) CascadePreview() (ids []string, count int, present bool) {
	if len(s.cascade) == 0 {
		return nil, 0, false
	}
	return append([]string(nil), s.cascade...), len(s.cascade), true
}

// Retry re-dispatches the blocked step as-is. Repeated calls are allowed;
// debouncing is the caller's concern.
func (s *Session) Retry(ctx context.Context) error {
	return s.resolve(ctx, StateRetrying, "retry", func(ctx context.Context) error {
		return s.api.RetryStep(ctx, s.workflowID, s.report.StepID)
	})
}

// Skip skips the blocked step together with the session's cascade set.
func (s *Session) Skip(ctx context.Context) error {
	return s.resolve(ctx, StateSkipping, "skip", func(ctx context.Context) error {
		return s.api.SkipStep(ctx, s.workflowID, s.report.StepID, s.cascade)
	})
}

// ApplyFix dispatches a free-text fix instruction. Empty or whitespace-only
// instructions are rejected before any state change; the text is passed
// through exactly as entered.
func (s *Session) ApplyFix(ctx context.Context, instruction string) error {
	if strings.TrimSpace(instruction) == "" {
		return domain.ErrEmptyFixInstruction
	}
	return s.resolve(ctx, StateApplyingFix, "apply_fix", func(ctx context.Context) error {
		return s.api.ApplyFix(ctx, s.workflowID, s.report.StepID, instruction)
	})
}

// ArmAbort stages one of the two abort sub-resolutions: revert=false keeps
// changes, revert=true reverts the batch. Nothing is dispatched until
// ConfirmAbort; each sub-resolution needs its own arming.
func (s *Session) ArmAbort(revertBatch bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateResolved {
		return domain.ErrBlockerResolved
	}
	revert := revertBatch
	s.armedRevert = &revert
	s.state = StateConfirmingAbort
	return nil
}

// DisarmAbort backs out of the confirmation step.
func (s *Session) DisarmAbort() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateConfirmingAbort {
		s.armedRevert = nil
		s.state = StateReported
	}
}

// ConfirmAbort dispatches the armed abort. Without a prior ArmAbort it
// refuses; neither sub-resolution ever fires on a single call.
func (s *Session) ConfirmAbort(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateConfirmingAbort || s.armedRevert == nil {
		s.mu.Unlock()
		return domain.ErrAbortNotArmed
	}
	revert := *s.armedRevert
	s.mu.Unlock()

	return s.resolve(ctx, StateConfirmingAbort, "abort", func(ctx context.Context) error {
		return s.api.AbortWorkflow(ctx, s.workflowID, revert)
	})
}

func (s *Session) resolve(ctx context.Context, via State, path string, call func(context.Context) error) error {
	s.mu.Lock()
	if s.state == StateResolved {
		s.mu.Unlock()
		return domain.ErrBlockerResolved
	}
	s.state = via
	s.mu.Unlock()

	err := call(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// Keep the blocker context and the error; the session stays open.
		s.state = StateReported
		s.armedRevert = nil
		s.lastError = err.Error()
		return fmt.Errorf("resolve blocker for step %s: %w", s.report.StepID, err)
	}

	s.state = StateResolved
	s.armedRevert = nil
	s.lastError = ""
	metrics.IncBlockerResolution(path)
	return nil
}
