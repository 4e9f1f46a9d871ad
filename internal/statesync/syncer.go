// SPDX-License-Identifier: Apache-2.0

// Package statesync flushes the durable slice of console state to storage
// on a fixed cadence, and once more at shutdown.
package statesync

import (
	"context"
	"log/slog"
	"time"

	"github.com/flowdeck/console/internal/eventstore"
)

// StateWriter persists a console state snapshot.
type StateWriter interface {
	Save(ctx context.Context, state eventstore.PersistedState) error
}

type Deps struct {
	Store    *eventstore.Store
	Repo     StateWriter
	Logger   *slog.Logger
	Interval time.Duration
}

type Syncer struct {
	store    *eventstore.Store
	repo     StateWriter
	logger   *slog.Logger
	interval time.Duration
	last     eventstore.PersistedState
	synced   bool
}

func New(deps Deps) *Syncer {
	l := deps.Logger
	if l == nil {
		l = slog.Default()
	}

	interval := deps.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &Syncer{
		store:    deps.Store,
		repo:     deps.Repo,
		logger:   l,
		interval: interval,
	}
}

// SyncOnce writes the current snapshot if it changed since the last
// successful write. Errors are returned but never fatal: the next tick
// retries with a fresh snapshot.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	snapshot := s.store.Snapshot()
	if s.synced && snapshot == s.last {
		return nil
	}

	if err := s.repo.Save(ctx, snapshot); err != nil {
		s.logger.Error("state flush failed", "error", err)
		return err
	}

	s.last = snapshot
	s.synced = true
	s.logger.Debug("state flushed",
		"selected_workflow_id", snapshot.SelectedWorkflowID,
		"last_event_id", snapshot.LastEventID,
	)
	return nil
}

// Run flushes on a ticker until ctx is cancelled, then performs a final
// flush with a short independent deadline so shutdown never loses the
// latest cursor.
func (s *Syncer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := s.SyncOnce(flushCtx); err != nil {
				s.logger.Error("final state flush failed", "error", err)
			}
			return
		case <-ticker.C:
			_ = s.SyncOnce(ctx)
		}
	}
}
