// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowdeck/console/internal/eventstore"
)

// stateSlot is the single row the console owns in ui_state. The table is
// keyed so that a future multi-profile console could add more slots without
// a schema change.
const stateSlot = "console"

type StateRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewStateRepository(pool *pgxpool.Pool, logger *slog.Logger) *StateRepository {
	return &StateRepository{
		pool:   pool,
		logger: logger,
	}
}

// Load reads the persisted console state. A missing row is not an error:
// a fresh database simply yields the zero state.
func (r *StateRepository) Load(ctx context.Context) (eventstore.PersistedState, error) {
	var state eventstore.PersistedState

	err := r.pool.QueryRow(ctx, `
		SELECT selected_workflow_id, last_event_id
		FROM ui_state
		WHERE slot=$1
	`, stateSlot).Scan(&state.SelectedWorkflowID, &state.LastEventID)

	if errors.Is(err, pgx.ErrNoRows) {
		return eventstore.PersistedState{}, nil
	}
	if err != nil {
		r.logger.Error("load ui state failed", "error", err)
		return eventstore.PersistedState{}, err
	}

	return state, nil
}

func (r *StateRepository) Save(ctx context.Context, state eventstore.PersistedState) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ui_state (slot, selected_workflow_id, last_event_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (slot) DO UPDATE
		SET selected_workflow_id = EXCLUDED.selected_workflow_id,
		    last_event_id = EXCLUDED.last_event_id,
		    updated_at = NOW()
	`, stateSlot, state.SelectedWorkflowID, state.LastEventID)

	if err != nil {
		r.logger.Error("save ui state failed",
			"selected_workflow_id", state.SelectedWorkflowID,
			"error", err,
		)
		return err
	}

	return nil
}
