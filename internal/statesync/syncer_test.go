// SPDX-License-Identifier: Apache-2.0

package statesync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/flowdeck/console/internal/domain"
	"github.com/flowdeck/console/internal/eventstore"
)

type fakeStateWriter struct {
	saves   []eventstore.PersistedState
	saveErr error
}

func (f *fakeStateWriter) Save(ctx context.Context, state eventstore.PersistedState) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves = append(f.saves, state)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSyncOnceWritesSnapshot(t *testing.T) {
	store := eventstore.New()
	store.SelectWorkflow("wf-1")
	store.AddEvent(domain.WorkflowEvent{ID: "e5", WorkflowID: "wf-1"})

	writer := &fakeStateWriter{}
	syncer := New(Deps{Store: store, Repo: writer, Logger: discardLogger()})

	if err := syncer.SyncOnce(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if len(writer.saves) != 1 {
		t.Fatalf("expected 1 save got %d", len(writer.saves))
	}
	saved := writer.saves[0]
	if saved.SelectedWorkflowID != "wf-1" || saved.LastEventID != "e5" {
		t.Fatalf("unexpected snapshot %+v", saved)
	}
}

func TestSyncOnceSkipsUnchangedSnapshot(t *testing.T) {
	store := eventstore.New()
	store.SelectWorkflow("wf-1")

	writer := &fakeStateWriter{}
	syncer := New(Deps{Store: store, Repo: writer, Logger: discardLogger()})

	for i := 0; i < 3; i++ {
		if err := syncer.SyncOnce(context.Background()); err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
	}
	if len(writer.saves) != 1 {
		t.Fatalf("expected 1 save for unchanged state got %d", len(writer.saves))
	}

	store.AddEvent(domain.WorkflowEvent{ID: "e1", WorkflowID: "wf-1"})
	if err := syncer.SyncOnce(context.Background()); err != nil {
		t.Fatalf("sync after change: %v", err)
	}
	if len(writer.saves) != 2 {
		t.Fatalf("expected 2 saves after cursor advance got %d", len(writer.saves))
	}
}

func TestSyncOnceRetriesAfterFailure(t *testing.T) {
	store := eventstore.New()
	store.SelectWorkflow("wf-1")

	writer := &fakeStateWriter{saveErr: errors.New("db down")}
	syncer := New(Deps{Store: store, Repo: writer, Logger: discardLogger()})

	if err := syncer.SyncOnce(context.Background()); err == nil {
		t.Fatal("expected save error")
	}

	writer.saveErr = nil
	if err := syncer.SyncOnce(context.Background()); err != nil {
		t.Fatalf("sync after recovery: %v", err)
	}
	if len(writer.saves) != 1 {
		t.Fatalf("expected save after recovery got %d", len(writer.saves))
	}
}

func TestRunFlushesOnShutdown(t *testing.T) {
	store := eventstore.New()
	store.SelectWorkflow("wf-9")

	writer := &fakeStateWriter{}
	syncer := New(Deps{
		Store:    store,
		Repo:     writer,
		Logger:   discardLogger(),
		Interval: time.Hour, // only the shutdown flush fires
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	syncer.Run(ctx)

	if len(writer.saves) != 1 {
		t.Fatalf("expected shutdown flush got %d saves", len(writer.saves))
	}
	if writer.saves[0].SelectedWorkflowID != "wf-9" {
		t.Fatalf("unexpected snapshot %+v", writer.saves[0])
	}
}
