// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func testFeed(capacity int) *Feed {
	return NewFeed(capacity, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFeedNewestFirst(t *testing.T) {
	f := testFeed(10)
	f.Success("first")
	f.Error("second")

	got := f.Recent(0)
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].Message != "second" || got[0].Level != LevelError {
		t.Fatalf("expected newest first, got %+v", got[0])
	}
	if got[1].Message != "first" || got[1].Level != LevelSuccess {
		t.Fatalf("unexpected oldest entry %+v", got[1])
	}
	if got[0].ID == got[1].ID {
		t.Fatal("expected distinct notification ids")
	}
}

func TestFeedBounded(t *testing.T) {
	f := testFeed(3)
	for i := 0; i < 7; i++ {
		f.Success(fmt.Sprintf("msg-%d", i))
	}

	got := f.Recent(0)
	if len(got) != 3 {
		t.Fatalf("expected capacity 3, got %d", len(got))
	}
	if got[0].Message != "msg-6" || got[2].Message != "msg-4" {
		t.Fatalf("expected newest window, got %v", got)
	}
}

func TestFeedRecentLimit(t *testing.T) {
	f := testFeed(10)
	f.Success("a")
	f.Success("b")
	f.Success("c")

	got := f.Recent(2)
	if len(got) != 2 {
		t.Fatalf("expected limit respected, got %d", len(got))
	}
	if got[0].Message != "c" {
		t.Fatalf("expected newest first under limit, got %s", got[0].Message)
	}
}
