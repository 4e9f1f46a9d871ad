// SPDX-License-Identifier: Apache-2.0

// Package notify carries user-facing outcome notifications for dispatched
// commands. The feed is a bounded in-memory buffer read by the view layer;
// every notification is also logged.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier is the sink the dispatcher reports outcomes to.
type Notifier interface {
	Success(message string)
	Error(message string)
}

const DefaultFeedCapacity = 100

// Feed is a Notifier backed by a bounded most-recent-first buffer.
type Feed struct {
	mu       sync.Mutex
	capacity int
	items    []Notification
	logger   *slog.Logger
	now      func() time.Time
}

func NewFeed(capacity int, logger *slog.Logger) *Feed {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
	}
}

func (f *Feed) Success(message string) {
	f.logger.Info("command succeeded", "message", message)
	f.push(LevelSuccess, message)
}

func (f *Feed) Error(message string) {
	f.logger.Error("command failed", "message", message)
	f.push(LevelError, message)
}

func (f *Feed) push(level Level, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: f.now().UTC(),
	})
	if len(f.items) > f.capacity {
		f.items = f.items[len(f.items)-f.capacity:]
	}
}

// Recent returns up to limit notifications, newest first. limit <= 0 means
// everything retained.
func (f *Feed) Recent(limit int) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.items)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Notification, 0, n)
	for i := len(f.items) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, f.items[i])
	}
	return out
}
