// SPDX-License-Identifier: Apache-2.0

// Package ws consumes the orchestrator's live event stream and feeds the
// event store. Reconnection resumes from the store's last-seen event id;
// the backfill protocol itself is the transport's responsibility, this
// side only presents the cursor.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flowdeck/console/internal/domain"
	"github.com/flowdeck/console/internal/eventstore"
	"github.com/flowdeck/console/internal/metrics"
)

const (
	defaultBackoffBase = time.Second
	defaultBackoffMax  = 30 * time.Second
	readTimeout        = 90 * time.Second
)

// subscribeMessage opens a stream; LastEventID asks the server to backfill
// everything after the cursor.
type subscribeMessage struct {
	Type        string `json:"type"`
	LastEventID string `json:"last_event_id,omitempty"`
}

type Consumer struct {
	url         string
	store       *eventstore.Store
	logger      *slog.Logger
	dialer      *websocket.Dialer
	backoffBase time.Duration
	backoffMax  time.Duration
}

type Option func(*Consumer)

// WithBackoff overrides the reconnect backoff window, mostly for tests.
func WithBackoff(base, max time.Duration) Option {
	return func(c *Consumer) {
		c.backoffBase = base
		c.backoffMax = max
	}
}

func New(url string, store *eventstore.Store, logger *slog.Logger, opts ...Option) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		url:         url,
		store:       store,
		logger:      logger,
		dialer:      websocket.DefaultDialer,
		backoffBase: defaultBackoffBase,
		backoffMax:  defaultBackoffMax,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run keeps a connection to the event stream until ctx is cancelled.
// Connection loss is non-fatal: the status flag flips, the consumer backs
// off and redials, and ingestion continues where the cursor left off.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.backoffBase

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, err := c.connect(ctx)
		if err != nil {
			c.store.SetConnected(false, err.Error())
			c.logger.Warn("event stream connect failed", "url", c.url, "error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, c.backoffMax)
			metrics.IncStreamReconnects()
			continue
		}

		backoff = c.backoffBase
		c.store.SetConnected(true, "")
		c.logger.Info("event stream connected", "url", c.url)

		err = c.readLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.store.SetConnected(false, err.Error())
		c.logger.Warn("event stream disconnected", "error", err)
		metrics.IncStreamReconnects()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
}

func (c *Consumer) connect(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	sub := subscribeMessage{
		Type:        "subscribe",
		LastEventID: c.store.LastEventID(),
	}
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Consumer) readLoop(ctx context.Context, conn *websocket.Conn) error {
	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		var event domain.WorkflowEvent
		if err := json.Unmarshal(data, &event); err != nil {
			c.logger.Warn("dropping malformed event", "error", err)
			continue
		}
		if event.ID == "" || event.WorkflowID == "" {
			c.logger.Warn("dropping event without identity", "event_type", event.EventType)
			continue
		}

		c.store.AddEvent(event)
	}
}
