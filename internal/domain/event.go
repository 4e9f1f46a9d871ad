// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"encoding/json"
	"time"
)

// WorkflowEvent is a single entry in the orchestrator's push stream.
// Identity is ID; Sequence orders events within one workflow but is
// never used for identity.
type WorkflowEvent struct {
	ID            string          `json:"id"`
	WorkflowID    string          `json:"workflow_id"`
	Sequence      int64           `json:"sequence"`
	Timestamp     time.Time       `json:"timestamp"`
	Agent         string          `json:"agent"`
	EventType     string          `json:"event_type"`
	Message       string          `json:"message"`
	Level         string          `json:"level,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	ToolName      string          `json:"tool_name,omitempty"`
	ToolInput     json.RawMessage `json:"tool_input,omitempty"`
	TraceID       string          `json:"trace_id,omitempty"`
	ParentID      string          `json:"parent_id,omitempty"`
	IsError       bool            `json:"is_error,omitempty"`
}
