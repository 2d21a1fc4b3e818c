// Package events defines the node execution lifecycle events published by
// the runner.
package events

import (
	"time"
)

type EventType string

// Topic carries all node execution events.
const Topic = "ycnodes.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	NodeExecutionStartedEvent  EventType = "node.execution.started"
	NodeItemFailedEvent        EventType = "node.item.failed"
	NodeExecutionFinishedEvent EventType = "node.execution.finished"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id"`
	NodeType    string         `json:"node_type"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type NodeExecutionStarted struct {
	BaseEvent

	ItemCount      int  `json:"item_count"`
	ContinueOnFail bool `json:"continue_on_fail"`
}

func (e NodeExecutionStarted) GetType() EventType {
	return NodeExecutionStartedEvent
}

type NodeItemFailed struct {
	BaseEvent

	ItemIndex int    `json:"item_index"`
	Error     string `json:"error"`
	Recovered bool   `json:"recovered"` // true when continue-on-fail absorbed the failure
}

func (e NodeItemFailed) GetType() EventType {
	return NodeItemFailedEvent
}

type NodeExecutionFinished struct {
	BaseEvent

	ItemsIn  int           `json:"items_in"`
	ItemsOut int           `json:"items_out"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

func (e NodeExecutionFinished) GetType() EventType {
	return NodeExecutionFinishedEvent
}
