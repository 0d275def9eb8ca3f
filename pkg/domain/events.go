package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStep         EventType = "step"
	EventAction       EventType = "action"
	EventActionReturn EventType = "action_return"
	EventReply        EventType = "reply"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent is emitted for each path token consumed.
type StepEvent struct {
	EventBase
	NodeID string `json:"node_id"`
	Next   string `json:"next"`
}

// ActionEvent is emitted around handler invocations.
type ActionEvent struct {
	EventBase
	Handler  string        `json:"handler"`
	Kind     string        `json:"kind"`
	Duration time.Duration `json:"duration,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
}

// ReplyEvent is emitted once per request with the classified outcome.
type ReplyEvent struct {
	EventBase
	Outcome string `json:"outcome"`
}

// Reply outcomes.
const (
	OutcomeScreen  = "screen"
	OutcomeAction  = "action"
	OutcomeInvalid = "invalid"
	OutcomeFailure = "failure"
)

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStep         func(context.Context, *StepEvent)
	OnAction       func(context.Context, *ActionEvent)
	OnActionReturn func(context.Context, *ActionEvent)
	OnReply        func(context.Context, *ReplyEvent)
}
