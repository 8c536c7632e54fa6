package agent

import (
	"context"
	"errors"
)

type EventType string

const (
	EventToken      EventType = "token"
	EventToolCall   EventType = "tool_call"
	EventToolResult EventType = "tool_result"
	EventTodos      EventType = "todos"
	EventDone       EventType = "done"
	EventError      EventType = "error"
)

// ErrStepLimit is returned when a run needs more model steps than its
// configured ceiling.
var ErrStepLimit = errors.New("agent step limit reached")

type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

// Runner executes one user turn. The final answer is delivered as the Data
// of the EventDone event.
type Runner interface {
	Run(ctx context.Context, sessionID string, message string, emit func(Event)) error
}
