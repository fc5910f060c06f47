package agentos

import "github.com/bazelment/agentos-go/protocol"

// EventType discriminates between client notification kinds.
type EventType int

const (
	// EventTypeStreamStarted fires when a send or continue begins streaming.
	EventTypeStreamStarted EventType = iota

	// EventTypeMessagesUpdated fires once per ledger mutation.
	EventTypeMessagesUpdated

	// EventTypeStreamCompleted fires when a run reaches its terminal frame.
	EventTypeStreamCompleted

	// EventTypeRunPaused fires when a run pauses for external tool execution.
	EventTypeRunPaused

	// EventTypeRunResumed fires when a paused run is continued.
	EventTypeRunResumed

	// EventTypeRunError fires when a run terminates in error.
	EventTypeRunError

	// EventTypeSessionCreated fires when the backend assigns a new session id.
	EventTypeSessionCreated
)

// Event is the interface for all client notifications.
type Event interface {
	Type() EventType
}

// StreamStartedEvent fires when a run begins streaming.
type StreamStartedEvent struct {
	Input string
}

// Type returns the event type.
func (e StreamStartedEvent) Type() EventType { return EventTypeStreamStarted }

// MessagesUpdatedEvent carries the ledger snapshot after a mutation.
type MessagesUpdatedEvent struct {
	Messages []Message
}

// Type returns the event type.
func (e MessagesUpdatedEvent) Type() EventType { return EventTypeMessagesUpdated }

// StreamCompletedEvent fires when a run completes successfully.
type StreamCompletedEvent struct {
	SessionID string
}

// Type returns the event type.
func (e StreamCompletedEvent) Type() EventType { return EventTypeStreamCompleted }

// RunPausedEvent fires when the run suspends to delegate tool execution.
type RunPausedEvent struct {
	RunID string
	Tools []protocol.ToolCall
}

// Type returns the event type.
func (e RunPausedEvent) Type() EventType { return EventTypeRunPaused }

// RunResumedEvent fires when a paused run is continued.
type RunResumedEvent struct {
	RunID string
}

// Type returns the event type.
func (e RunResumedEvent) Type() EventType { return EventTypeRunResumed }

// RunErrorEvent fires when a run terminates in error.
type RunErrorEvent struct {
	Err error
}

// Type returns the event type.
func (e RunErrorEvent) Type() EventType { return EventTypeRunError }

// SessionCreatedEvent fires when a run introduces a new session id.
type SessionCreatedEvent struct {
	Session Session
}

// Type returns the event type.
func (e SessionCreatedEvent) Type() EventType { return EventTypeSessionCreated }
