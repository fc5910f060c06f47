// Package protocol defines the AgentOS wire model: the run event frames
// streamed by the backend during a run, the tool call and media types they
// carry, and the incremental decoder that extracts complete frames from an
// arbitrarily chunked byte stream.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventType discriminates between run event kinds as they appear on the wire.
// Events form two parallel families: singular-entity ("RunStarted") and
// team-entity ("TeamRunStarted"). Both families are semantically identical for
// state reconstruction; use Kind to canonicalize.
type EventType string

const (
	EventRunStarted         EventType = "RunStarted"
	EventRunContent         EventType = "RunContent"
	EventRunCompleted       EventType = "RunCompleted"
	EventRunError           EventType = "RunError"
	EventRunCancelled       EventType = "RunCancelled"
	EventRunPaused          EventType = "RunPaused"
	EventRunContinued       EventType = "RunContinued"
	EventToolCallStarted    EventType = "ToolCallStarted"
	EventToolCallCompleted  EventType = "ToolCallCompleted"
	EventReasoningStarted   EventType = "ReasoningStarted"
	EventReasoningStep      EventType = "ReasoningStep"
	EventReasoningCompleted EventType = "ReasoningCompleted"
	EventMemoryUpdate       EventType = "MemoryUpdateStarted"
)

// Kind returns the canonical event type with any "Team" prefix removed, so
// "TeamRunContent" and "RunContent" reduce to the same logical event.
func (e EventType) Kind() EventType {
	return EventType(strings.TrimPrefix(string(e), "Team"))
}

// ToolCall represents one tool invocation within a run.
//
// UIComponent is a client-local attachment (an externally rendered UI
// descriptor). It never arrives on the wire and must be stripped before a
// tool call is transmitted back to the backend; see StripUIComponents.
type ToolCall struct {
	ToolArgs      map[string]interface{} `json:"tool_args,omitempty"`
	Metrics       map[string]interface{} `json:"metrics,omitempty"`
	UIComponent   interface{}            `json:"ui_component,omitempty"`
	ToolCallError *bool                  `json:"tool_call_error,omitempty"`
	ToolCallID    string                 `json:"tool_call_id,omitempty"`
	ToolName      string                 `json:"tool_name,omitempty"`
	Result        string                 `json:"result,omitempty"`
	CreatedAt     int64                  `json:"created_at,omitempty"`
}

// Identity returns the stable identity used for tool call merging. When the
// backend omits tool_call_id, a fallback identity is derived from the tool
// name and creation timestamp.
func (t ToolCall) Identity() string {
	if t.ToolCallID != "" {
		return t.ToolCallID
	}
	return fmt.Sprintf("%s:%d", t.ToolName, t.CreatedAt)
}

// IsError reports whether the tool call completed with an error.
func (t ToolCall) IsError() bool {
	return t.ToolCallError != nil && *t.ToolCallError
}

// StripUIComponents returns a copy of tools with every client-local UI
// attachment removed, suitable for transmission in a continue request.
func StripUIComponents(tools []ToolCall) []ToolCall {
	out := make([]ToolCall, len(tools))
	for i, t := range tools {
		t.UIComponent = nil
		out[i] = t
	}
	return out
}

// ReasoningStep is one entry of a reasoning trace. The engine treats steps as
// opaque beyond ordering; fields mirror the wire shape for round-tripping.
type ReasoningStep struct {
	Title      string      `json:"title,omitempty"`
	Action     string      `json:"action,omitempty"`
	Result     string      `json:"result,omitempty"`
	Reasoning  string      `json:"reasoning,omitempty"`
	Confidence interface{} `json:"confidence,omitempty"`
	NextAction string      `json:"next_action,omitempty"`
}

// Reference is a citation attached to a response.
type Reference struct {
	Query string            `json:"query,omitempty"`
	Docs  []json.RawMessage `json:"references,omitempty"`
	Time  float64           `json:"time,omitempty"`
}

// ExtraData carries the optional reasoning and reference payloads of a frame.
// Known keys only: merge rules over these fields are exhaustive.
type ExtraData struct {
	ReasoningSteps    []ReasoningStep `json:"reasoning_steps,omitempty"`
	ReasoningMessages []RecordMessage `json:"reasoning_messages,omitempty"`
	References        []Reference     `json:"references,omitempty"`
}

// Media describes an image, video or audio artifact attached to a message.
type Media struct {
	ID         string `json:"id,omitempty"`
	URL        string `json:"url,omitempty"`
	Content    string `json:"content,omitempty"`
	MimeType   string `json:"mime_type,omitempty"`
	Format     string `json:"format,omitempty"`
	Revised    string `json:"revised_prompt,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// RecordMessage is one entry of a run record's message list as returned by
// the history endpoint. Tool-role entries double as embedded tool calls.
type RecordMessage struct {
	Role          string                 `json:"role,omitempty"`
	Content       json.RawMessage        `json:"content,omitempty"`
	ToolArgs      map[string]interface{} `json:"tool_args,omitempty"`
	Metrics       map[string]interface{} `json:"metrics,omitempty"`
	ToolCallError *bool                  `json:"tool_call_error,omitempty"`
	ToolCallID    string                 `json:"tool_call_id,omitempty"`
	ToolName      string                 `json:"tool_name,omitempty"`
	CreatedAt     int64                  `json:"created_at,omitempty"`
	FromHistory   bool                   `json:"from_history,omitempty"`
}

// RunEvent is one decoded protocol frame.
//
// Content is either a JSON string or a structured object; use ContentString
// to distinguish. The three tools_requiring/awaiting lists are only populated
// on RunPaused frames.
type RunEvent struct {
	Event     EventType       `json:"event"`
	Content   json.RawMessage `json:"content,omitempty"`
	Tool      *ToolCall       `json:"tool,omitempty"`
	Tools     []ToolCall      `json:"tools,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
	RunID     string          `json:"run_id,omitempty"`
	AgentID   string          `json:"agent_id,omitempty"`
	TeamID    string          `json:"team_id,omitempty"`
	CreatedAt int64           `json:"created_at,omitempty"`
	ExtraData *ExtraData      `json:"extra_data,omitempty"`

	Images        []Media `json:"images,omitempty"`
	Videos        []Media `json:"videos,omitempty"`
	Audio         []Media `json:"audio,omitempty"`
	ResponseAudio *Media  `json:"response_audio,omitempty"`

	ToolsAwaitingExternalExecution []ToolCall `json:"tools_awaiting_external_execution,omitempty"`
	ToolsRequiringConfirmation     []ToolCall `json:"tools_requiring_confirmation,omitempty"`
	ToolsRequiringUserInput        []ToolCall `json:"tools_requiring_user_input,omitempty"`

	// ReasoningContent mirrors the content field on reasoning frames.
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// ContentString returns the frame content as a string when the wire value is
// a JSON string, and ok=false when the content is absent or structured.
func (e *RunEvent) ContentString() (string, bool) {
	if len(e.Content) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(e.Content, &s); err != nil {
		return "", false
	}
	return s, true
}

// PausedTools returns the tool list a RunPaused frame delegates to the
// caller: the first non-empty of the externally-awaited, confirmation,
// user-input and generic tool lists.
func (e *RunEvent) PausedTools() []ToolCall {
	for _, list := range [][]ToolCall{
		e.ToolsAwaitingExternalExecution,
		e.ToolsRequiringConfirmation,
		e.ToolsRequiringUserInput,
		e.Tools,
	} {
		if len(list) > 0 {
			return list
		}
	}
	return nil
}

// ParseFrame decodes one complete JSON value into a RunEvent. Both wire
// shapes are accepted: a flat object carrying the event name alongside its
// payload fields, and an envelope nesting the payload under "data".
func ParseFrame(data []byte) (*RunEvent, error) {
	var envelope struct {
		Event EventType       `json:"event"`
		Data  json.RawMessage `json:"data,omitempty"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, err
	}
	if envelope.Event == "" {
		return nil, fmt.Errorf("frame missing event field")
	}

	payload := data
	if len(envelope.Data) > 0 {
		payload = envelope.Data
	}

	var ev RunEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, err
	}
	ev.Event = envelope.Event
	return &ev, nil
}

// Timestamps outside this window are treated as corrupt and replaced with
// the current time when converted for display or session records.
var (
	minValidUnix = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxValidUnix = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
)

// NormalizeTimestamp clamps a unix-seconds value derived from a frame.
// Values outside [2000-01-01, 2100-01-01) are replaced with the current time.
func NormalizeTimestamp(sec int64) int64 {
	if sec < minValidUnix || sec >= maxValidUnix {
		return time.Now().Unix()
	}
	return sec
}
