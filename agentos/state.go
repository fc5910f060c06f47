package agentos

import "github.com/bazelment/agentos-go/protocol"

// RunState describes the client's current run lifecycle. IsStreaming and
// IsPaused are mutually exclusive; PausedRunID is set iff IsPaused. At most
// one run (streaming or paused) is active per client.
type RunState struct {
	ToolsAwaitingExecution []protocol.ToolCall
	PausedRunID            string
	ErrorMessage           string
	IsStreaming            bool
	IsPaused               bool
	IsEndpointActive       bool
}

// active reports whether a run currently holds the single-flight slot.
func (s *RunState) active() bool {
	return s.IsStreaming || s.IsPaused
}

// markStreaming enters the streaming state, clearing any pause or error
// leftovers.
func (s *RunState) markStreaming() {
	s.IsStreaming = true
	s.IsPaused = false
	s.PausedRunID = ""
	s.ToolsAwaitingExecution = nil
	s.ErrorMessage = ""
}

// markPaused records a pause with the run id and delegated tool list.
func (s *RunState) markPaused(runID string, tools []protocol.ToolCall) {
	s.IsStreaming = false
	s.IsPaused = true
	s.PausedRunID = runID
	s.ToolsAwaitingExecution = tools
}

// markIdle clears streaming and pause state. Called on completion and on
// every error path so the state is always consistent afterwards.
func (s *RunState) markIdle() {
	s.IsStreaming = false
	s.IsPaused = false
	s.PausedRunID = ""
	s.ToolsAwaitingExecution = nil
}

// clone returns an independent snapshot.
func (s *RunState) clone() RunState {
	out := *s
	if s.ToolsAwaitingExecution != nil {
		out.ToolsAwaitingExecution = append([]protocol.ToolCall(nil), s.ToolsAwaitingExecution...)
	}
	return out
}
