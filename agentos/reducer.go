package agentos

import (
	"encoding/json"

	"github.com/bazelment/agentos-go/protocol"
)

// unserializableContent is the fallback rendering for structured content that
// cannot be re-serialized.
const unserializableContent = "[unserializable content]"

// contentAccumulator is the reducer-local diffing state for one run: the last
// cumulative content string received from the backend. The controller resets
// it at the start of each send and seeds it from the in-progress message on
// continue, keeping reduceFrame itself a pure function of (frame, message,
// accumulator).
type contentAccumulator struct {
	last string
}

// reduceOutcome carries the control signals a frame produced alongside the
// updated message. The reducer never acts on these itself; the controller
// owns session commitment and run state.
type reduceOutcome struct {
	sessionID   string // non-empty: session candidate observed
	sessionAt   int64
	pausedRunID string
	pausedTools []protocol.ToolCall
	errCause    string
	paused      bool
	completed   bool
	errored     bool
	mutated     bool
}

// reduceFrame folds one protocol frame into the in-progress agent message.
// Run and team event variants are equivalent; unrecognized kinds leave the
// message unchanged.
func reduceFrame(ev *protocol.RunEvent, msg Message, acc *contentAccumulator) (Message, reduceOutcome) {
	var out reduceOutcome

	switch ev.Event.Kind() {
	case protocol.EventRunStarted, protocol.EventReasoningStarted:
		if ev.SessionID != "" {
			out.sessionID = ev.SessionID
			out.sessionAt = ev.CreatedAt
		}

	case protocol.EventToolCallStarted, protocol.EventToolCallCompleted:
		if tools := frameTools(ev); len(tools) > 0 {
			msg.ToolCalls = mergeToolCalls(msg.ToolCalls, tools)
			out.mutated = true
		}

	case protocol.EventRunContent:
		msg = applyContent(ev, msg, acc)
		out.mutated = true

	case protocol.EventReasoningStep:
		if ev.ExtraData != nil && len(ev.ExtraData.ReasoningSteps) > 0 {
			extra := ensureExtraData(&msg)
			extra.ReasoningSteps = append(extra.ReasoningSteps, ev.ExtraData.ReasoningSteps...)
			out.mutated = true
		}

	case protocol.EventReasoningCompleted:
		if ev.ExtraData != nil {
			extra := ensureExtraData(&msg)
			extra.ReasoningSteps = append([]protocol.ReasoningStep(nil), ev.ExtraData.ReasoningSteps...)
			out.mutated = true
		}

	case protocol.EventRunCompleted:
		msg = applyCompleted(ev, msg)
		out.completed = true
		out.mutated = true
		if ev.SessionID != "" {
			out.sessionID = ev.SessionID
			out.sessionAt = ev.CreatedAt
		}

	case protocol.EventRunPaused:
		out.paused = true
		out.pausedRunID = ev.RunID
		out.pausedTools = ev.PausedTools()

	case protocol.EventRunError, protocol.EventRunCancelled:
		msg.StreamingError = true
		out.errored = true
		out.errCause = errorCause(ev)
		out.mutated = true
	}

	return msg, out
}

// applyContent handles a RunContent frame: cumulative content dedup, tool
// merge, and field-wise replacement of reasoning, references and media.
func applyContent(ev *protocol.RunEvent, msg Message, acc *contentAccumulator) Message {
	if text, ok := ev.ContentString(); ok {
		// Streamed content is cumulative; append only the suffix not yet
		// applied. The longest-common-prefix guard keeps trailing re-sends
		// of identical content from duplicating.
		suffix := text[commonPrefixLen(acc.last, text):]
		if suffix != "" {
			msg.Content += suffix
		}
		if len(text) > len(acc.last) {
			acc.last = text
		}
	} else if len(ev.Content) > 0 {
		msg.Content += structuredBlock(ev.Content)
	}

	if tools := frameTools(ev); len(tools) > 0 {
		msg.ToolCalls = mergeToolCalls(msg.ToolCalls, tools)
	}

	if ev.ExtraData != nil {
		extra := ensureExtraData(&msg)
		if ev.ExtraData.ReasoningSteps != nil {
			extra.ReasoningSteps = append([]protocol.ReasoningStep(nil), ev.ExtraData.ReasoningSteps...)
		}
		if ev.ExtraData.References != nil {
			extra.References = append([]protocol.Reference(nil), ev.ExtraData.References...)
		}
	}

	msg = replaceMedia(ev, msg)

	if ev.CreatedAt != 0 {
		msg.CreatedAt = ev.CreatedAt
	}
	return msg
}

// applyCompleted handles a RunCompleted frame. The frame repeats fields
// already applied during streaming; every overwrite here is idempotent.
func applyCompleted(ev *protocol.RunEvent, msg Message) Message {
	if text, ok := ev.ContentString(); ok {
		msg.Content = text
	} else if len(ev.Content) > 0 {
		msg.Content = structuredBlock(ev.Content)
	}

	if tools := frameTools(ev); len(tools) > 0 {
		msg.ToolCalls = mergeToolCalls(msg.ToolCalls, tools)
	}

	if ev.ExtraData != nil {
		extra := *ev.ExtraData
		msg.ExtraData = &extra
	}

	msg = replaceMedia(ev, msg)

	if ev.CreatedAt != 0 {
		msg.CreatedAt = ev.CreatedAt
	}
	return msg
}

// replaceMedia replaces each media field present on the frame.
func replaceMedia(ev *protocol.RunEvent, msg Message) Message {
	if ev.Images != nil {
		msg.Images = append([]protocol.Media(nil), ev.Images...)
	}
	if ev.Videos != nil {
		msg.Videos = append([]protocol.Media(nil), ev.Videos...)
	}
	if ev.Audio != nil {
		msg.Audio = append([]protocol.Media(nil), ev.Audio...)
	}
	if ev.ResponseAudio != nil {
		audio := *ev.ResponseAudio
		msg.ResponseAudio = &audio
	}
	return msg
}

// frameTools collects the tool calls a frame carries, singular field first.
func frameTools(ev *protocol.RunEvent) []protocol.ToolCall {
	var tools []protocol.ToolCall
	if ev.Tool != nil {
		tools = append(tools, *ev.Tool)
	}
	tools = append(tools, ev.Tools...)
	return tools
}

// mergeToolCalls merges incoming tool calls into existing ones by identity:
// matching entries are overwritten field-wise with the incoming fields,
// unseen entries are appended. Order of first appearance is preserved.
func mergeToolCalls(existing, incoming []protocol.ToolCall) []protocol.ToolCall {
	merged := append([]protocol.ToolCall(nil), existing...)
	index := make(map[string]int, len(merged))
	for i, t := range merged {
		index[t.Identity()] = i
	}
	for _, in := range incoming {
		i, seen := index[in.Identity()]
		if !seen {
			index[in.Identity()] = len(merged)
			merged = append(merged, in)
			continue
		}
		merged[i] = overwriteToolCall(merged[i], in)
	}
	return merged
}

// overwriteToolCall applies the fields the incoming call carries onto the
// existing entry. Absent fields keep their previous values, so a sparse
// completion frame never wipes arguments recorded at start.
func overwriteToolCall(existing, in protocol.ToolCall) protocol.ToolCall {
	if in.ToolCallID != "" {
		existing.ToolCallID = in.ToolCallID
	}
	if in.ToolName != "" {
		existing.ToolName = in.ToolName
	}
	if in.ToolArgs != nil {
		existing.ToolArgs = in.ToolArgs
	}
	if in.Result != "" {
		existing.Result = in.Result
	}
	if in.ToolCallError != nil {
		existing.ToolCallError = in.ToolCallError
	}
	if in.Metrics != nil {
		existing.Metrics = in.Metrics
	}
	if in.CreatedAt != 0 {
		existing.CreatedAt = in.CreatedAt
	}
	if in.UIComponent != nil {
		existing.UIComponent = in.UIComponent
	}
	return existing
}

// ensureExtraData returns the message's extra data record, allocating it on
// first use.
func ensureExtraData(msg *Message) *protocol.ExtraData {
	if msg.ExtraData == nil {
		msg.ExtraData = &protocol.ExtraData{}
	}
	return msg.ExtraData
}

// commonPrefixLen returns the length of the longest common prefix of a and b.
func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// structuredBlock renders non-string content as a fenced JSON block. The
// encoding is deterministic (object keys are sorted on re-serialization) and
// lossless for valid JSON; serialization failure degrades to a fixed literal.
func structuredBlock(raw json.RawMessage) string {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return unserializableContent
	}
	canonical, err := json.Marshal(v)
	if err != nil {
		return unserializableContent
	}
	return "\n```json\n" + string(canonical) + "\n```\n"
}

// errorCause renders a human-readable cause from an error or cancellation
// frame. Cancellations without explicit content use a fixed message.
func errorCause(ev *protocol.RunEvent) string {
	if text, ok := ev.ContentString(); ok && text != "" {
		return text
	}
	if ev.Event.Kind() == protocol.EventRunCancelled {
		return "run cancelled"
	}
	return "run error"
}
