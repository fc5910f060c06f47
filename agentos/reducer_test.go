package agentos

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/bazelment/agentos-go/protocol"
)

func contentFrame(text string) *protocol.RunEvent {
	raw, _ := json.Marshal(text)
	return &protocol.RunEvent{Event: protocol.EventRunContent, Content: raw}
}

func TestReduceContent_CumulativeResends(t *testing.T) {
	msg := Message{Role: RoleAgent}
	acc := &contentAccumulator{}

	for _, chunk := range []string{"Hel", "Hello wor", "Hello world!"} {
		msg, _ = reduceFrame(contentFrame(chunk), msg, acc)
	}

	if msg.Content != "Hello world!" {
		t.Errorf("content = %q, want %q", msg.Content, "Hello world!")
	}
}

func TestReduceContent_IdenticalResendIsNoop(t *testing.T) {
	msg := Message{Role: RoleAgent}
	acc := &contentAccumulator{}

	msg, _ = reduceFrame(contentFrame("Hello"), msg, acc)
	msg, _ = reduceFrame(contentFrame("Hello"), msg, acc)

	if msg.Content != "Hello" {
		t.Errorf("content = %q after identical re-send", msg.Content)
	}
}

func TestReduceContent_StructuredBlock(t *testing.T) {
	msg := Message{Role: RoleAgent}
	acc := &contentAccumulator{}

	ev := &protocol.RunEvent{
		Event:   protocol.EventRunContent,
		Content: json.RawMessage(`{"b":2,"a":1}`),
	}
	msg, _ = reduceFrame(ev, msg, acc)

	want := "\n```json\n" + `{"a":1,"b":2}` + "\n```\n"
	if msg.Content != want {
		t.Errorf("structured content = %q, want %q", msg.Content, want)
	}
}

func TestReduceToolMerge_Idempotent(t *testing.T) {
	msg := Message{Role: RoleAgent}
	acc := &contentAccumulator{}

	ev := &protocol.RunEvent{
		Event: protocol.EventToolCallCompleted,
		Tool: &protocol.ToolCall{
			ToolCallID: "t1",
			ToolName:   "lookup",
			Result:     "42",
		},
	}

	once, _ := reduceFrame(ev, msg, acc)
	twice, _ := reduceFrame(ev, once, acc)

	if !reflect.DeepEqual(once.ToolCalls, twice.ToolCalls) {
		t.Errorf("reapplying the same frame changed state: %+v vs %+v", once.ToolCalls, twice.ToolCalls)
	}
	if len(twice.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(twice.ToolCalls))
	}
}

func TestReduceToolMerge_SparseCompletionKeepsArgs(t *testing.T) {
	msg := Message{Role: RoleAgent}
	acc := &contentAccumulator{}

	started := &protocol.RunEvent{
		Event: protocol.EventToolCallStarted,
		Tool: &protocol.ToolCall{
			ToolCallID: "t1",
			ToolName:   "lookup",
			ToolArgs:   map[string]interface{}{"q": "answer"},
		},
	}
	completed := &protocol.RunEvent{
		Event: protocol.EventToolCallCompleted,
		Tool: &protocol.ToolCall{
			ToolCallID: "t1",
			Result:     "42",
		},
	}

	msg, _ = reduceFrame(started, msg, acc)
	msg, _ = reduceFrame(completed, msg, acc)

	tc := msg.ToolCalls[0]
	if tc.ToolName != "lookup" || tc.Result != "42" {
		t.Errorf("merged tool call: %+v", tc)
	}
	if tc.ToolArgs["q"] != "answer" {
		t.Error("completion frame wiped arguments recorded at start")
	}
}

func TestReduceToolMerge_OrderOfFirstAppearance(t *testing.T) {
	msg := Message{Role: RoleAgent}
	acc := &contentAccumulator{}

	frames := []*protocol.RunEvent{
		{Event: protocol.EventToolCallStarted, Tool: &protocol.ToolCall{ToolCallID: "a"}},
		{Event: protocol.EventToolCallStarted, Tool: &protocol.ToolCall{ToolCallID: "b"}},
		{Event: protocol.EventToolCallCompleted, Tool: &protocol.ToolCall{ToolCallID: "a", Result: "done"}},
	}
	for _, ev := range frames {
		msg, _ = reduceFrame(ev, msg, acc)
	}

	if len(msg.ToolCalls) != 2 || msg.ToolCalls[0].ToolCallID != "a" || msg.ToolCalls[1].ToolCallID != "b" {
		t.Errorf("order not preserved: %+v", msg.ToolCalls)
	}
	if msg.ToolCalls[0].Result != "done" {
		t.Error("completion did not merge into first entry")
	}
}

func TestReduceReasoning_StepAppendThenCompleteReplaces(t *testing.T) {
	msg := Message{Role: RoleAgent}
	acc := &contentAccumulator{}

	step := func(title string) *protocol.RunEvent {
		return &protocol.RunEvent{
			Event: protocol.EventReasoningStep,
			ExtraData: &protocol.ExtraData{
				ReasoningSteps: []protocol.ReasoningStep{{Title: title}},
			},
		}
	}

	msg, _ = reduceFrame(step("one"), msg, acc)
	msg, _ = reduceFrame(step("one"), msg, acc) // steps append, no merge-by-id
	msg, _ = reduceFrame(step("two"), msg, acc)

	if len(msg.ExtraData.ReasoningSteps) != 3 {
		t.Fatalf("expected 3 appended steps, got %d", len(msg.ExtraData.ReasoningSteps))
	}

	final := &protocol.RunEvent{
		Event: protocol.EventReasoningCompleted,
		ExtraData: &protocol.ExtraData{
			ReasoningSteps: []protocol.ReasoningStep{{Title: "final"}},
		},
	}
	msg, _ = reduceFrame(final, msg, acc)

	if len(msg.ExtraData.ReasoningSteps) != 1 || msg.ExtraData.ReasoningSteps[0].Title != "final" {
		t.Errorf("completed did not replace steps wholesale: %+v", msg.ExtraData.ReasoningSteps)
	}
}

func TestReduceCompleted_VerbatimAndIdempotent(t *testing.T) {
	msg := Message{Role: RoleAgent}
	acc := &contentAccumulator{}

	msg, _ = reduceFrame(contentFrame("Hello there"), msg, acc)

	raw, _ := json.Marshal("Hello there")
	completed := &protocol.RunEvent{
		Event:   protocol.EventRunCompleted,
		Content: raw,
		Tool:    &protocol.ToolCall{ToolCallID: "t1", ToolName: "lookup"},
	}

	msg, out := reduceFrame(completed, msg, acc)
	if !out.completed {
		t.Fatal("expected completed outcome")
	}
	if msg.Content != "Hello there" {
		t.Errorf("final content: %q", msg.Content)
	}

	again, _ := reduceFrame(completed, msg, acc)
	if !reflect.DeepEqual(msg, again) {
		t.Errorf("repeated RunCompleted changed the message:\n%+v\n%+v", msg, again)
	}
}

func TestReducePaused_SignalsWithoutMutation(t *testing.T) {
	msg := Message{Role: RoleAgent, Content: "partial"}
	acc := &contentAccumulator{last: "partial"}

	ev := &protocol.RunEvent{
		Event: protocol.EventRunPaused,
		RunID: "r1",
		ToolsAwaitingExternalExecution: []protocol.ToolCall{
			{ToolCallID: "t1", ToolName: "render_chart"},
		},
	}

	updated, out := reduceFrame(ev, msg, acc)
	if !out.paused || out.pausedRunID != "r1" {
		t.Fatalf("pause signal: %+v", out)
	}
	if len(out.pausedTools) != 1 || out.pausedTools[0].ToolCallID != "t1" {
		t.Errorf("paused tools: %+v", out.pausedTools)
	}
	if updated.Content != "partial" || out.mutated {
		t.Error("RunPaused must not mutate the message")
	}
}

func TestReduceError_FlagsMessage(t *testing.T) {
	msg := Message{Role: RoleAgent}
	acc := &contentAccumulator{}

	raw, _ := json.Marshal("model overloaded")
	ev := &protocol.RunEvent{Event: protocol.EventRunError, Content: raw}

	updated, out := reduceFrame(ev, msg, acc)
	if !updated.StreamingError {
		t.Error("streamingError not set")
	}
	if !out.errored || out.errCause != "model overloaded" {
		t.Errorf("error outcome: %+v", out)
	}
}

func TestReduceCancelled_FixedMessageWithoutContent(t *testing.T) {
	msg := Message{Role: RoleAgent}
	acc := &contentAccumulator{}

	_, out := reduceFrame(&protocol.RunEvent{Event: protocol.EventRunCancelled}, msg, acc)
	if out.errCause != "run cancelled" {
		t.Errorf("cause = %q", out.errCause)
	}
}

func TestReduceSessionCandidate(t *testing.T) {
	msg := Message{Role: RoleAgent}
	acc := &contentAccumulator{}

	ev := &protocol.RunEvent{
		Event:     protocol.EventRunStarted,
		SessionID: "s1",
		CreatedAt: 1709000000,
	}
	_, out := reduceFrame(ev, msg, acc)
	if out.sessionID != "s1" || out.sessionAt != 1709000000 {
		t.Errorf("session candidate: %+v", out)
	}
	if out.mutated {
		t.Error("RunStarted must not mutate the message")
	}
}

func TestReduceTeamVariantsEquivalent(t *testing.T) {
	msg := Message{Role: RoleAgent}
	acc := &contentAccumulator{}

	raw, _ := json.Marshal("hi")
	ev := &protocol.RunEvent{Event: "TeamRunContent", Content: raw}
	msg, _ = reduceFrame(ev, msg, acc)
	if msg.Content != "hi" {
		t.Errorf("team variant not reduced: %q", msg.Content)
	}
}

func TestReduceUnknownEventIgnored(t *testing.T) {
	msg := Message{Role: RoleAgent, Content: "stable"}
	acc := &contentAccumulator{}

	updated, out := reduceFrame(&protocol.RunEvent{Event: "SomeFutureEvent"}, msg, acc)
	if updated.Content != "stable" || out.mutated {
		t.Error("unknown event must leave the message unchanged")
	}
}
