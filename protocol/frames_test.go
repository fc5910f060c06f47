package protocol

import (
	"testing"
	"time"
)

func TestEventTypeKind(t *testing.T) {
	if EventType("TeamRunContent").Kind() != EventRunContent {
		t.Error("TeamRunContent should canonicalize to RunContent")
	}
	if EventRunPaused.Kind() != EventRunPaused {
		t.Error("RunPaused should be unchanged")
	}
}

func TestToolCallIdentity(t *testing.T) {
	withID := ToolCall{ToolCallID: "t1", ToolName: "lookup", CreatedAt: 5}
	if withID.Identity() != "t1" {
		t.Errorf("identity: %q", withID.Identity())
	}
	noID := ToolCall{ToolName: "lookup", CreatedAt: 1709000000}
	if noID.Identity() != "lookup:1709000000" {
		t.Errorf("fallback identity: %q", noID.Identity())
	}
}

func TestStripUIComponents(t *testing.T) {
	tools := []ToolCall{
		{ToolCallID: "t1", UIComponent: map[string]interface{}{"kind": "chart"}},
		{ToolCallID: "t2"},
	}
	stripped := StripUIComponents(tools)
	if stripped[0].UIComponent != nil {
		t.Error("ui component not stripped")
	}
	if tools[0].UIComponent == nil {
		t.Error("original slice mutated")
	}
}

func TestPausedToolsPrecedence(t *testing.T) {
	ev := &RunEvent{
		Tools:                          []ToolCall{{ToolCallID: "generic"}},
		ToolsRequiringConfirmation:     []ToolCall{{ToolCallID: "confirm"}},
		ToolsAwaitingExternalExecution: []ToolCall{{ToolCallID: "external"}},
	}
	if got := ev.PausedTools(); len(got) != 1 || got[0].ToolCallID != "external" {
		t.Errorf("expected external list first, got %+v", got)
	}

	ev.ToolsAwaitingExternalExecution = nil
	if got := ev.PausedTools(); got[0].ToolCallID != "confirm" {
		t.Errorf("expected confirmation list next, got %+v", got)
	}

	ev.ToolsRequiringConfirmation = nil
	if got := ev.PausedTools(); got[0].ToolCallID != "generic" {
		t.Errorf("expected generic list last, got %+v", got)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	now := time.Now().Unix()

	if got := NormalizeTimestamp(-1); got < now {
		t.Errorf("negative timestamp not clamped: %d", got)
	}
	if got := NormalizeTimestamp(5_000_000_000); got < now || got > now+5 {
		t.Errorf("far-future timestamp not clamped to now: %d", got)
	}
	if got := NormalizeTimestamp(1709000000); got != 1709000000 {
		t.Errorf("valid timestamp altered: %d", got)
	}
}
