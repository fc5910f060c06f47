package agentos

import (
	"github.com/bazelment/agentos-go/protocol"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

// Message is one turn unit of the conversation. Agent messages accumulate
// content incrementally while a run streams; once the run reaches a terminal
// frame the message is immutable except for the documented late merge of
// pending UI attachments.
type Message struct {
	Role      Role                `json:"role"`
	Content   string              `json:"content"`
	ToolCalls []protocol.ToolCall `json:"tool_calls,omitempty"`
	ExtraData *protocol.ExtraData `json:"extra_data,omitempty"`

	Images        []protocol.Media `json:"images,omitempty"`
	Videos        []protocol.Media `json:"videos,omitempty"`
	Audio         []protocol.Media `json:"audio,omitempty"`
	ResponseAudio *protocol.Media  `json:"response_audio,omitempty"`

	CreatedAt      int64 `json:"created_at"`
	StreamingError bool  `json:"streaming_error,omitempty"`
}

// clone returns an independent copy of the message. Slices and the extra
// data record are copied; tool argument maps are treated as immutable
// payloads and shared.
func (m Message) clone() Message {
	out := m
	if m.ToolCalls != nil {
		out.ToolCalls = append([]protocol.ToolCall(nil), m.ToolCalls...)
	}
	if m.Images != nil {
		out.Images = append([]protocol.Media(nil), m.Images...)
	}
	if m.Videos != nil {
		out.Videos = append([]protocol.Media(nil), m.Videos...)
	}
	if m.Audio != nil {
		out.Audio = append([]protocol.Media(nil), m.Audio...)
	}
	if m.ResponseAudio != nil {
		audio := *m.ResponseAudio
		out.ResponseAudio = &audio
	}
	if m.ExtraData != nil {
		extra := protocol.ExtraData{}
		if m.ExtraData.ReasoningSteps != nil {
			extra.ReasoningSteps = append([]protocol.ReasoningStep(nil), m.ExtraData.ReasoningSteps...)
		}
		if m.ExtraData.ReasoningMessages != nil {
			extra.ReasoningMessages = append([]protocol.RecordMessage(nil), m.ExtraData.ReasoningMessages...)
		}
		if m.ExtraData.References != nil {
			extra.References = append([]protocol.Reference(nil), m.ExtraData.References...)
		}
		out.ExtraData = &extra
	}
	return out
}
