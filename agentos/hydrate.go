package agentos

import (
	"encoding/json"
	"time"

	"github.com/bazelment/agentos-go/protocol"
)

// RunRecord is one entry of the bulk run-history response: a single user
// input and the agent response it produced, as grouped server-side.
type RunRecord struct {
	RunInput  string                   `json:"run_input,omitempty"`
	Content   json.RawMessage          `json:"content,omitempty"`
	Tools     []protocol.ToolCall      `json:"tools,omitempty"`
	Messages  []protocol.RecordMessage `json:"messages,omitempty"`
	ExtraData *protocol.ExtraData      `json:"extra_data,omitempty"`

	Images        []protocol.Media `json:"images,omitempty"`
	Videos        []protocol.Media `json:"videos,omitempty"`
	Audio         []protocol.Media `json:"audio,omitempty"`
	ResponseAudio *protocol.Media  `json:"response_audio,omitempty"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// hydrateRuns converts a run-history response into the same message shape the
// reducer would have produced live: per record, a user message (when the
// record carries one) followed by the agent message.
//
// Records without per-message timestamps get synthetic created_at values one
// second apart (user first), preserving strict chronological order within a
// turn.
func hydrateRuns(records []RunRecord) []Message {
	messages := make([]Message, 0, 2*len(records))
	base := time.Now().Unix()

	for i, rec := range records {
		userAt := rec.CreatedAt
		if userAt == 0 {
			userAt = base + int64(2*i)
		}

		if rec.RunInput != "" {
			messages = append(messages, Message{
				Role:      RoleUser,
				Content:   rec.RunInput,
				CreatedAt: userAt,
			})
		}

		agent := Message{
			Role:      RoleAgent,
			Content:   recordContent(rec.Content),
			ToolCalls: recordToolCalls(rec),
			ExtraData: rec.ExtraData,
			CreatedAt: userAt + 1,
		}
		agent.Images = rec.Images
		agent.Videos = rec.Videos
		agent.Audio = rec.Audio
		agent.ResponseAudio = rec.ResponseAudio
		messages = append(messages, agent)
	}
	return messages
}

// recordContent renders a record's response content, stringifying structured
// content deterministically.
func recordContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return structuredBlock(raw)
}

// recordToolCalls builds the agent message's tool list from the record's
// direct tool list plus tool-role entries embedded in its message and
// reasoning-message lists, in that order, without duplication by identity.
// The direct list carries the final execution state and wins conflicts.
func recordToolCalls(rec RunRecord) []protocol.ToolCall {
	out := append([]protocol.ToolCall(nil), rec.Tools...)
	seen := make(map[string]struct{}, len(out))
	for _, t := range out {
		seen[t.Identity()] = struct{}{}
	}

	embedded := rec.Messages
	if rec.ExtraData != nil {
		embedded = append(append([]protocol.RecordMessage(nil), embedded...), rec.ExtraData.ReasoningMessages...)
	}
	for _, m := range embedded {
		if m.Role != "tool" {
			continue
		}
		tc := protocol.ToolCall{
			ToolCallID:    m.ToolCallID,
			ToolName:      m.ToolName,
			ToolArgs:      m.ToolArgs,
			Result:        recordContent(m.Content),
			ToolCallError: m.ToolCallError,
			Metrics:       m.Metrics,
			CreatedAt:     m.CreatedAt,
		}
		if _, dup := seen[tc.Identity()]; dup {
			continue
		}
		seen[tc.Identity()] = struct{}{}
		out = append(out, tc)
	}
	return out
}
