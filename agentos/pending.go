package agentos

// pendingAttachments holds externally-computed UI payloads keyed by tool call
// id until the matching tool call is observed in the ledger. It resolves the
// race between callers that render a tool result out of band and protocol
// frames that have not arrived yet. Guarded by the owning client's mutex.
type pendingAttachments struct {
	payloads map[string]interface{}
}

func newPendingAttachments() *pendingAttachments {
	return &pendingAttachments{payloads: make(map[string]interface{})}
}

// put stores a payload for a tool call id not yet present in the ledger.
func (p *pendingAttachments) put(toolCallID string, payload interface{}) {
	p.payloads[toolCallID] = payload
}

// empty reports whether no payloads are outstanding.
func (p *pendingAttachments) empty() bool {
	return len(p.payloads) == 0
}

// clear drops all outstanding payloads. Invoked when the ledger is replaced
// wholesale so attachments never leak across conversations.
func (p *pendingAttachments) clear() {
	p.payloads = make(map[string]interface{})
}

// reconcile merges outstanding payloads into the ledger, scanning messages
// most recent first. All satisfiable payloads are applied in one batched
// update; satisfied entries are removed. It reports whether the ledger
// changed.
func (p *pendingAttachments) reconcile(ledger *Ledger) bool {
	if p.empty() {
		return false
	}
	changed := false
	for i := ledger.Len() - 1; i >= 0 && !p.empty(); i-- {
		ledger.ReplaceAt(i, func(msg Message) Message {
			for j, tc := range msg.ToolCalls {
				if tc.UIComponent != nil {
					continue
				}
				payload, ok := p.payloads[tc.Identity()]
				if !ok {
					continue
				}
				msg.ToolCalls[j].UIComponent = payload
				delete(p.payloads, tc.Identity())
				changed = true
			}
			return msg
		})
	}
	return changed
}
