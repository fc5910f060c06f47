package agentos

// Ledger is the ordered message collection backing one client. All mutation
// is copy-on-write: readers receive independent snapshots and mutator
// callbacks receive (and return) message copies, so no alias into internal
// storage escapes.
//
// Ledger is not safe for concurrent use; the owning client serializes access.
type Ledger struct {
	msgs []Message
}

// Append adds a message to the end of the ledger.
func (l *Ledger) Append(msg Message) {
	l.msgs = append(l.msgs, msg.clone())
}

// ReplaceLast applies fn to a copy of the last message and stores the result.
// It returns the updated message and false when the ledger is empty.
func (l *Ledger) ReplaceLast(fn func(Message) Message) (Message, bool) {
	if len(l.msgs) == 0 {
		return Message{}, false
	}
	return l.ReplaceAt(len(l.msgs)-1, fn)
}

// ReplaceAt applies fn to a copy of the message at index i. It returns the
// updated message and false when the index is out of range.
func (l *Ledger) ReplaceAt(i int, fn func(Message) Message) (Message, bool) {
	if i < 0 || i >= len(l.msgs) {
		return Message{}, false
	}
	updated := fn(l.msgs[i].clone())
	l.msgs[i] = updated.clone()
	return updated, true
}

// RemoveLastN drops up to n messages from the end of the ledger.
func (l *Ledger) RemoveLastN(n int) {
	if n <= 0 {
		return
	}
	if n > len(l.msgs) {
		n = len(l.msgs)
	}
	l.msgs = l.msgs[:len(l.msgs)-n]
}

// SetAll replaces the ledger contents wholesale.
func (l *Ledger) SetAll(msgs []Message) {
	l.msgs = make([]Message, len(msgs))
	for i, m := range msgs {
		l.msgs[i] = m.clone()
	}
}

// All returns an ordered snapshot of every message.
func (l *Ledger) All() []Message {
	out := make([]Message, len(l.msgs))
	for i, m := range l.msgs {
		out[i] = m.clone()
	}
	return out
}

// Last returns a copy of the most recent message.
func (l *Ledger) Last() (Message, bool) {
	if len(l.msgs) == 0 {
		return Message{}, false
	}
	return l.msgs[len(l.msgs)-1].clone(), true
}

// Len returns the number of messages.
func (l *Ledger) Len() int {
	return len(l.msgs)
}
