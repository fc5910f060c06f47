package agentos

// Session is one persisted conversation known to the client. The backend
// assigns the id; the name is the first user message of the run that created
// it, used as a display label.
type Session struct {
	SessionID   string `json:"session_id"`
	SessionName string `json:"session_name"`
	CreatedAt   int64  `json:"created_at"`
}

// sessionRegistry tracks the sessions observed during this client's lifetime,
// in creation order. Guarded by the owning client's mutex.
type sessionRegistry struct {
	order []Session
	known map[string]struct{}
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{known: make(map[string]struct{})}
}

// add records a session if its id has not been seen. It reports whether the
// session was newly created.
func (r *sessionRegistry) add(s Session) bool {
	if _, ok := r.known[s.SessionID]; ok {
		return false
	}
	r.known[s.SessionID] = struct{}{}
	r.order = append(r.order, s)
	return true
}

// remove retracts a session by id. Used to roll back a speculative session
// when the run that introduced it fails.
func (r *sessionRegistry) remove(id string) {
	if _, ok := r.known[id]; !ok {
		return
	}
	delete(r.known, id)
	for i, s := range r.order {
		if s.SessionID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// has reports whether a session id is known.
func (r *sessionRegistry) has(id string) bool {
	_, ok := r.known[id]
	return ok
}

// all returns a snapshot in creation order.
func (r *sessionRegistry) all() []Session {
	return append([]Session(nil), r.order...)
}
