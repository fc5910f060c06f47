package agentos

import (
	"errors"
	"fmt"
)

// Sentinel errors for usage violations. These are rejected synchronously,
// before any network activity, and leave the ledger untouched.
var (
	ErrRunActive         = errors.New("a run is already streaming or paused")
	ErrNotPaused         = errors.New("no run is paused")
	ErrResumeUnsupported = errors.New("endpoint mode does not support resuming")
	ErrNoEntity          = errors.New("no agent or team configured")
)

// ProtocolError represents a run that terminated with an error or
// cancellation frame from the backend.
type ProtocolError struct {
	Message string
	RunID   string
}

func (e *ProtocolError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("run %s failed: %s", e.RunID, e.Message)
	}
	return fmt.Sprintf("run failed: %s", e.Message)
}

// TransportError represents a network failure or a non-2xx response from the
// endpoint. It terminates the run the same way a ProtocolError does.
type TransportError struct {
	Cause      error
	Message    string
	StatusCode int
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error: %s (status %d)", e.Message, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("transport error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transport error: %s", e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
