package agentos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bazelment/agentos-go/protocol"
)

// Client drives runs against one AgentOS endpoint: it sequences
// send/continue cycles, owns session-id assignment, reconstructs
// conversation state from the frame stream, and enforces single-flight
// concurrency (exactly one run streaming or paused at a time).
//
// All state is owned by the client and exposed only as snapshots. Observers
// receive typed notifications through Events(); exactly one notification is
// emitted per ledger mutation.
type Client struct {
	config   ClientConfig
	endpoint string
	logger   *slog.Logger

	ledger   *Ledger
	pending  *pendingAttachments
	sessions *sessionRegistry
	state    RunState
	acc      contentAccumulator

	// activeSessionID is sent with every request; empty until the backend
	// assigns one or the caller selects a session.
	activeSessionID string

	// runSessionID is the session committed during the in-flight run, kept
	// for rollback when that run fails.
	runSessionID string

	// lastInput labels a session created by the current run.
	lastInput string

	events chan Event
	mu     sync.Mutex
}

// NewClient creates a client for the given endpoint base URL.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	config := defaultClientConfig()
	for _, opt := range opts {
		opt(&config)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config:   config,
		endpoint: strings.TrimRight(endpoint, "/"),
		logger:   logger,
		ledger:   &Ledger{},
		pending:  newPendingAttachments(),
		sessions: newSessionRegistry(),
		events:   make(chan Event, config.EventBufferSize),
	}
}

// Events returns a read-only channel of client notifications.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Messages returns an ordered snapshot of the conversation.
func (c *Client) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.All()
}

// RunState returns a snapshot of the run lifecycle state.
func (c *Client) RunState() RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Sessions returns the sessions observed during this client's lifetime.
func (c *Client) Sessions() []Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions.all()
}

// SessionID returns the active session id, empty until one is assigned.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeSessionID
}

// SetSession selects the session for subsequent sends. Rejected while a run
// is active.
func (c *Client) SetSession(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.active() {
		return ErrRunActive
	}
	c.activeSessionID = id
	return nil
}

// ClearConversation empties the ledger, the pending attachment registry and
// the active session selection. Rejected while a run is active.
func (c *Client) ClearConversation() error {
	c.mu.Lock()
	if c.state.active() {
		c.mu.Unlock()
		return ErrRunActive
	}
	c.ledger.SetAll(nil)
	c.pending.clear()
	c.activeSessionID = ""
	c.mu.Unlock()

	c.emit(MessagesUpdatedEvent{Messages: nil})
	return nil
}

// Send submits a user message and drives the resulting frame stream until
// the run completes, pauses or fails. It fails with ErrRunActive while a run
// is streaming or paused, and with ErrNoEntity when no agent or team is
// configured.
//
// If the previous turn failed, the failed agent message and its user message
// are discarded before the new turn is appended. This is the only automatic
// retry cleanup the client performs; failed requests are never re-issued.
func (c *Client) Send(ctx context.Context, input string, opts ...SendOption) error {
	sendCfg := sendConfig{}
	for _, opt := range opts {
		opt(&sendCfg)
	}

	c.mu.Lock()
	if c.config.EntityID == "" {
		c.mu.Unlock()
		return ErrNoEntity
	}
	if c.state.active() {
		c.mu.Unlock()
		return ErrRunActive
	}

	if last, ok := c.ledger.Last(); ok && last.Role == RoleAgent && last.StreamingError {
		c.ledger.RemoveLastN(2)
	}

	now := time.Now().Unix()
	c.ledger.Append(Message{Role: RoleUser, Content: input, CreatedAt: now})
	c.ledger.Append(Message{Role: RoleAgent, CreatedAt: now})

	c.acc = contentAccumulator{}
	c.state.markStreaming()
	c.runSessionID = ""
	c.lastInput = input
	sessionID := c.activeSessionID
	snapshot := c.ledger.All()
	c.mu.Unlock()

	c.emit(StreamStartedEvent{Input: input})
	c.emit(MessagesUpdatedEvent{Messages: snapshot})

	body, contentType, err := buildRunForm(input, sessionID, c.config.UserID, &sendCfg)
	if err != nil {
		return c.failRun(&TransportError{Message: "building request body", Cause: err})
	}

	return c.stream(ctx, c.runsURL(), body, contentType)
}

// ContinueRun resumes a paused run with the caller's tool results. It fails
// with ErrNotPaused when no run is paused and with ErrResumeUnsupported when
// the configured mode does not resume (a declared capability, checked before
// any network activity).
//
// Frames received after the continue fold into the existing agent message;
// no new placeholder is appended.
func (c *Client) ContinueRun(ctx context.Context, tools []protocol.ToolCall, opts ...SendOption) error {
	sendCfg := sendConfig{}
	for _, opt := range opts {
		opt(&sendCfg)
	}

	c.mu.Lock()
	if !c.state.IsPaused {
		c.mu.Unlock()
		return ErrNotPaused
	}
	if !c.config.Mode.SupportsResume() {
		c.mu.Unlock()
		return ErrResumeUnsupported
	}

	runID := c.state.PausedRunID
	sessionID := c.activeSessionID

	// Seed the content accumulator from the in-progress message so
	// cumulative re-sends spanning the pause do not duplicate.
	last, _ := c.ledger.Last()
	c.acc = contentAccumulator{last: last.Content}
	c.state.markStreaming()
	c.mu.Unlock()

	c.emit(RunResumedEvent{RunID: runID})

	body, contentType, err := buildContinueForm(tools, sessionID, c.config.UserID, &sendCfg)
	if err != nil {
		return c.failRun(&TransportError{Message: "building continue body", Cause: err})
	}

	continueURL := fmt.Sprintf("%s/%s/continue", c.runsURL(), url.PathEscape(runID))
	return c.stream(ctx, continueURL, body, contentType)
}

// LoadHistory replaces the conversation with the hydrated run history of a
// session. Not part of the live streaming path; rejected while a run is
// active.
func (c *Client) LoadHistory(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	if c.config.EntityID == "" {
		c.mu.Unlock()
		return ErrNoEntity
	}
	if c.state.active() {
		c.mu.Unlock()
		return ErrRunActive
	}
	c.mu.Unlock()

	historyURL := fmt.Sprintf("%s/%s/%s/sessions/%s/runs",
		c.endpoint, c.config.Mode.pathSegment(),
		url.PathEscape(c.config.EntityID), url.PathEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, historyURL, nil)
	if err != nil {
		return &TransportError{Message: "building history request", Cause: err}
	}
	c.authorize(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return &TransportError{Message: "history request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Message: "history request rejected", StatusCode: resp.StatusCode}
	}

	var records []RunRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return &TransportError{Message: "decoding history response", Cause: err}
	}

	messages := hydrateRuns(records)

	c.mu.Lock()
	c.ledger.SetAll(messages)
	c.pending.clear()
	c.activeSessionID = sessionID
	snapshot := c.ledger.All()
	c.mu.Unlock()

	c.emit(MessagesUpdatedEvent{Messages: snapshot})
	return nil
}

// AttachToolUI supplies an externally-computed payload (typically a rendered
// UI descriptor) for a tool call. If the tool call is already in the ledger
// the payload merges immediately; otherwise it is held pending until the
// matching tool call arrives. Either path yields the same final state.
func (c *Client) AttachToolUI(toolCallID string, payload interface{}) {
	c.mu.Lock()
	c.pending.put(toolCallID, payload)
	changed := c.pending.reconcile(c.ledger)
	var snapshot []Message
	if changed {
		snapshot = c.ledger.All()
	}
	c.mu.Unlock()

	if changed {
		c.emit(MessagesUpdatedEvent{Messages: snapshot})
	}
}

// CheckEndpoint probes the endpoint health route and records the result in
// the run state.
func (c *Client) CheckEndpoint(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return false
	}
	c.authorize(req)

	resp, err := c.httpClient().Do(req)
	active := err == nil && resp.StatusCode >= 200 && resp.StatusCode <= 299
	if resp != nil {
		resp.Body.Close()
	}

	c.mu.Lock()
	c.state.IsEndpointActive = active
	c.mu.Unlock()
	return active
}

// runsURL returns the runs endpoint for the configured entity, with the
// entity id percent-encoded.
func (c *Client) runsURL() string {
	return fmt.Sprintf("%s/%s/%s/runs",
		c.endpoint, c.config.Mode.pathSegment(), url.PathEscape(c.config.EntityID))
}

// stream posts the request and folds the response frames into the ledger
// until the stream ends.
func (c *Client) stream(ctx context.Context, target string, body *bytes.Buffer, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return c.failRun(&TransportError{Message: "building request", Cause: err})
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.setEndpointActive(false)
		return c.failRun(&TransportError{Message: "request failed", Cause: err})
	}
	defer resp.Body.Close()
	c.setEndpointActive(true)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return c.failRun(&TransportError{
			Message:    strings.TrimSpace(string(detail)),
			StatusCode: resp.StatusCode,
		})
	}

	return c.consume(resp.Body)
}

// runProgress accumulates the terminal signals observed during one stream.
type runProgress struct {
	err       error
	paused    bool
	completed bool
}

// consume reads the response body to EOF, decoding and applying frames in
// arrival order.
func (c *Client) consume(body io.Reader) error {
	dec := protocol.NewDecoder()
	var progress runProgress

	buf := make([]byte, 8192)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, frame := range dec.Feed(buf[:n]) {
				c.applyFrame(frame, &progress)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if progress.err == nil {
				progress.err = &TransportError{Message: "stream read failed", Cause: readErr}
			}
			break
		}
	}

	if err := dec.Finalize(); err != nil {
		c.logger.Warn("stream ended with undecoded data", "error", err)
	}

	switch {
	case progress.err != nil:
		return c.failRun(progress.err)
	case progress.paused:
		return nil
	case progress.completed:
		c.finishRun()
		return nil
	default:
		return c.failRun(&TransportError{Message: "stream ended before run completed"})
	}
}

// applyFrame folds one decoded frame into the ledger and handles the control
// signals it produced.
func (c *Client) applyFrame(frame protocol.Frame, progress *runProgress) {
	if frame.Err != nil {
		// A framing error is localized to one frame; later frames are intact.
		c.logger.Warn("skipping undecodable frame", "error", frame.Err)
		return
	}
	ev := frame.Event

	c.mu.Lock()
	var outcome reduceOutcome
	c.ledger.ReplaceLast(func(msg Message) Message {
		msg, outcome = reduceFrame(ev, msg, &c.acc)
		return msg
	})

	var createdSession *Session
	if outcome.sessionID != "" && !c.sessions.has(outcome.sessionID) {
		s := Session{
			SessionID:   outcome.sessionID,
			SessionName: c.lastInput,
			CreatedAt:   protocol.NormalizeTimestamp(outcome.sessionAt),
		}
		c.sessions.add(s)
		c.runSessionID = s.SessionID
		c.activeSessionID = s.SessionID
		createdSession = &s
	}

	if outcome.paused {
		progress.paused = true
		c.state.markPaused(outcome.pausedRunID, outcome.pausedTools)
	}
	if outcome.completed {
		progress.completed = true
	}
	if outcome.errored {
		progress.err = &ProtocolError{Message: outcome.errCause, RunID: ev.RunID}
	}

	mutated := outcome.mutated
	if c.pending.reconcile(c.ledger) {
		mutated = true
	}
	var snapshot []Message
	if mutated {
		snapshot = c.ledger.All()
	}
	pausedTools := outcome.pausedTools
	c.mu.Unlock()

	if createdSession != nil {
		c.emit(SessionCreatedEvent{Session: *createdSession})
	}
	if mutated {
		c.emit(MessagesUpdatedEvent{Messages: snapshot})
	}
	if outcome.paused {
		c.emit(RunPausedEvent{RunID: outcome.pausedRunID, Tools: pausedTools})
	}
}

// finishRun transitions to idle after a successful terminal frame.
func (c *Client) finishRun() {
	c.mu.Lock()
	c.state.markIdle()
	c.runSessionID = ""
	sessionID := c.activeSessionID
	c.mu.Unlock()

	c.emit(StreamCompletedEvent{SessionID: sessionID})
}

// failRun restores a consistent idle state after any terminal error: the
// in-progress agent message is flagged, a session created speculatively by
// this run is retracted, and observers are notified. Returns err for the
// caller to propagate.
func (c *Client) failRun(err error) error {
	c.mu.Lock()
	c.state.markIdle()
	c.state.ErrorMessage = err.Error()

	c.ledger.ReplaceLast(func(msg Message) Message {
		if msg.Role == RoleAgent {
			msg.StreamingError = true
		}
		return msg
	})

	if c.runSessionID != "" {
		c.sessions.remove(c.runSessionID)
		if c.activeSessionID == c.runSessionID {
			c.activeSessionID = ""
		}
		c.runSessionID = ""
	}
	snapshot := c.ledger.All()
	c.mu.Unlock()

	c.emit(MessagesUpdatedEvent{Messages: snapshot})
	c.emit(RunErrorEvent{Err: err})
	return err
}

// authorize sets the bearer token header when one is configured.
func (c *Client) authorize(req *http.Request) {
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
}

func (c *Client) httpClient() *http.Client {
	if c.config.HTTPClient != nil {
		return c.config.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) setEndpointActive(active bool) {
	c.mu.Lock()
	c.state.IsEndpointActive = active
	c.mu.Unlock()
}

// emit sends a notification without blocking; events are dropped when the
// buffer is full and no observer is draining.
func (c *Client) emit(event Event) {
	select {
	case c.events <- event:
	default:
	}
}

// buildRunForm builds the multipart body for a send request.
func buildRunForm(input, sessionID, userID string, cfg *sendConfig) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"message":    input,
		"stream":     "true",
		"session_id": sessionID,
	}
	if userID != "" {
		fields["user_id"] = userID
	}
	if err := writeForm(w, fields, cfg); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// buildContinueForm builds the multipart body for a continue request. Tool
// calls are JSON-encoded with client-local UI attachments stripped.
func buildContinueForm(tools []protocol.ToolCall, sessionID, userID string, cfg *sendConfig) (*bytes.Buffer, string, error) {
	encoded, err := json.Marshal(protocol.StripUIComponents(tools))
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"tools":      string(encoded),
		"stream":     "true",
		"session_id": sessionID,
	}
	if userID != "" {
		fields["user_id"] = userID
	}
	if err := writeForm(w, fields, cfg); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// writeForm writes standard fields plus caller-supplied extras and files.
func writeForm(w *multipart.Writer, fields map[string]string, cfg *sendConfig) error {
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return err
		}
	}
	for name, value := range cfg.fields {
		if err := w.WriteField(name, value); err != nil {
			return err
		}
	}
	for _, f := range cfg.files {
		part, err := w.CreateFormFile(f.field, f.filename)
		if err != nil {
			return err
		}
		if _, err := part.Write(f.data); err != nil {
			return err
		}
	}
	return nil
}
