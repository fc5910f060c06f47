package agentos

import (
	"log/slog"
	"net/http"
	"time"
)

// Mode selects the entity family a client talks to. Resumability is a
// declared capability of the mode, not inferred from responses.
type Mode string

const (
	// ModeAgent targets /agents/{id}/runs endpoints.
	ModeAgent Mode = "agent"
	// ModeTeam targets /teams/{id}/runs endpoints. Team runs cannot be
	// continued after a pause.
	ModeTeam Mode = "team"
)

// SupportsResume reports whether the mode's endpoints accept continue
// requests for paused runs.
func (m Mode) SupportsResume() bool {
	return m == ModeAgent
}

// pathSegment returns the URL segment for the mode's entity family.
func (m Mode) pathSegment() string {
	if m == ModeTeam {
		return "teams"
	}
	return "agents"
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	// HTTPClient used for all requests. Defaults to a client with a
	// generous timeout suitable for long streams.
	HTTPClient *http.Client

	// Logger receives decoder warnings and request diagnostics.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// EntityID is the agent or team id, set via WithAgent or WithTeam.
	EntityID string

	// Mode selects agents or teams endpoints.
	Mode Mode

	// Token is sent as an Authorization bearer header when non-empty.
	Token string

	// UserID is an optional user identifier included in every request.
	UserID string

	// EventBufferSize is the notification channel buffer size (default: 100).
	EventBufferSize int
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*ClientConfig)

// WithAgent targets an agent entity.
func WithAgent(id string) ClientOption {
	return func(c *ClientConfig) {
		c.EntityID = id
		c.Mode = ModeAgent
	}
}

// WithTeam targets a team entity.
func WithTeam(id string) ClientOption {
	return func(c *ClientConfig) {
		c.EntityID = id
		c.Mode = ModeTeam
	}
}

// WithToken sets the bearer token for authenticated endpoints.
func WithToken(token string) ClientOption {
	return func(c *ClientConfig) {
		c.Token = token
	}
}

// WithUserID sets the user identifier sent with every request.
func WithUserID(id string) ClientOption {
	return func(c *ClientConfig) {
		c.UserID = id
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = h
	}
}

// WithLogger sets the logger for decoder and transport diagnostics.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *ClientConfig) {
		c.Logger = l
	}
}

// WithEventBufferSize sets the notification channel buffer size.
func WithEventBufferSize(n int) ClientOption {
	return func(c *ClientConfig) {
		c.EventBufferSize = n
	}
}

// defaultClientConfig returns the default configuration.
func defaultClientConfig() ClientConfig {
	return ClientConfig{
		Mode:            ModeAgent,
		EventBufferSize: 100,
		HTTPClient:      &http.Client{Timeout: 10 * time.Minute},
	}
}

// sendConfig holds per-call options for Send and ContinueRun.
type sendConfig struct {
	fields map[string]string
	files  []filePart
}

// filePart is a raw multipart file attachment supplied by the caller.
type filePart struct {
	field    string
	filename string
	data     []byte
}

// SendOption is a functional option for a single Send or ContinueRun call.
type SendOption func(*sendConfig)

// WithFormField adds an extra form field to the outbound request.
func WithFormField(name, value string) SendOption {
	return func(c *sendConfig) {
		if c.fields == nil {
			c.fields = make(map[string]string)
		}
		c.fields[name] = value
	}
}

// WithFilePart attaches a raw file or image part to the outbound request.
func WithFilePart(field, filename string, data []byte) SendOption {
	return func(c *sendConfig) {
		c.files = append(c.files, filePart{field: field, filename: filename, data: data})
	}
}
