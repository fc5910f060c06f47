// Command agentos-chat is an interactive terminal client for an AgentOS
// endpoint.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bazelment/agentos-go/agentos"
)

// Global flags (persistent across all commands)
var (
	configPath string
	endpoint   string
	agentID    string
	teamID     string
	token      string
	userID     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "agentos-chat",
	Short: "Interactive chat client for an AgentOS endpoint",
	Long: `Chat with an agent or team served by an AgentOS endpoint.

Connection settings come from flags, falling back to a YAML config file
(default ~/.agentos-chat.yaml) and the AGENTOS_API_KEY environment variable.`,
	RunE: runChatCmd,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.agentos-chat.yaml)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "AgentOS endpoint base URL")
	rootCmd.PersistentFlags().StringVar(&agentID, "agent", "", "Agent id to chat with")
	rootCmd.PersistentFlags().StringVar(&teamID, "team", "", "Team id to chat with (mutually exclusive with --agent)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (default $AGENTOS_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "User id sent with each run")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger honoring the verbose flag.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newClient resolves the effective settings and builds a client, or returns
// a usage error when no entity is configured.
func newClient() (*agentos.Client, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfg.applyFlags()

	opts := []agentos.ClientOption{
		agentos.WithLogger(newLogger()),
	}
	switch {
	case cfg.AgentID != "":
		opts = append(opts, agentos.WithAgent(cfg.AgentID))
	case cfg.TeamID != "":
		opts = append(opts, agentos.WithTeam(cfg.TeamID))
	}
	if cfg.Token != "" {
		opts = append(opts, agentos.WithToken(cfg.Token))
	}
	if cfg.UserID != "" {
		opts = append(opts, agentos.WithUserID(cfg.UserID))
	}

	return agentos.NewClient(cfg.Endpoint, opts...), nil
}
