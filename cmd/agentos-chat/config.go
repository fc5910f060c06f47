package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// config holds connection settings from the YAML config file. Flags override
// file values; the token additionally falls back to AGENTOS_API_KEY.
type config struct {
	Endpoint string `yaml:"endpoint"`
	AgentID  string `yaml:"agent_id"`
	TeamID   string `yaml:"team_id"`
	Token    string `yaml:"token"`
	UserID   string `yaml:"user_id"`
}

// loadConfig reads the config file at path, or the default location when
// path is empty. A missing default file is not an error.
func loadConfig(path string) (*config, error) {
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return &config{}, nil
		}
		path = filepath.Join(home, ".agentos-chat.yaml")
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return &config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyFlags overlays flag and environment values onto the file config.
func (c *config) applyFlags() {
	if endpoint != "" {
		c.Endpoint = endpoint
	}
	if agentID != "" {
		c.AgentID = agentID
		c.TeamID = ""
	}
	if teamID != "" && agentID == "" {
		c.TeamID = teamID
		c.AgentID = ""
	}
	if token != "" {
		c.Token = token
	}
	if c.Token == "" {
		c.Token = os.Getenv("AGENTOS_API_KEY")
	}
	if userID != "" {
		c.UserID = userID
	}
	if c.Endpoint == "" {
		c.Endpoint = "http://localhost:7777"
	}
}
