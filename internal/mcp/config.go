package mcp

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the contents of mcp.json: a set of named stdio MCP servers.
// The top-level key is "mcpServers" to match the wire format other MCP
// clients (and the original whai) use, so a config file can be shared.
type Config struct {
	Servers map[string]ServerConfig `json:"mcpServers"`
}

// ServerConfig describes one MCP server launched over stdio.
type ServerConfig struct {
	Command          string            `json:"command"`
	Args             []string          `json:"args,omitempty"`
	Env              map[string]string `json:"env,omitempty"`
	RequiresApproval bool              `json:"requires_approval,omitempty"`
}

// LoadConfig reads mcp.json from path. A missing file is not an error: it
// means MCP support is disabled, per spec, and returns an empty Config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Servers: make(map[string]ServerConfig)}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("mcp config %s: %w", path, err)
	}
	if cfg.Servers == nil {
		cfg.Servers = make(map[string]ServerConfig)
	}
	return &cfg, nil
}

// ServerNames returns the configured server names.
func (c *Config) ServerNames() []string {
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	return names
}
