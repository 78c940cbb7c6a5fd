package mcp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileDisablesMCP(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "mcp.json"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(cfg.Servers) != 0 {
		t.Errorf("expected no servers, got %d", len(cfg.Servers))
	}
}

func TestLoadConfigParsesMcpServersKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.json")
	contents := `{
		"mcpServers": {
			"time-server": {
				"command": "time-mcp",
				"args": ["--utc"],
				"env": {"TZ": "UTC"},
				"requires_approval": true
			}
		}
	}`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	server, ok := cfg.Servers["time-server"]
	if !ok {
		t.Fatal("expected time-server to be configured")
	}
	if server.Command != "time-mcp" {
		t.Errorf("Command = %q, want time-mcp", server.Command)
	}
	if !server.RequiresApproval {
		t.Error("expected RequiresApproval to be true")
	}
	if server.Env["TZ"] != "UTC" {
		t.Errorf("Env[TZ] = %q, want UTC", server.Env["TZ"])
	}
}
