package mcp

import (
	"context"
	"testing"
)

func TestPrefixToolNameRoundTrips(t *testing.T) {
	tests := []struct {
		server, tool string
	}{
		{"time-server", "get_current_time"},
		{"fs", "read"},
		{"my-server", "tool_with_underscores"},
	}

	for _, tt := range tests {
		prefixed := prefixToolName(tt.server, tt.tool)
		gotServer, gotTool, err := unprefixToolName(prefixed)
		if err != nil {
			t.Fatalf("unprefixToolName(%q) error = %v", prefixed, err)
		}
		if gotServer != tt.server || gotTool != tt.tool {
			t.Errorf("unprefixToolName(%q) = (%q, %q), want (%q, %q)", prefixed, gotServer, gotTool, tt.server, tt.tool)
		}
	}
}

func TestUnprefixToolNameRejectsBadFormat(t *testing.T) {
	tests := []string{
		"not_mcp_prefixed",
		"mcp_",
		"mcp_serveronly",
	}

	for _, name := range tests {
		if _, _, err := unprefixToolName(name); err == nil {
			t.Errorf("unprefixToolName(%q) expected error, got nil", name)
		}
	}
}

func TestCallToolUnknownServer(t *testing.T) {
	m := NewManager()
	_, err := m.CallTool(context.Background(), "mcp_time-server_get_current_time", nil)
	if err == nil {
		t.Fatal("expected error for unknown server")
	}
}
