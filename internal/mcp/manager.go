package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// InitError records one server that failed validation or connection during
// Initialize. Initialization does not abort on a single bad server; it
// collects every failure and keeps whatever servers did connect.
type InitError struct {
	Server  string
	Message string
}

// Manager owns a set of MCP clients, aggregates their tools under the
// mcp_<server>_<tool> naming convention, and routes calls by that prefix.
type Manager struct {
	mu          sync.Mutex
	clients     map[string]*Client
	initialized bool
}

func NewManager() *Manager {
	return &Manager{clients: make(map[string]*Client)}
}

// Initialize loads cfg's servers, pre-validates each, and connects. It never
// aborts on one bad server: failures are collected and returned so the
// caller can report them while continuing with whatever servers succeeded.
func (m *Manager) Initialize(ctx context.Context, cfg *Config) []InitError {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}
	m.initialized = true

	var errs []InitError
	for name, serverCfg := range cfg.Servers {
		if err := validateServerConfig(name, serverCfg); err != nil {
			errs = append(errs, InitError{Server: name, Message: err.Error()})
			continue
		}

		client := NewClient(name, serverCfg)
		if err := client.Connect(ctx); err != nil {
			errs = append(errs, InitError{Server: name, Message: err.Error()})
			continue
		}
		m.clients[name] = client
	}

	return errs
}

// AllTools re-lists tools from every connected server and returns them
// named mcp_<server>_<tool>. Unlike Initialize, a discovery failure on any
// server aborts the call with an aggregated error: a server that answered
// the handshake but can no longer list its tools is a live protocol
// failure, not a one-time startup hiccup to route around.
func (m *Manager) AllTools(ctx context.Context) ([]ToolSpec, error) {
	m.mu.Lock()
	clients := make(map[string]*Client, len(m.clients))
	for name, c := range m.clients {
		clients[name] = c
	}
	m.mu.Unlock()

	var all []ToolSpec
	var errs []string
	for name, client := range clients {
		if err := client.RefreshTools(ctx); err != nil {
			errs = append(errs, formatMCPError(name, err, "list_tools").Error())
			continue
		}
		for _, tool := range client.Tools() {
			all = append(all, ToolSpec{
				Name:        prefixToolName(name, tool.Name),
				Description: tool.Description,
				Schema:      tool.Schema,
			})
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to list MCP tools:\n%s", strings.Join(errs, "\n"))
	}
	return all, nil
}

// CallTool parses a prefixed tool name (mcp_<server>_<tool>), routes it to
// that server's client, and returns the result.
func (m *Manager) CallTool(ctx context.Context, prefixedName string, args json.RawMessage) (string, error) {
	serverName, toolName, err := unprefixToolName(prefixedName)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	client, ok := m.clients[serverName]
	m.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("MCP server %q not found", serverName)
	}

	return client.CallTool(ctx, toolName, args)
}

// Close closes every connected client.
func (m *Manager) Close() error {
	m.mu.Lock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.clients = make(map[string]*Client)
	m.mu.Unlock()

	var firstErr error
	for _, c := range clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

const mcpToolPrefix = "mcp_"

func prefixToolName(server, tool string) string {
	return mcpToolPrefix + server + "_" + tool
}

// unprefixToolName parses "mcp_<server>_<tool>" back into its parts. Server
// names must not contain underscores, so the split on the first remaining
// underscore after the mcp_ prefix is unambiguous; tool names may contain
// underscores freely.
func unprefixToolName(name string) (server, tool string, err error) {
	if !strings.HasPrefix(name, mcpToolPrefix) {
		return "", "", fmt.Errorf("invalid MCP tool name %q: must start with %q", name, mcpToolPrefix)
	}
	rest := strings.TrimPrefix(name, mcpToolPrefix)
	idx := strings.Index(rest, "_")
	if idx < 0 || idx == len(rest)-1 {
		return "", "", fmt.Errorf("invalid MCP tool name %q: expected mcp_<server>_<tool>", name)
	}
	return rest[:idx], rest[idx+1:], nil
}
