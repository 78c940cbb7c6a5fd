package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolSpec describes a tool available from an MCP server.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Client wraps one stdio connection to an MCP server.
type Client struct {
	name    string
	config  ServerConfig
	client  *mcp.Client
	session *mcp.ClientSession
	tools   []ToolSpec
	mu      sync.RWMutex
}

func NewClient(name string, config ServerConfig) *Client {
	return &Client{name: name, config: config}
}

func (c *Client) Name() string { return c.name }

// validateServerConfig pre-checks that the server's command is runnable
// before attempting a connection: the command must resolve on PATH, and if
// the last script-like argument is an absolute path, it must exist and be a
// regular file. This mirrors the original implementation's validation step,
// which catches the common "typo'd mcp.json" case before it manifests as an
// opaque stdio connection failure.
func validateServerConfig(name string, cfg ServerConfig) error {
	if _, err := exec.LookPath(cfg.Command); err != nil {
		return fmt.Errorf("MCP server %q failed to start:\n  command not found: %s\n  check the \"command\" in mcp.json", name, cfg.Command)
	}

	for i := len(cfg.Args) - 1; i >= 0; i-- {
		arg := cfg.Args[i]
		isScripty := strings.HasSuffix(arg, ".py") || strings.HasSuffix(arg, ".js") || strings.HasSuffix(arg, ".sh")
		if !isScripty && !strings.Contains(arg, "/") && !strings.Contains(arg, "\\") {
			continue
		}
		if !filepath.IsAbs(arg) {
			break
		}
		info, err := os.Stat(arg)
		if err != nil {
			return fmt.Errorf("MCP server %q failed to start:\n  server script not found: %s\n  check the \"args\" in mcp.json", name, arg)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("MCP server %q failed to start:\n  server script path is not a file: %s", name, arg)
		}
		break
	}

	return nil
}

// Connect opens the stdio transport, performs the MCP handshake, and
// fetches the server's tool list.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return nil
	}

	c.client = mcp.NewClient(&mcp.Implementation{Name: "whai", Version: "1.0.0"}, nil)

	cmd := exec.CommandContext(ctx, c.config.Command, c.config.Args...)
	if len(c.config.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range c.config.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	transport := &mcp.CommandTransport{Command: cmd}
	session, err := c.client.Connect(ctx, transport, nil)
	if err != nil {
		return formatMCPError(c.name, err, "connection")
	}
	c.session = session

	if err := c.refreshTools(ctx); err != nil {
		c.session.Close()
		c.session = nil
		return formatMCPError(c.name, err, "list_tools")
	}

	return nil
}

// RefreshTools re-fetches the server's tool list. Safe to call after
// Connect to pick up tools a server adds or removes at runtime.
func (c *Client) RefreshTools(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return fmt.Errorf("MCP server %q is not running", c.name)
	}
	return c.refreshTools(ctx)
}

// Close closes the connection to the server.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	c.tools = nil
	return err
}

// Tools returns the tools discovered from this server.
func (c *Client) Tools() []ToolSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tools
}

func (c *Client) refreshTools(ctx context.Context) error {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return err
	}

	c.tools = make([]ToolSpec, 0, len(result.Tools))
	for _, t := range result.Tools {
		schema := make(map[string]any)
		if t.InputSchema != nil {
			if m, ok := t.InputSchema.(map[string]any); ok {
				schema = m
			}
		}
		c.tools = append(c.tools, ToolSpec{Name: t.Name, Description: t.Description, Schema: schema})
	}
	return nil
}

// CallTool invokes a tool (unprefixed name) on this server.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()

	if session == nil {
		return "", fmt.Errorf("MCP server %q is not running", c.name)
	}

	var arguments map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &arguments); err != nil {
			return "", fmt.Errorf("invalid tool arguments: %w", err)
		}
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: arguments})
	if err != nil {
		return "", formatMCPError(c.name, err, "list_tools")
	}

	if result.IsError {
		return "", fmt.Errorf("tool %s returned error: %s", name, formatContent(result.Content))
	}

	return formatContent(result.Content), nil
}

func formatContent(content []mcp.Content) string {
	var result string
	for _, c := range content {
		switch v := c.(type) {
		case *mcp.TextContent:
			result += v.Text
		default:
			if data, err := json.Marshal(c); err == nil {
				result += string(data)
			}
		}
	}
	return result
}

// formatMCPError translates a raw connection/discovery error into a message
// that names the offending server and points at mcp.json, mirroring
// known failure shapes (missing file, permission denied, a crashed
// server surfacing as a cancelled request).
func formatMCPError(serverName string, err error, context string) error {
	msg := err.Error()

	switch {
	case strings.Contains(msg, "no such file or directory"), strings.Contains(msg, "can't open file"):
		return fmt.Errorf("MCP server %q failed to start:\n  server script not found\n  check the \"command\" and \"args\" in mcp.json: %w", serverName, err)
	case strings.Contains(msg, "permission denied"):
		return fmt.Errorf("MCP server %q failed to start:\n  permission denied executing the server\n  check that the server script is executable: %w", serverName, err)
	case strings.Contains(msg, "context canceled"), strings.Contains(msg, "cancelled"):
		action := "start the server process"
		if context == "list_tools" {
			action = "communicate with the server"
		}
		return fmt.Errorf("MCP server %q failed: could not %s\n  the server may have crashed; verify it runs standalone: %w", serverName, action, err)
	default:
		return fmt.Errorf("MCP server %q failed to %s: %w\n  check mcp.json for server %q", serverName, actionVerb(context), err, serverName)
	}
}

func actionVerb(context string) string {
	if context == "list_tools" {
		return "communicate with"
	}
	return "start"
}
