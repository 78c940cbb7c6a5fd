package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samsaffron/whai/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage MCP server configuration",
}

var mcpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured MCP servers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := mcpConfigPath()
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		cfg, err := mcp.LoadConfig(path)
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		names := cfg.ServerNames()
		if len(names) == 0 {
			fmt.Println("No MCP servers configured.")
			return nil
		}
		for _, name := range names {
			server := cfg.Servers[name]
			fmt.Printf("%s: %s %v\n", name, server.Command, server.Args)
		}
		return nil
	},
}

var mcpAddCmd = &cobra.Command{
	Use:   "add <name> -- <command> [args...]",
	Short: "Add an MCP server to mcp.json",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		command := args[1]
		serverArgs := args[2:]

		path, err := mcpConfigPath()
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		cfg, err := mcp.LoadConfig(path)
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		cfg.Servers[name] = mcp.ServerConfig{Command: command, Args: serverArgs}

		if err := writeMCPConfig(path, cfg); err != nil {
			return &exitError{code: 1, err: err}
		}
		fmt.Printf("Added MCP server %q\n", name)
		return nil
	},
}

var mcpRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove an MCP server from mcp.json",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		path, err := mcpConfigPath()
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		cfg, err := mcp.LoadConfig(path)
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		if _, ok := cfg.Servers[name]; !ok {
			return &exitError{code: 2, err: fmt.Errorf("MCP server %q not found", name)}
		}
		delete(cfg.Servers, name)

		if err := writeMCPConfig(path, cfg); err != nil {
			return &exitError{code: 1, err: err}
		}
		fmt.Printf("Removed MCP server %q\n", name)
		return nil
	},
}

func writeMCPConfig(path string, cfg *mcp.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	mcpCmd.AddCommand(mcpListCmd, mcpAddCmd, mcpRemoveCmd)
}
