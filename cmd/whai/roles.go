package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samsaffron/whai/internal/role"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List, create, edit, and inspect role files",
}

var rolesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available roles, reporting any that fail to parse",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := role.List()
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		if len(names) == 0 {
			fmt.Println("No roles found.")
			return nil
		}
		for _, name := range names {
			if _, err := role.Load(name); err != nil {
				fmt.Printf("%s (invalid: %s)\n", name, err)
				continue
			}
			fmt.Println(name)
		}
		return nil
	},
}

var rolesWhichCmd = &cobra.Command{
	Use:   "which",
	Short: "Print the role currently in effect per the precedence rule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOrBootstrapConfig()
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		fmt.Println(role.Resolve("", cfg))
		return nil
	},
}

var rolesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new role file and open it in $EDITOR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		path, err := role.Path(name)
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		if _, err := os.Stat(path); err == nil {
			return &exitError{code: 2, err: fmt.Errorf("role %q already exists: %s", name, path)}
		}

		r := &role.Role{
			Name:  name,
			Model: "gpt-5-mini",
			Body:  fmt.Sprintf("You are a helpful terminal assistant with the '%s' specialization.\nDescribe behaviors, tone, and constraints here.", name),
		}
		content, err := role.Serialize(r)
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return &exitError{code: 1, err: err}
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return &exitError{code: 1, err: err}
		}
		fmt.Printf("Created role at %s\n", path)
		return openInEditor(path)
	},
}

var rolesEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Open an existing role file in $EDITOR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		path, err := role.Path(name)
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		if _, err := os.Stat(path); err != nil {
			return &exitError{code: 2, err: fmt.Errorf("role %q not found at %s", name, path)}
		}
		return openInEditor(path)
	},
}

var rolesRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a role file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		path, err := role.Path(name)
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		if err := os.Remove(path); err != nil {
			return &exitError{code: 2, err: fmt.Errorf("role %q not found", name)}
		}
		fmt.Printf("Removed %s\n", path)
		return nil
	},
}

func openInEditor(path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	c := exec.Command(editor, path)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		return &exitError{code: 1, err: fmt.Errorf("open editor: %w", err)}
	}
	return nil
}

func init() {
	rolesCmd.AddCommand(rolesListCmd, rolesWhichCmd, rolesCreateCmd, rolesEditCmd, rolesRemoveCmd)
}
