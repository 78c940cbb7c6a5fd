// Package resolve implements the small cross-cutting precedence rules and
// the command-exclusion string reconstruction spec.md's "Resolvers"
// component names: flag/role/config/fallback chains for model and
// temperature, and turning argv back into the line a shell history or tmux
// pane would show for this invocation.
package resolve

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samsaffron/whai/internal/config"
	"github.com/samsaffron/whai/internal/role"
)

// DefaultModel is the built-in fallback when no flag, role, or provider
// config names one.
const DefaultModel = "gpt-5-mini"

// Model implements the model-precedence rule: explicit flag > role's model >
// active provider's default_model > DefaultModel.
func Model(flagValue string, r *role.Role, providerCfg config.ProviderConfig) string {
	if flagValue != "" {
		return flagValue
	}
	if r != nil && r.Model != "" {
		return r.Model
	}
	if providerCfg.DefaultModel != "" {
		return providerCfg.DefaultModel
	}
	return DefaultModel
}

// Temperature implements temperature precedence: explicit flag (hasFlag)
// wins, then the role's temperature, else nil (omitted from the request).
func Temperature(hasFlag bool, flagValue float32, r *role.Role) *float32 {
	if hasFlag {
		return &flagValue
	}
	if r != nil && r.Temperature != nil {
		return r.Temperature
	}
	return nil
}

// InvocationToExclude reconstructs the command line this process was
// invoked as, the way it would appear in shell history or a tmux pane, so
// the context capture pipeline can exclude it. Mirrors the original's argv
// reconstruction: normalize argv[0] to "whai" when it plausibly names this
// binary (a full path, or an alias containing "whai"), then join the
// remaining arguments with spaces, preserving whatever quoting the shell
// already split off.
func InvocationToExclude(argv []string) string {
	if len(argv) <= 1 {
		return ""
	}

	name := commandName(argv[0])
	rest := strings.Join(argv[1:], " ")
	return name + " " + rest
}

func commandName(argv0 string) string {
	base := filepath.Base(argv0)
	if base == "whai" || strings.Contains(strings.ToLower(argv0), "whai") {
		return "whai"
	}
	return base
}

// ReadArgv returns os.Args, as a seam tests can substitute.
func ReadArgv() []string {
	return os.Args
}
