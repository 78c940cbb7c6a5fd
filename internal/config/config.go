// Package config loads whai's configuration file: the active provider, its
// per-provider credentials, and the default role name.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// ProviderConfig is the set of fields a single [llm.<provider>] table may carry.
// Exactly the subset relevant to a given provider type is populated; the rest
// are left zero.
type ProviderConfig struct {
	APIKey       string `mapstructure:"api_key"`
	APIBase      string `mapstructure:"api_base"`
	APIVersion   string `mapstructure:"api_version"`
	DefaultModel string `mapstructure:"default_model"`
}

// Config is the fully-resolved contents of config.toml.
type Config struct {
	DefaultProvider string
	Providers       map[string]ProviderConfig
	DefaultRole     string
}

// ErrConfigMissing is returned by Load when no config file exists and
// WHAI_TEST_MODE is unset. Callers should respond by running the interactive
// configuration wizard (out of scope for this package).
var ErrConfigMissing = fmt.Errorf("config missing")

// Dir returns the configuration directory: $XDG_CONFIG_HOME/whai on unix,
// %APPDATA%\whai on Windows.
func Dir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA is not set")
		}
		return filepath.Join(appData, "whai"), nil
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "whai"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "whai"), nil
}

// Path returns the full path to config.toml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads and validates config.toml. If the file is absent and
// WHAI_TEST_MODE is set, an ephemeral default config is returned instead of
// ErrConfigMissing, per the env vars consumed in the external interfaces.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			if os.Getenv("WHAI_TEST_MODE") != "" {
				return testModeConfig(), nil
			}
			return nil, ErrConfigMissing
		}
		return nil, statErr
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return fromViper(v)
}

// LoadFromPath loads and validates a config.toml at an explicit path,
// bypassing Dir()/Path(). Used by tests and `--interactive-config`-adjacent
// tooling that writes to a temp location first.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Providers: make(map[string]ProviderConfig),
	}

	llmSection := v.GetStringMap("llm")
	if llmSection == nil {
		return nil, fmt.Errorf("config invalid: missing [llm] section")
	}

	cfg.DefaultProvider = v.GetString("llm.default_provider")
	if cfg.DefaultProvider == "" {
		return nil, fmt.Errorf("config invalid: [llm] default_provider is required")
	}

	for key := range llmSection {
		if key == "default_provider" {
			continue
		}
		sub := v.Sub("llm." + key)
		if sub == nil {
			continue
		}
		var pc ProviderConfig
		if err := sub.Unmarshal(&pc); err != nil {
			return nil, fmt.Errorf("config invalid: [llm.%s]: %w", key, err)
		}
		cfg.Providers[key] = pc
	}

	cfg.DefaultRole = v.GetString("roles.default_role")

	providerCfg, ok := cfg.Providers[cfg.DefaultProvider]
	if !ok {
		return nil, fmt.Errorf("config invalid: default_provider %q has no [llm.%s] table", cfg.DefaultProvider, cfg.DefaultProvider)
	}
	if requiresAPIKey(cfg.DefaultProvider) && providerCfg.APIKey == "" {
		return nil, fmt.Errorf("config invalid: [llm.%s] api_key is required", cfg.DefaultProvider)
	}

	return cfg, nil
}

// requiresAPIKey reports whether a provider identifier is one of the
// built-in hosted providers that cannot operate without an api_key. Custom
// openai-compatible entries (Ollama, LM Studio) are exempt since they may
// run unauthenticated locally.
func requiresAPIKey(provider string) bool {
	switch provider {
	case "anthropic", "openai", "gemini":
		return true
	default:
		return false
	}
}

// testModeConfig returns an ephemeral, valid configuration used only when
// WHAI_TEST_MODE is set and no real config.toml exists.
func testModeConfig() *Config {
	return &Config{
		DefaultProvider: "debug",
		Providers: map[string]ProviderConfig{
			"debug": {DefaultModel: "debug-echo"},
		},
		DefaultRole: "default",
	}
}

// ProviderNames returns the configured provider identifiers, sorted.
func (c *Config) ProviderNames() []string {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RoleFromEnv resolves the role-precedence rule's env-var step: WHAI_ROLE,
// ignoring an empty string.
func RoleFromEnv() string {
	return strings.TrimSpace(os.Getenv("WHAI_ROLE"))
}
