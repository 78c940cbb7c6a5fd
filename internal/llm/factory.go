package llm

import (
	"fmt"
	"strings"

	"github.com/samsaffron/whai/internal/config"
)

// builtInProviderTypes are the provider identifiers factory.go knows how to
// construct directly from a [llm.<name>] config table. A custom name not in
// this list is treated as an OpenAI-compatible endpoint, since that is the
// shape Ollama, LM Studio, and most self-hosted gateways all speak.
var builtInProviderTypes = map[string]bool{
	"anthropic": true,
	"openai":    true,
	"gemini":    true,
}

// ParseProviderModel parses "provider" or "provider:model" from a flag value,
// validating provider against the configured providers.
func ParseProviderModel(s string, cfg *config.Config) (string, string, error) {
	parts := strings.SplitN(s, ":", 2)
	provider := strings.TrimSpace(parts[0])
	if provider == "" {
		return "", "", fmt.Errorf("invalid provider format: %q", s)
	}
	model := ""
	if len(parts) == 2 {
		model = strings.TrimSpace(parts[1])
	}

	if provider == "debug" {
		return provider, model, nil
	}
	if cfg != nil {
		if _, ok := cfg.Providers[provider]; ok {
			return provider, model, nil
		}
	}
	return "", "", fmt.Errorf("unknown provider: %s", provider)
}

// NewProvider builds the active provider (cfg.DefaultProvider), wrapped with
// automatic retry for rate limits and transient errors.
func NewProvider(cfg *config.Config) (Provider, error) {
	return NewProviderByName(cfg, cfg.DefaultProvider, "")
}

// NewProviderByName builds a named provider, with an optional model
// override, wrapped with automatic retry.
func NewProviderByName(cfg *config.Config, name string, model string) (Provider, error) {
	if name == "debug" {
		return WrapWithRetry(NewDebugProvider(model), DefaultRetryConfig()), nil
	}

	providerCfg, ok := cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %q not configured", name)
	}
	if model != "" {
		providerCfg.DefaultModel = model
	}

	provider, err := createProviderFromConfig(name, providerCfg)
	if err != nil {
		return nil, err
	}
	return WrapWithRetry(provider, DefaultRetryConfig()), nil
}

func createProviderFromConfig(name string, cfg config.ProviderConfig) (Provider, error) {
	switch {
	case name == "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.DefaultModel)

	case name == "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.APIBase, cfg.DefaultModel)

	case name == "gemini":
		return NewGeminiProvider(cfg.APIKey, cfg.DefaultModel)

	default:
		// Any other configured name (ollama, lmstudio, a company gateway, ...)
		// is treated as an OpenAI-compatible endpoint; api_base is required
		// since there is no well-known default to fall back to.
		if cfg.APIBase == "" {
			return nil, fmt.Errorf("provider %q requires api_base", name)
		}
		displayName := strings.ToUpper(name[:1]) + name[1:]
		return NewOpenAICompatProvider(cfg.APIBase, cfg.APIKey, cfg.DefaultModel, displayName), nil
	}
}

// GetBuiltInProviderNames returns the provider identifiers factory.go
// constructs with a dedicated SDK client rather than the generic
// OpenAI-compatible fallback.
func GetBuiltInProviderNames() []string {
	names := make([]string, 0, len(builtInProviderTypes))
	for name := range builtInProviderTypes {
		names = append(names, name)
	}
	return names
}
