package llm

import "strings"

// ProviderModels is a curated list of common models per built-in provider,
// used by `whai models` as a fallback when a provider has no ListModels
// support, and by GetProviderCompletions.
var ProviderModels = map[string][]string{
	"anthropic": {
		"claude-sonnet-4-5",
		"claude-opus-4-5",
		"claude-haiku-4-5",
	},
	"openai": {
		"gpt-5.2",
		"gpt-5.2-high",
		"gpt-4.1",
	},
	"gemini": {
		"gemini-3-pro-preview",
		"gemini-3-flash-preview",
		"gemini-2.5-flash",
		"gemini-2.5-flash-lite",
	},
}

// GetProviderCompletions returns completions for a "provider" or
// "provider:model" string: bare provider names are matched against
// configured, model suffixes against ProviderModels.
func GetProviderCompletions(toComplete string, configured []string) []string {
	if strings.Contains(toComplete, ":") {
		parts := strings.SplitN(toComplete, ":", 2)
		provider, modelPrefix := parts[0], parts[1]

		models, ok := ProviderModels[provider]
		if !ok {
			return nil
		}
		var completions []string
		for _, model := range models {
			if strings.HasPrefix(model, modelPrefix) {
				completions = append(completions, provider+":"+model)
			}
		}
		return completions
	}

	var completions []string
	for _, name := range configured {
		if strings.HasPrefix(name, toComplete) {
			completions = append(completions, name)
		}
	}
	return completions
}
