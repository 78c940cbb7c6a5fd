package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RunInteractiveWizard prompts on stdin/stdout for a provider, its api_key,
// and a default model, then writes config.toml and returns the resulting
// Config. Used both for --interactive-config and as the first-run fallback
// when no config file exists.
func RunInteractiveWizard() (*Config, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("whai needs a one-time setup. Let's configure your LLM provider.")
	fmt.Println("Supported providers: anthropic, openai, gemini (or a custom OpenAI-compatible name)")

	provider := promptLine(reader, "Provider", "anthropic")
	apiKey := promptLine(reader, "API key", "")
	defaultModel := promptLine(reader, "Default model (blank for provider default)", "")

	path, err := Path()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	var toml strings.Builder
	fmt.Fprintf(&toml, "[llm]\ndefault_provider = %q\n\n", provider)
	fmt.Fprintf(&toml, "[llm.%s]\n", provider)
	if apiKey != "" {
		fmt.Fprintf(&toml, "api_key = %q\n", apiKey)
	}
	if defaultModel != "" {
		fmt.Fprintf(&toml, "default_model = %q\n", defaultModel)
	}
	toml.WriteString("\n[roles]\ndefault_role = \"default\"\n")

	if err := os.WriteFile(path, []byte(toml.String()), 0o600); err != nil {
		return nil, fmt.Errorf("write config: %w", err)
	}

	return Load()
}

func promptLine(reader *bufio.Reader, label, fallback string) string {
	if fallback != "" {
		fmt.Printf("%s [%s]: ", label, fallback)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}
	return line
}
