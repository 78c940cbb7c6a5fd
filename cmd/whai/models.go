package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samsaffron/whai/internal/llm"
)

// modelLister is implemented by providers that can query their endpoint for
// the live model list; llm.Provider itself doesn't declare this since debug
// and generic OpenAI-compatible providers don't all support it.
type modelLister interface {
	ListModels(ctx context.Context) ([]llm.ModelInfo, error)
}

var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List known models for the configured provider(s)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadOrBootstrapConfig()
		if err != nil {
			return &exitError{code: 1, err: err}
		}

		providerName := cfg.DefaultProvider
		if len(args) == 1 {
			providerName = args[0]
		}

		provider, err := llm.NewProviderByName(cfg, providerName, "")
		if err != nil {
			return &exitError{code: 1, err: err}
		}

		underlying := provider
		if retryProvider, ok := provider.(*llm.RetryProvider); ok {
			underlying = retryProvider.Inner()
		}

		if lister, ok := underlying.(modelLister); ok {
			ctx, cancel := signalContext()
			defer cancel()
			models, err := lister.ListModels(ctx)
			if err == nil && len(models) > 0 {
				for _, m := range models {
					fmt.Println(m.ID)
				}
				return nil
			}
		}

		if curated, ok := llm.ProviderModels[providerName]; ok {
			for _, m := range curated {
				fmt.Println(m)
			}
			return nil
		}

		fmt.Printf("No known models for provider %q.\n", providerName)
		return nil
	},
}
