package main

import (
	"fmt"

	"github.com/Reynold-degenracy/EverMemoryArchive/internal/config"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/llm"
	"github.com/Reynold-degenracy/EverMemoryArchive/internal/llm/providers"
)

// buildLLMClient resolves cfg.LLM.Provider to a concrete llm.Client. Only
// "anthropic" and "openai" are wired — spec.md's Non-goals scope provider
// internals out of the core, so a third provider would just repeat the
// same conversion pattern without exercising anything new.
func buildLLMClient(cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case "anthropic", "":
		return providers.NewAnthropic(providers.AnthropicConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "openai":
		return providers.NewOpenAI(providers.OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
