package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/coprodeli/coprodelito/pkg/config"
)

// CreateGenerator builds the configured generation collaborator.
func CreateGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Assistant.Provider))

	switch name {
	case "", "gemini":
		apiKey := strings.TrimSpace(cfg.Providers.Gemini.APIKey)
		if apiKey == "" {
			return nil, fmt.Errorf("Gemini API key is required (set providers.gemini.api_key or COPRODELITO_PROVIDERS_GEMINI_API_KEY)")
		}
		return NewGeminiProvider(ctx, apiKey, cfg.Assistant.Model)

	case "openrouter":
		apiKey := strings.TrimSpace(cfg.Providers.OpenRouter.APIKey)
		if apiKey == "" {
			return nil, fmt.Errorf("OpenRouter API key is required (set providers.openrouter.api_key or COPRODELITO_PROVIDERS_OPENROUTER_API_KEY)")
		}
		return NewOpenRouterProvider(apiKey, cfg.OpenRouterAPIBase(), strings.TrimSpace(cfg.Providers.OpenRouter.Proxy)), nil

	default:
		return nil, fmt.Errorf("unsupported provider %q: expected gemini or openrouter", name)
	}
}
