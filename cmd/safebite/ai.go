package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/safebite/safebite/internal/ai"
	"github.com/safebite/safebite/internal/common"
	"github.com/spf13/viper"
)

// createAIClients builds the primary and secondary provider clients from
// configuration. The secondary client may be nil when disabled; the
// analysis chain skips it and falls through to the rule-based tier.
func createAIClients() (ai.Client, ai.Client, error) {
	primary, err := createAIClient("ai.primary", "openai")
	if err != nil {
		return nil, nil, fmt.Errorf("primary provider: %w", err)
	}

	secondary, err := createAIClient("ai.secondary", "anthropic")
	if err != nil {
		// A missing secondary only narrows the chain; the rule-based
		// tier still guarantees a verdict.
		slog.Warn("Secondary provider unavailable, continuing without it", "error", err)
		secondary = nil
	}

	return primary, secondary, nil
}

func createAIClient(configKey, defaultProvider string) (ai.Client, error) {
	provider := viper.GetString(configKey + ".provider")
	if provider == "" {
		provider = defaultProvider
	}
	if strings.EqualFold(provider, "none") {
		return nil, nil
	}

	cfg := ai.Config{
		Provider:    provider,
		Model:       viper.GetString(configKey + ".model"),
		Temperature: viper.GetFloat64(configKey + ".temperature"),
		MaxTokens:   viper.GetInt(configKey + ".max_tokens"),
		RateLimit:   viper.GetInt(configKey + ".rate_limit"),
		Burst:       viper.GetInt(configKey + ".burst"),
		HTTPTimeout: viper.GetDuration(configKey + ".http_timeout"),
	}

	// Check viper first, then the provider's conventional environment
	// variable.
	apiKey := viper.GetString(configKey + ".api_key")
	if apiKey == "" {
		switch provider {
		case "openai":
			apiKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: no API key for %s provider in config or environment", common.ErrMissingConfig, provider)
	}
	cfg.APIKey = apiKey

	return ai.NewClient(cfg)
}
