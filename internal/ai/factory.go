package ai

import (
	"fmt"
	"strings"

	"github.com/safebite/safebite/internal/common"
	"golang.org/x/time/rate"
)

// NewClient creates a provider client based on the provided configuration.
// The orchestrator is handed two of these (primary, secondary) by the entry
// point; there is no process-wide client singleton.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported AI provider %q", common.ErrInvalidConfig, cfg.Provider)
	}
}

// newLimiter builds the client-side rate limiter from config.
func newLimiter(cfg Config) *rate.Limiter {
	perMinute := cfg.RateLimit
	if perMinute <= 0 {
		perMinute = 60
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
}
