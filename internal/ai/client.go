// Package ai provides a uniform client interface over the AI analysis
// providers. Each adapter sends the same request shape, strictly validates
// the response, and maps every failure onto the provider error taxonomy.
// Retry policy lives in the orchestrator, not here.
package ai

import (
	"context"
	"time"

	"github.com/safebite/safebite/internal/model"
)

// Client is the uniform interface over an AI analysis provider.
type Client interface {
	// Name identifies the provider in logs and analysis metadata.
	Name() string
	// Analyze submits the request and returns a validated result. The
	// caller bounds the call with a context deadline; any provider
	// failure is reported as one of the Err* sentinels in this package.
	Analyze(ctx context.Context, req model.AnalysisRequest) (model.ProviderResult, error)
}

// Config holds configuration for one provider adapter.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	// RateLimit is the sustained request rate per minute; Burst bounds
	// short spikes. Zero values pick defaults.
	RateLimit int
	Burst     int
	// HTTPTimeout is a transport-level cap independent of the per-call
	// context deadline.
	HTTPTimeout time.Duration
}
