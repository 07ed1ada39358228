package engine

import (
	"context"
	"sync"
	"time"

	"github.com/safebite/safebite/internal/model"
)

// MockClient is a test implementation of the ai.Client interface with
// scripted results and call recording.
type MockClient struct {
	name    string
	result  model.ProviderResult
	err     error
	delay   time.Duration
	calls   []model.AnalysisRequest
	mu      sync.Mutex
}

// NewMockClient creates a mock provider that returns result or err.
func NewMockClient(name string, result model.ProviderResult, err error) *MockClient {
	return &MockClient{name: name, result: result, err: err}
}

// WithDelay makes every Analyze call block for d (or until cancellation).
func (m *MockClient) WithDelay(d time.Duration) *MockClient {
	m.delay = d
	return m
}

// Name identifies the mock in logs.
func (m *MockClient) Name() string { return m.name }

// Analyze records the call and returns the scripted outcome.
func (m *MockClient) Analyze(ctx context.Context, req model.AnalysisRequest) (model.ProviderResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return model.ProviderResult{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return model.ProviderResult{}, err
	}
	if m.err != nil {
		return model.ProviderResult{}, m.err
	}
	return m.result, nil
}

// Calls returns how many times Analyze was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastRequest returns the most recent request, if any.
func (m *MockClient) LastRequest() (model.AnalysisRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return model.AnalysisRequest{}, false
	}
	return m.calls[len(m.calls)-1], true
}
