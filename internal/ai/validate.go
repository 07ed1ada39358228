package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/safebite/safebite/internal/model"
)

// validateResult parses the raw JSON content a provider returned and checks
// every field structurally before anything crosses into the orchestrator.
// A wrong guess is worse than no guess: any malformed field is
// ErrInvalidResponse, never a best-effort partial result.
func validateResult(provider, content string) (model.ProviderResult, error) {
	content = stripCodeFence(content)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return model.ProviderResult{}, fmt.Errorf("%w: %s content is not a JSON object: %v", ErrInvalidResponse, provider, err)
	}

	safeRaw, ok := fields["safe"]
	if !ok {
		return model.ProviderResult{}, fmt.Errorf("%w: %s response missing \"safe\"", ErrInvalidResponse, provider)
	}
	var safe bool
	if err := json.Unmarshal(safeRaw, &safe); err != nil {
		return model.ProviderResult{}, fmt.Errorf("%w: %s \"safe\" is not a boolean", ErrInvalidResponse, provider)
	}

	confRaw, ok := fields["confidence"]
	if !ok {
		return model.ProviderResult{}, fmt.Errorf("%w: %s response missing \"confidence\"", ErrInvalidResponse, provider)
	}
	var confidence float64
	if err := json.Unmarshal(confRaw, &confidence); err != nil {
		return model.ProviderResult{}, fmt.Errorf("%w: %s \"confidence\" is not a number", ErrInvalidResponse, provider)
	}
	if math.IsNaN(confidence) || math.IsInf(confidence, 0) {
		return model.ProviderResult{}, fmt.Errorf("%w: %s \"confidence\" is not finite", ErrInvalidResponse, provider)
	}
	confidence = math.Min(1, math.Max(0, confidence))

	violations, err := stringList(fields, "violations")
	if err != nil {
		return model.ProviderResult{}, fmt.Errorf("%w: %s %v", ErrInvalidResponse, provider, err)
	}
	warnings, err := stringList(fields, "warnings")
	if err != nil {
		return model.ProviderResult{}, fmt.Errorf("%w: %s %v", ErrInvalidResponse, provider, err)
	}

	var explanation string
	if raw, present := fields["explanation"]; present {
		if err := json.Unmarshal(raw, &explanation); err != nil {
			return model.ProviderResult{}, fmt.Errorf("%w: %s \"explanation\" is not a string", ErrInvalidResponse, provider)
		}
	}

	// A safe verdict listing violations contradicts itself.
	if safe && len(violations) > 0 {
		return model.ProviderResult{}, fmt.Errorf("%w: %s claims safe but lists %d violations", ErrInvalidResponse, provider, len(violations))
	}

	return model.ProviderResult{
		Safe:        safe,
		Violations:  violations,
		Warnings:    warnings,
		Confidence:  confidence,
		Explanation: explanation,
	}, nil
}

// stringList extracts an optional array-of-strings field. An absent field is
// an empty list; a present field of any other shape is an error.
func stringList(fields map[string]json.RawMessage, name string) ([]string, error) {
	raw, ok := fields[name]
	if !ok {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%q is not an array of strings", name)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// stripCodeFence removes a markdown code fence some models wrap around JSON
// despite instructions.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
