package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/safebite/safebite/internal/model"
)

const systemPrompt = "You are a dietary compliance analyzer. Given a product's ingredients and a user's dietary restrictions, decide whether the product is safe for that user. You MUST respond with ONLY a valid JSON object of the form {\"safe\": bool, \"violations\": [string], \"warnings\": [string], \"confidence\": number, \"explanation\": string}. Do not include any text, markdown formatting, or commentary before or after the JSON. Start your response directly with { and end with }."

// wireRequest is the JSON body describing the analysis to perform, embedded
// in the user message of either provider's chat payload.
type wireRequest struct {
	ProductName  string            `json:"productName"`
	Ingredients  []string          `json:"ingredients"`
	Restrictions []wireRestriction `json:"restrictions"`
	StrictMode   bool              `json:"strictMode"`
}

type wireRestriction struct {
	Key      string `json:"key"`
	Severity string `json:"severity"`
}

// buildPrompt renders the analysis request as the user message content.
func buildPrompt(req model.AnalysisRequest) (string, error) {
	wire := wireRequest{
		ProductName:  req.ProductName,
		Ingredients:  req.Ingredients,
		Restrictions: make([]wireRestriction, 0, len(req.Restrictions)),
		StrictMode:   req.StrictMode,
	}
	for _, r := range req.Restrictions {
		wire.Restrictions = append(wire.Restrictions, wireRestriction{
			Key:      r.Key,
			Severity: r.Severity.String(),
		})
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis request: %w", err)
	}

	var b strings.Builder
	b.WriteString("Analyze the following product for the given dietary restrictions:\n")
	b.Write(payload)
	return b.String(), nil
}
