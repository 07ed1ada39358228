package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/safebite/safebite/internal/model"
	"github.com/spf13/cobra"
)

// scanOutput is the JSON shape emitted by scan --json.
type scanOutput struct {
	Product  productInfo           `json:"product"`
	Analysis model.DietaryAnalysis `json:"analysis"`
}

type productInfo struct {
	Barcode string              `json:"barcode"`
	Name    string              `json:"name"`
	Source  model.ProductSource `json:"source"`
}

func productSummary(p *model.Product) productInfo {
	return productInfo{Barcode: p.Barcode, Name: p.Name, Source: p.Source}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printVerdict(cmd *cobra.Command, product *model.Product, analysis model.DietaryAnalysis) {
	name := product.Name
	if name == "" {
		name = product.Barcode
	}

	cmd.Printf("%s  %s\n", verdictBadge(analysis.ComplianceLevel), name)
	cmd.Printf("  method: %s  confidence: %.2f\n", analysis.Method, analysis.Confidence)

	for _, v := range analysis.Violations {
		cmd.Printf("  ✗ %s (%s, %s) matched %q\n",
			v.RestrictionKey, v.Severity, formatMatchType(v.MatchType), v.MatchedIngredient)
	}
	for _, w := range analysis.Warnings {
		cmd.Printf("  ! %s\n", w)
	}
	if analysis.Explanation != "" {
		cmd.Printf("  %s\n", analysis.Explanation)
	}
}

func verdictBadge(level model.ComplianceLevel) string {
	switch level {
	case model.ComplianceSafe:
		return "✅ SAFE"
	case model.ComplianceCaution:
		return "⚠️  CAUTION"
	case model.ComplianceViolation:
		return "🚫 VIOLATION"
	default:
		return strings.ToUpper(level.String())
	}
}

func formatMatchType(t model.MatchType) string {
	return strings.ReplaceAll(string(t), "_", " ")
}
