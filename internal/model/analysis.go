package model

import (
	"fmt"
	"time"
)

// ComplianceLevel is the overall user-facing verdict.
// Safe < Caution < Violation; merges take the maximum.
type ComplianceLevel int

const (
	// ComplianceSafe means no restriction was matched.
	ComplianceSafe ComplianceLevel = iota
	// ComplianceCaution means a match that warrants attention but is not
	// an outright violation (e.g. cross-contamination at lower severity).
	ComplianceCaution
	// ComplianceViolation means the product must not be consumed.
	ComplianceViolation
)

// String returns the lowercase level name.
func (c ComplianceLevel) String() string {
	switch c {
	case ComplianceSafe:
		return "safe"
	case ComplianceCaution:
		return "caution"
	case ComplianceViolation:
		return "violation"
	default:
		return fmt.Sprintf("compliance(%d)", int(c))
	}
}

// MaxCompliance returns the stricter of two levels.
func MaxCompliance(a, b ComplianceLevel) ComplianceLevel {
	if a > b {
		return a
	}
	return b
}

// MatchType describes how an ingredient matched a restriction.
type MatchType string

const (
	// MatchDirectIngredient is a match against an ingredient token or the
	// product's declared-allergen list.
	MatchDirectIngredient MatchType = "direct_ingredient"
	// MatchCrossContamination is a match inside a "may contain" or
	// "processed in a facility" advisory phrase.
	MatchCrossContamination MatchType = "cross_contamination"
	// MatchProcessingAid is a match against a processing-aid declaration.
	MatchProcessingAid MatchType = "processing_aid"
	// MatchCertification is a certification-level conflict (e.g. not
	// certified kosher/halal for a religious restriction).
	MatchCertification MatchType = "certification"
)

// Violation records one restriction matched against one ingredient.
type Violation struct {
	RestrictionKey    string
	MatchedIngredient string
	Severity          Severity
	MatchType         MatchType
}

// AnalysisMethod names which tier of the fallback chain produced a result.
type AnalysisMethod string

const (
	// MethodPrimaryAI is the first-choice AI provider.
	MethodPrimaryAI AnalysisMethod = "primary_ai"
	// MethodFallbackAI is the second-choice AI provider.
	MethodFallbackAI AnalysisMethod = "fallback_ai"
	// MethodRuleBased is the deterministic matcher.
	MethodRuleBased AnalysisMethod = "rule_based"
)

// DietaryAnalysis is the engine's verdict for one (product, profile) pair.
type DietaryAnalysis struct {
	ComplianceLevel ComplianceLevel
	Violations      []Violation
	Warnings        []string
	Confidence      float64
	Method          AnalysisMethod
	Explanation     string
	AnalyzedAt      time.Time
}

// AnalysisRequest is the uniform shape sent to either AI provider adapter.
type AnalysisRequest struct {
	ProductName  string
	Ingredients  []string
	Restrictions []Restriction
	StrictMode   bool
}

// ProviderResult is a provider's validated verdict, before escalation.
type ProviderResult struct {
	Safe        bool
	Violations  []string
	Warnings    []string
	Confidence  float64
	Explanation string
}
