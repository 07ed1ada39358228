// Package matcher implements the deterministic restriction matcher used as
// the terminal fallback tier and as the post-hoc safety check over AI output.
package matcher

import (
	"strings"

	"github.com/safebite/safebite/internal/model"
)

// crossContaminationPhrases mark advisory labelling rather than a listed
// ingredient. A keyword hit inside one of these yields CrossContamination.
var crossContaminationPhrases = []string{
	"may contain",
	"traces of",
	"trace of",
	"processed in a facility",
	"made in a facility",
	"manufactured in a facility",
	"manufactured on shared equipment",
	"produced on shared equipment",
	"shared equipment",
}

// processingAidPhrases mark aids that are used during manufacture but not
// listed as ingredients proper.
var processingAidPhrases = []string{
	"processing aid",
	"used as a processing aid",
	"clarified with",
	"fined with",
}

// Matcher matches restriction keyword sets against ingredient text. It holds
// no mutable state after construction and performs no I/O, so Evaluate is a
// pure function of its arguments.
type Matcher struct {
	keywords map[string][]string
}

// New builds a Matcher from the given keyword sets. Keys and keywords are
// lowercased once at construction.
func New(sets []KeywordSet) *Matcher {
	keywords := make(map[string][]string, len(sets))
	for _, s := range sets {
		terms := make([]string, 0, len(s.Keywords))
		for _, k := range s.Keywords {
			terms = append(terms, strings.ToLower(k))
		}
		keywords[strings.ToLower(s.Key)] = terms
	}
	return &Matcher{keywords: keywords}
}

// NewDefault builds a Matcher over the built-in keyword table.
func NewDefault() *Matcher {
	return New(DefaultKeywordSets())
}

// Evaluate matches every restriction against every ingredient and against the
// declared-allergen set. Output is ordered by first occurrence in the
// ingredient list, then by declared-allergen hits; identical inputs always
// produce identical output.
func (m *Matcher) Evaluate(ingredients []string, declaredAllergens []string, restrictions []model.Restriction) []model.Violation {
	var violations []model.Violation
	seen := make(map[string]struct{})

	add := func(v model.Violation) {
		key := v.RestrictionKey + "\x00" + strings.ToLower(v.MatchedIngredient) + "\x00" + string(v.MatchType)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		violations = append(violations, v)
	}

	for _, ingredient := range ingredients {
		lower := strings.ToLower(ingredient)
		matchType := classifyPhrase(lower)
		for _, r := range restrictions {
			if m.matches(lower, r) {
				add(model.Violation{
					RestrictionKey:    r.Key,
					MatchedIngredient: ingredient,
					Severity:          r.Severity,
					MatchType:         matchType,
				})
			}
		}
	}

	for _, allergen := range declaredAllergens {
		lower := strings.ToLower(allergen)
		for _, r := range restrictions {
			if m.matches(lower, r) {
				add(model.Violation{
					RestrictionKey:    r.Key,
					MatchedIngredient: allergen,
					Severity:          r.Severity,
					MatchType:         model.MatchDirectIngredient,
				})
			}
		}
	}

	return violations
}

// matches reports whether any keyword for the restriction occurs in text.
// Restrictions without a keyword set fall back to their own key.
func (m *Matcher) matches(text string, r model.Restriction) bool {
	terms, ok := m.keywords[strings.ToLower(r.Key)]
	if !ok {
		terms = []string{strings.ToLower(r.Key)}
	}
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func classifyPhrase(lower string) model.MatchType {
	for _, p := range crossContaminationPhrases {
		if strings.Contains(lower, p) {
			return model.MatchCrossContamination
		}
	}
	for _, p := range processingAidPhrases {
		if strings.Contains(lower, p) {
			return model.MatchProcessingAid
		}
	}
	return model.MatchDirectIngredient
}

// ComplianceFor computes the verdict implied by a violation set:
//   - Anaphylactic at any match type is a Violation
//   - Severe as a direct ingredient is a Violation
//   - anything else that matched is a Caution
//   - no matches is Safe
func ComplianceFor(violations []model.Violation) model.ComplianceLevel {
	level := model.ComplianceSafe
	for _, v := range violations {
		switch {
		case v.Severity == model.SeverityAnaphylactic:
			return model.ComplianceViolation
		case v.Severity == model.SeveritySevere && v.MatchType == model.MatchDirectIngredient:
			level = model.ComplianceViolation
		default:
			level = model.MaxCompliance(level, model.ComplianceCaution)
		}
	}
	return level
}
