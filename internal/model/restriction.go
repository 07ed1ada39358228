package model

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// RestrictionCategory groups dietary restrictions by why they exist.
type RestrictionCategory string

const (
	// CategoryAllergen covers medical allergies (milk, peanuts, shellfish...).
	CategoryAllergen RestrictionCategory = "allergen"
	// CategoryReligious covers faith-based restrictions (pork, alcohol...).
	CategoryReligious RestrictionCategory = "religious"
	// CategoryMedical covers non-allergy medical restrictions (sodium...).
	CategoryMedical RestrictionCategory = "medical"
	// CategoryLifestyle covers chosen diets (vegan, vegetarian...).
	CategoryLifestyle RestrictionCategory = "lifestyle"
)

// Severity orders the medical consequence of exposure.
// Irritation < Severe < Anaphylactic.
type Severity int

const (
	// SeverityIrritation causes discomfort but no danger.
	SeverityIrritation Severity = iota
	// SeveritySevere causes a serious reaction.
	SeveritySevere
	// SeverityAnaphylactic is life-threatening.
	SeverityAnaphylactic
)

// String returns the lowercase name used in config files and wire payloads.
func (s Severity) String() string {
	switch s {
	case SeverityIrritation:
		return "irritation"
	case SeveritySevere:
		return "severe"
	case SeverityAnaphylactic:
		return "anaphylactic"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// ParseSeverity converts a severity name back to its value.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "irritation":
		return SeverityIrritation, nil
	case "severe":
		return SeveritySevere, nil
	case "anaphylactic":
		return SeverityAnaphylactic, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}

// Restriction is one dietary rule a user declares. Unique by (Category, Key).
type Restriction struct {
	Category RestrictionCategory
	Key      string
	Severity Severity
}

// UserProfile is the set of restrictions for one user.
type UserProfile struct {
	ID           string
	Restrictions []Restriction
}

// Fingerprint returns a stable hash of the profile's restrictions, including
// severities. Any edit to any restriction changes the fingerprint, which is
// what keys cached analyses to the profile state they were computed under.
func (p UserProfile) Fingerprint() string {
	lines := make([]string, 0, len(p.Restrictions))
	for _, r := range p.Restrictions {
		lines = append(lines, fmt.Sprintf("%s|%s|%s", r.Category, strings.ToLower(r.Key), r.Severity))
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return fmt.Sprintf("%x", sum)
}

// Restriction returns the restriction with the given category and key, if any.
func (p UserProfile) Restriction(category RestrictionCategory, key string) (Restriction, bool) {
	for _, r := range p.Restrictions {
		if r.Category == category && strings.EqualFold(r.Key, key) {
			return r, true
		}
	}
	return Restriction{}, false
}
